package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/egopanda/agency/internal/config"
	"github.com/egopanda/agency/internal/gateway"
	httpapi "github.com/egopanda/agency/internal/http"
	"github.com/egopanda/agency/internal/telemetry"
	"github.com/egopanda/agency/pkg/protocol"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway (default command)",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	setupLogging()

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if _, err := cfg.LLM.RequireAPIKey(); err != nil {
		// Chat endpoints answer 500 until the key is set; the rest keep working.
		slog.Warn("llm disabled", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry, Version)
	if err != nil {
		slog.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdownTracer(sctx); err != nil {
			slog.Warn("tracer shutdown", "error", err)
		}
	}()

	metricsHandler, err := telemetry.InitMeterProvider(ctx, cfg.Telemetry.ServiceName)
	if err != nil {
		slog.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	server := gateway.NewServer(cfg, Version, metricsHandler,
		httpapi.NewChatHandler(rt.chat),
		httpapi.NewMemoryHandler(rt.stores.Memory, cfg.Database.Timeout()),
		httpapi.NewMessagesHandler(rt.dispatcher),
		httpapi.NewWebhookHandler(rt.router),
	)

	mode := "standalone"
	if cfg.IsManagedMode() {
		mode = "managed"
	}
	slog.Info("agency gateway starting",
		"version", Version,
		"api", protocol.APIVersion,
		"mode", mode,
		"agents", len(rt.catalog.All()),
		"default_agent", rt.catalog.Default().ID,
		"message_types", rt.dispatcher.Types(),
		"notify", cfg.Triggers.Notify,
	)

	if err := server.Start(ctx); err != nil {
		slog.Error("gateway error", "error", err)
		os.Exit(1)
	}
	slog.Info("gateway stopped")
}

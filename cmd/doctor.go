package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/config"
	"github.com/egopanda/agency/internal/store/pg"
	"github.com/egopanda/agency/internal/upgrade"
	"github.com/egopanda/agency/pkg/protocol"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("agency doctor")
	fmt.Printf("  Version:  %s (api %d)\n", Version, protocol.APIVersion)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults + env)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Agents:")
	catalog, err := agents.Load(config.ExpandHome(cfg.Agents.CatalogFile))
	if err != nil {
		fmt.Printf("    %-12s LOAD FAILED (%s)\n", "Catalog:", err)
	} else {
		src := "built-in"
		if cfg.Agents.CatalogFile != "" {
			src = cfg.Agents.CatalogFile
		}
		fmt.Printf("    %-12s %d agents (%s), default %s\n", "Catalog:", len(catalog.All()), src, catalog.Default().ID)
		fmt.Printf("    %-12s %s\n", "Advanced:", strings.Join(cfg.LLM.Advanced.Agents, ", "))
	}

	fmt.Println()
	fmt.Println("  LLM:")
	checkSecret("API key", cfg.LLM.APIKey)
	fmt.Printf("    %-12s %s\n", "API base:", cfg.LLM.APIBase)
	fmt.Printf("    %-12s %s / %s\n", "Models:", cfg.LLM.Advanced.Model, cfg.LLM.Standard.Model)

	fmt.Println()
	fmt.Println("  Database:")
	if !cfg.IsManagedMode() {
		fmt.Printf("    %-12s standalone (sqlite %s)\n", "Mode:", config.ExpandHome(cfg.Database.SQLitePath))
	} else {
		fmt.Printf("    %-12s managed\n", "Mode:")
		checkDatabase(cfg.Database.PostgresDSN)
	}

	fmt.Println()
	fmt.Println("  Triggers & channels:")
	fmt.Printf("    %-12s %s\n", "Notify:", orDefault(cfg.Triggers.Notify, "log"))
	fmt.Printf("    %-12s %s\n", "Workflows:", orDefault(cfg.Workflows.BaseURL, "(log only)"))
	checkSecret("Telegram", cfg.Channels.Telegram.Token)
	fmt.Printf("    %-12s %s\n", "SMTP:", orDefault(cfg.Channels.Email.Host, "(dry run)"))

	fmt.Println()
	fmt.Println("  Telemetry:")
	if cfg.Telemetry.Enabled {
		fmt.Printf("    %-12s %s (%s)\n", "Tracing:", cfg.Telemetry.Endpoint, cfg.Telemetry.Protocol)
	} else {
		fmt.Printf("    %-12s disabled\n", "Tracing:")
	}
	fmt.Printf("    %-12s %s\n", "Metrics:", orDefault(cfg.Gateway.MetricsPath, "/metrics"))

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkDatabase(dsn string) {
	db, err := pg.OpenDB(dsn)
	if err != nil {
		fmt.Printf("    %-12s CONNECT FAILED (%s)\n", "Status:", err)
		return
	}
	defer db.Close()

	s, err := upgrade.Check(context.Background(), db)
	if err != nil {
		fmt.Printf("    %-12s CHECK FAILED (%s)\n", "Schema:", err)
		return
	}
	if s.State == upgrade.StateCurrent {
		fmt.Printf("    %-12s v%d (up to date)\n", "Schema:", s.Version)
		fmt.Printf("    %-12s %d\n", "Memories:", s.Documents)
		return
	}
	fmt.Printf("    %-12s v%d (%s)\n", "Schema:", s.Version, s.State)
	for _, line := range strings.Split(strings.TrimSpace(upgrade.Report(s)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			fmt.Printf("    %-12s %s\n", "", line)
		}
	}
}

func checkSecret(name, value string) {
	if value == "" {
		fmt.Printf("    %-12s (not configured)\n", name+":")
		return
	}
	fmt.Printf("    %-12s %s\n", name+":", maskSecret(value))
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

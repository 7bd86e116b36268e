// Package gateway is the HTTP front door: it wires the API handlers into a
// mux, wraps them in middleware and runs the listener.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/egopanda/agency/internal/config"
	httpapi "github.com/egopanda/agency/internal/http"
	"github.com/egopanda/agency/pkg/protocol"
)

const shutdownTimeout = 5 * time.Second

// Routes is anything that registers handlers on a mux.
type Routes interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Server is the gateway HTTP server.
type Server struct {
	cfg         *config.Config
	version     string
	routes      []Routes
	metrics     http.Handler
	rateLimiter *RateLimiter

	httpServer *http.Server
	handler    http.Handler
}

// NewServer creates a gateway serving routes. metrics may be nil.
func NewServer(cfg *config.Config, version string, metrics http.Handler, routes ...Routes) *Server {
	return &Server{
		cfg:         cfg,
		version:     version,
		routes:      routes,
		metrics:     metrics,
		rateLimiter: NewRateLimiter(cfg.Gateway.RateLimitRPM, 5),
	}
}

// Handler builds (once) the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	if s.handler != nil {
		return s.handler
	}

	mux := http.NewServeMux()
	mux.HandleFunc(protocol.RouteHealth, s.handleHealth)
	if s.metrics != nil && s.cfg.Gateway.MetricsPath != "-" {
		path := s.cfg.Gateway.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, s.metrics)
	}
	for _, r := range s.routes {
		r.RegisterRoutes(mux)
	}

	maxBody := s.cfg.Gateway.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	var h http.Handler = mux
	h = rateLimitMiddleware(s.rateLimiter, h)
	h = bodyLimitMiddleware(maxBody, h)
	h = corsMiddleware(h)
	h = recoverMiddleware(h)
	h = requestLogMiddleware(h)
	if s.cfg.Telemetry.Enabled {
		h = otelhttp.NewHandler(h, "agency-gateway")
	}
	s.handler = h
	return h
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Gateway.Addr()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.cfg.LLM.Timeout() + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	slog.Info("gateway starting", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("gateway server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

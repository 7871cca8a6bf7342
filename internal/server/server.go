// Package server exposes the filtering engine over an HTTP JSON API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server manages the HTTP server
type Server struct {
	httpServer *http.Server
	httpPort   int

	filterServer *FilterServer
	registry     *prometheus.Registry
	logger       *slog.Logger
}

// Config contains server configuration
type Config struct {
	HTTPPort int

	FilterServer *FilterServer

	// Registry, when set, exposes Prometheus metrics on /metrics
	Registry *prometheus.Registry

	// Logger for server lifecycle messages. If nil, uses slog.Default()
	Logger *slog.Logger
}

// New creates a new server with the given configuration
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpPort:     cfg.HTTPPort,
		filterServer: cfg.FilterServer,
		registry:     cfg.Registry,
		logger:       logger,
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/filter", s.filterServer.HandleFilter)
	mux.HandleFunc("GET /healthz", handleHealth)

	if s.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.httpPort),
		Handler: mux,
	}

	go func() {
		s.logger.Info("HTTP server listening", "port", s.httpPort)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err.Error())
		}
	}()

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// handleHealth reports liveness
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

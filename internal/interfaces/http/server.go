// Package http serves a finished walk-forward analysis read-only: summary,
// window plan, result rows, health, and Prometheus metrics.
package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/walkgate/internal/walkforward"
)

// Source provides the analysis views the server exposes. All methods must be
// safe to call repeatedly; the server never mutates the underlying run.
type Source interface {
	Windows() []walkforward.Window
	Rows() []walkforward.ResultRow
	Assessment() *walkforward.Assessment
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns a local-only server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server is the read-only results server.
type Server struct {
	router  *mux.Router
	server  *http.Server
	config  ServerConfig
	source  Source
	metrics http.Handler
}

// NewServer creates a results server. metricsHandler serves /metrics; pass
// the telemetry registry's handler.
func NewServer(config ServerConfig, source Source, metricsHandler http.Handler) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("port %d is busy or unavailable: %w", config.Port, err)
	}
	listener.Close()

	s := &Server{
		config:  config,
		source:  source,
		metrics: metricsHandler,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	s.router.HandleFunc("/windows", s.handleWindows).Methods(http.MethodGet)
	s.router.HandleFunc("/rows", s.handleRows).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
}

// Router returns the configured router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("Results server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("results server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("results server shutdown failed: %w", err)
		}
		log.Info().Msg("Results server stopped")
		return nil
	}
}

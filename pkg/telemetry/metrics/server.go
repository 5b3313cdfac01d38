package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultShutdownTimeout bounds how long Shutdown waits for in-flight
// scrapes to drain.
const DefaultShutdownTimeout = 5 * time.Second

// ServerConfig configures the scrape endpoint.
type ServerConfig struct {
	// Address is the listen address.
	// Example: "localhost:9090"
	Address string

	// Path is the scrape path. Default: "/metrics"
	Path string
}

// Server exposes a registry over HTTP for Prometheus scrapes. It binds
// eagerly so configuration mistakes surface at startup rather than on
// the first scrape.
type Server struct {
	config     ServerConfig
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
	running  bool
}

// NewServer creates a scrape server for the given registry.
func NewServer(cfg ServerConfig, reg *prometheus.Registry) *Server {
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, Handler(reg))

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:         cfg.Address,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start binds the listen address and begins serving scrapes in the
// background. It returns immediately after the bind, so the error from
// a bad address or an occupied port reaches the caller.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("metrics server is already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to bind metrics address %q: %w", s.config.Address, err)
	}
	s.listener = listener
	s.running = true

	go func() {
		slog.Info("metrics endpoint listening",
			"address", listener.Addr().String(),
			"path", s.config.Path,
		)
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or empty before Start. With a ":0"
// configuration this reports the port the kernel picked.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown drains in-flight scrapes and stops the server. A nil ctx
// deadline falls back to DefaultShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultShutdownTimeout)
		defer cancel()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	slog.Info("metrics endpoint stopped")
	return nil
}

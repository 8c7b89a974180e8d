// Package server assembles the HTTP + WebSocket API surface of the
// relay: snapshot and swap endpoints, the streaming endpoints, and the
// middleware chain in front of them.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/swaprelay/swaprelay/internal/domain"
	"github.com/swaprelay/swaprelay/internal/server/handler"
	"github.com/swaprelay/swaprelay/internal/server/middleware"
	"github.com/swaprelay/swaprelay/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimit caps requests per client per RateWindow. Zero disables
	// the rate-limiting middleware.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health *handler.HealthHandler
	Swap   *handler.SwapHandler
}

// Server is the HTTP + WebSocket API server for the relay.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the
// ServeMux and the middleware chain (logging, auth, CORS) wired up.
func NewServer(cfg Config, handlers Handlers, streamer *ws.Streamer, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required beyond the shared chain).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Unary endpoints.
	mux.HandleFunc("GET /api/pairs", handlers.Swap.Init)
	mux.HandleFunc("POST /api/swap", handlers.Swap.Swap)

	// Streaming endpoints.
	mux.HandleFunc("GET /ws/liquidity", streamer.HandleLiquidity)
	mux.HandleFunc("GET /ws/orders", streamer.HandleOrders)

	// Build the middleware chain.
	var h http.Handler = mux
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow)(h)
	}
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		// Streaming connections are hijacked by the WebSocket upgrade
		// and not subject to WriteTimeout.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

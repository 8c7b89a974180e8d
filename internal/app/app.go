// Package app provides the top-level application lifecycle for the relay.
// It wires together all dependencies (bus, cache, decoder, journal) and runs
// the event listener alongside the HTTP/WebSocket server until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swaprelay/swaprelay/internal/config"
	"github.com/swaprelay/swaprelay/internal/liquidity"
	"github.com/swaprelay/swaprelay/internal/server"
	"github.com/swaprelay/swaprelay/internal/server/handler"
	"github.com/swaprelay/swaprelay/internal/server/ws"
	"github.com/swaprelay/swaprelay/internal/service"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the bus
// listener and the API server, and blocks until the context is cancelled or
// the bus connection is lost. A lost bus connection terminates the process;
// the cache cannot be trusted once updates stop arriving.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Int("port", a.cfg.Server.Port),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	listener := liquidity.NewListener(
		deps.SignalBus, deps.Decoder, deps.Cache,
		deps.Journal, a.cfg.Bus.OrderAddrs, a.logger,
	)
	svc := service.NewSwapService(deps.Cache, deps.Duplicator, deps.Decoder, a.logger)
	streamer := ws.NewStreamer(svc, a.logger)

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  time.Duration(a.cfg.Server.RateWindowSec) * time.Second,
	}, server.Handlers{
		Health: handler.NewHealthHandler(deps.Cache, a.logger),
		Swap:   handler.NewSwapHandler(svc, a.logger),
	}, streamer, deps.RateLimiter, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return listener.Run(ctx)
	})

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

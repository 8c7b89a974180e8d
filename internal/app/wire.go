package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/swaprelay/swaprelay/internal/cache/redis"
	"github.com/swaprelay/swaprelay/internal/config"
	"github.com/swaprelay/swaprelay/internal/domain"
	"github.com/swaprelay/swaprelay/internal/event"
	"github.com/swaprelay/swaprelay/internal/liquidity"
	"github.com/swaprelay/swaprelay/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the relay needs to
// operate. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	SignalBus   domain.SignalBus
	Duplicator  domain.BusDuplicator
	RateLimiter domain.RateLimiter

	Cache   *liquidity.Cache
	Decoder *event.Decoder

	// Journal is nil when no journal DSN is configured.
	Journal domain.JournalStore
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.SignalBus = redis.NewSignalBus(redisClient)
	deps.Duplicator = redis.NewDuplicator(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)

	deps.Cache = liquidity.NewCache(logger)
	deps.Decoder = event.NewDecoder(event.Topics{
		Liquidity:   cfg.Bus.LiquidityChannel,
		OrderPrefix: cfg.Bus.OrderPrefix,
	})

	// --- PostgreSQL event journal (optional) ---
	if cfg.Journal.DSN != "" {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Journal.DSN,
			MaxConns: cfg.Journal.PoolMaxConns,
			MinConns: cfg.Journal.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}

		deps.Journal = postgres.NewJournalStore(pgClient.Pool())
	}

	return deps, cleanup, nil
}

package domain

import (
	"context"
	"time"
)

// SignalBus provides pub/sub over the external message bus. Subscribe
// returns a read-only channel of raw payloads that is closed when the
// context is cancelled or the underlying connection drops.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BusConn is a dedicated bus connection with an independent lifecycle,
// owned exclusively by one subscription session.
type BusConn interface {
	SignalBus
	Close() error
}

// BusDuplicator hands out dedicated connections so that one slow or
// broken subscriber never stalls the shared connection or other sessions.
type BusDuplicator interface {
	Duplicate(ctx context.Context) (BusConn, error)
}

// RateLimiter provides distributed per-key rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// JournalStore records applied cache changes for offline inspection. It
// is observational only; the cache never reads it back.
type JournalStore interface {
	AppendPoolUpdate(ctx context.Context, pair TradingPair) error
	AppendOrderBatch(ctx context.Context, result OrderBatchResult) error
}

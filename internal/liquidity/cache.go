// Package liquidity holds the authoritative in-memory state of the relay:
// the liquidity cache, the pending-order set, the process-wide bus
// listener that keeps them current, and the per-subscriber streaming
// sessions.
package liquidity

import (
	"log/slog"
	"sync"

	"github.com/swaprelay/swaprelay/internal/domain"
)

// Cache is the authoritative in-memory view of pool liquidity and pending
// orders. It is mutated by exactly one logical writer (the process-wide
// bus listener) and read concurrently by snapshot queries and order
// status lookups.
type Cache struct {
	mu     sync.RWMutex
	pairs  map[string]domain.TradingPair
	orders map[string]struct{}
	logger *slog.Logger
}

// NewCache creates an empty Cache.
func NewCache(logger *slog.Logger) *Cache {
	return &Cache{
		pairs:  make(map[string]domain.TradingPair),
		orders: make(map[string]struct{}),
		logger: logger.With(slog.String("component", "cache")),
	}
}

// ApplyLiquidity overwrites the entry for the pair's key with the new
// snapshot. Last write wins; there is no merge and no monotonicity check.
func (c *Cache) ApplyLiquidity(pair domain.TradingPair) {
	key := pair.Key()

	c.mu.Lock()
	c.pairs[key] = pair
	c.mu.Unlock()

	c.logger.Info("pool update", slog.String("pool", key))
}

// ApplyOrderBatch adds or removes each hash from the pending set and
// returns only the hashes whose membership actually changed. Re-adding a
// present hash and removing an absent one are no-ops.
func (c *Cache) ApplyOrderBatch(hashes []string, added bool) domain.OrderBatchResult {
	changed := make([]string, 0, len(hashes))

	c.mu.Lock()
	for _, h := range hashes {
		_, present := c.orders[h]
		if added && !present {
			c.orders[h] = struct{}{}
			changed = append(changed, h)
		}
		if !added && present {
			delete(c.orders, h)
			changed = append(changed, h)
		}
	}
	c.mu.Unlock()

	return domain.OrderBatchResult{Hashes: changed, Added: added}
}

// SnapshotAll returns every current pair snapshot. The returned slice is
// a copy; callers may hold it without blocking the writer.
func (c *Cache) SnapshotAll() []domain.TradingPair {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.TradingPair, 0, len(c.pairs))
	for _, p := range c.pairs {
		out = append(out, p)
	}
	return out
}

// SnapshotFiltered returns the snapshots whose pair key appears in keys.
// An empty filter behaves exactly like SnapshotAll.
func (c *Cache) SnapshotFiltered(keys []string) []domain.TradingPair {
	if len(keys) == 0 {
		return c.SnapshotAll()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.TradingPair, 0, len(keys))
	for _, k := range keys {
		if p, ok := c.pairs[k]; ok {
			out = append(out, p)
		}
	}
	return out
}

// HasOrder reports whether the hash is currently pending.
func (c *Cache) HasOrder(hash string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.orders[hash]
	return ok
}

// PendingOrders returns the number of hashes currently pending.
func (c *Cache) PendingOrders() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}

// Pools returns the number of distinct pair keys currently cached.
func (c *Cache) Pools() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pairs)
}

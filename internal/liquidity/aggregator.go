package liquidity

import "github.com/swaprelay/swaprelay/internal/domain"

// OrderAggregator reduces decoded order batches against the pending set.
// It returns the full changed list so callers can render a capped preview
// with a remainder count.
type OrderAggregator struct {
	cache *Cache
}

// NewOrderAggregator creates an aggregator over the given cache.
func NewOrderAggregator(cache *Cache) *OrderAggregator {
	return &OrderAggregator{cache: cache}
}

// Apply folds the event into the pending set and reports which hashes
// actually changed state.
func (a *OrderAggregator) Apply(ev domain.OrderEvent) domain.OrderBatchResult {
	return a.cache.ApplyOrderBatch(ev.Hashes, ev.Added)
}

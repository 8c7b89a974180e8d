package liquidity

import (
	"context"
	"strings"
	"testing"

	"github.com/swaprelay/swaprelay/internal/domain"
	"github.com/swaprelay/swaprelay/internal/event"
)

// startListener runs a listener over a fresh fakeBus and waits until all
// its subscriptions are registered.
func startListener(t *testing.T, addrs []string, journal domain.JournalStore) (*fakeBus, *Cache, chan error, context.CancelFunc) {
	t.Helper()

	bus := newFakeBus()
	cache := NewCache(testLogger())
	decoder := event.NewDecoder(sessionTopics)
	l := NewListener(bus, decoder, cache, journal, addrs, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	eventually(t, func() bool {
		if bus.subscriberCount(sessionTopics.Liquidity) == 0 {
			return false
		}
		for _, addr := range addrs {
			if bus.subscriberCount(sessionTopics.OrderNew(addr)) == 0 ||
				bus.subscriberCount(sessionTopics.OrderSettled(addr)) == 0 {
				return false
			}
		}
		return true
	}, "listener never subscribed to all topics")

	return bus, cache, done, cancel
}

func TestListenerAppliesLiquidityEvents(t *testing.T) {
	bus, cache, _, _ := startListener(t, nil, nil)

	bus.Publish(context.Background(), sessionTopics.Liquidity, liquidityPayload("WETH", "USDC"))

	eventually(t, func() bool { return cache.Pools() == 1 }, "cache never updated")
	if got := cache.SnapshotFiltered([]string{"WETH:USDC"}); len(got) != 1 {
		t.Fatalf("expected WETH:USDC in cache, got %v", got)
	}
}

func TestListenerDropsBadPayloadAndKeepsGoing(t *testing.T) {
	bus, cache, _, _ := startListener(t, nil, nil)

	bus.Publish(context.Background(), sessionTopics.Liquidity, []byte("garbage"))
	bus.Publish(context.Background(), sessionTopics.Liquidity, liquidityPayload("WETH", "USDC"))

	eventually(t, func() bool { return cache.Pools() == 1 }, "listener stopped after bad payload")
}

func TestListenerSentinelIsNoOpForCache(t *testing.T) {
	bus, cache, _, _ := startListener(t, nil, nil)

	bus.Publish(context.Background(), sessionTopics.Liquidity, []byte("null"))
	bus.Publish(context.Background(), sessionTopics.Liquidity, liquidityPayload("WETH", "USDC"))

	// The shared listener keeps consuming past the sentinel.
	eventually(t, func() bool { return cache.Pools() == 1 }, "listener disconnected on sentinel")
}

func TestListenerTracksOrderBatches(t *testing.T) {
	addr := "0xfeed"
	bus, cache, _, _ := startListener(t, []string{addr}, nil)

	bus.Publish(context.Background(), sessionTopics.OrderNew(addr), []byte("0x1,0x2"))
	eventually(t, func() bool { return cache.PendingOrders() == 2 }, "orders not added")

	// Re-adding is idempotent.
	bus.Publish(context.Background(), sessionTopics.OrderNew(addr), []byte("0x1,0x2"))
	bus.Publish(context.Background(), sessionTopics.OrderSettled(addr), []byte("0x1"))
	eventually(t, func() bool { return !cache.HasOrder("0x1") }, "0x1 not settled")
	if !cache.HasOrder("0x2") {
		t.Error("0x2 should still be pending")
	}
}

func TestListenerJournalsAppliedEvents(t *testing.T) {
	journal := &fakeJournal{}
	bus, _, _, _ := startListener(t, nil, journal)

	bus.Publish(context.Background(), sessionTopics.Liquidity, liquidityPayload("WETH", "USDC"))

	eventually(t, func() bool { return journal.poolCount() == 1 }, "pool update not journaled")
}

func TestListenerBusLossIsFatal(t *testing.T) {
	bus, _, done, _ := startListener(t, nil, nil)

	bus.DropAll()

	err := <-done
	if err == nil || !strings.Contains(err.Error(), "bus connection lost") {
		t.Fatalf("error = %v, want bus connection lost", err)
	}
}

func TestListenerCancelStopsCleanly(t *testing.T) {
	_, _, done, cancel := startListener(t, []string{"0xfeed"}, nil)

	cancel()

	if err := <-done; err != context.Canceled {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestOrderSummaryPreviewCap(t *testing.T) {
	hashes := make([]string, 25)
	for i := range hashes {
		hashes[i] = "0xh"
	}

	s := orderSummary(domain.OrderBatchResult{Hashes: hashes, Added: true})
	if !strings.HasPrefix(s, "25 order(s) added:") {
		t.Errorf("summary = %q", s)
	}
	if !strings.Contains(s, "(5 more ...)") {
		t.Errorf("summary missing remainder: %q", s)
	}
	if strings.Count(s, "0xh") != orderPreviewMax {
		t.Errorf("preview lists %d hashes, want %d", strings.Count(s, "0xh"), orderPreviewMax)
	}
}

func TestOrderSummaryShortBatch(t *testing.T) {
	s := orderSummary(domain.OrderBatchResult{Hashes: []string{"0x1", "0x2"}, Added: false})
	if s != "2 order(s) removed: 0x1, 0x2" {
		t.Errorf("summary = %q", s)
	}
}

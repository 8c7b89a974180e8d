package liquidity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/swaprelay/swaprelay/internal/domain"
)

// fakeBus is an in-memory domain.SignalBus. Publish delivers to every
// subscriber of the channel; DropAll simulates losing the connection by
// closing every subscription channel.
type fakeBus struct {
	mu   sync.Mutex
	subs map[string][]chan []byte
}

func newFakeBus() *fakeBus {
	return &fakeBus{subs: make(map[string][]chan []byte)}
}

func (b *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[channel] {
		ch <- payload
	}
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 64)
	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()
	return ch, nil
}

func (b *fakeBus) subscriberCount(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

func (b *fakeBus) DropAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	b.subs = make(map[string][]chan []byte)
}

// fakeConn is a dedicated per-session connection over its own fakeBus.
type fakeConn struct {
	*fakeBus
	closed sync.Once
	done   chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{fakeBus: newFakeBus(), done: make(chan struct{})}
}

func (c *fakeConn) Close() error {
	c.closed.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// fakeDuplicator hands out fresh fakeConns and remembers them so tests
// can inject messages per session.
type fakeDuplicator struct {
	mu    sync.Mutex
	conns []*fakeConn
	fail  bool
}

func (d *fakeDuplicator) Duplicate(context.Context) (domain.BusConn, error) {
	if d.fail {
		return nil, errors.New("redis: duplicate: connection refused")
	}
	conn := newFakeConn()
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	return conn, nil
}

func (d *fakeDuplicator) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

// fakeSink records written pairs and can be told to fail.
type fakeSink struct {
	mu      sync.Mutex
	pairs   []domain.TradingPair
	failErr error
	wrote   chan struct{}
}

func newFakeSink() *fakeSink {
	return &fakeSink{wrote: make(chan struct{}, 64)}
}

func (s *fakeSink) WritePair(pair domain.TradingPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.pairs = append(s.pairs, pair)
	s.wrote <- struct{}{}
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pairs)
}

func (s *fakeSink) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.pairs))
	for _, p := range s.pairs {
		out = append(out, p.Key())
	}
	return out
}

// fakeJournal records appends in memory.
type fakeJournal struct {
	mu      sync.Mutex
	pools   []domain.TradingPair
	batches []domain.OrderBatchResult
}

func (j *fakeJournal) AppendPoolUpdate(_ context.Context, pair domain.TradingPair) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pools = append(j.pools, pair)
	return nil
}

func (j *fakeJournal) AppendOrderBatch(_ context.Context, result domain.OrderBatchResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.batches = append(j.batches, result)
	return nil
}

func (j *fakeJournal) poolCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.pools)
}

// testLogger returns a logger that discards nothing but stays quiet at
// debug level tests do not care about.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

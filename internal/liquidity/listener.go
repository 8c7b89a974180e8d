package liquidity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/swaprelay/swaprelay/internal/domain"
	"github.com/swaprelay/swaprelay/internal/event"
)

// orderPreviewMax caps how many changed hashes an order batch log line
// lists before collapsing the rest into a count.
const orderPreviewMax = 20

// Listener is the process-wide bus listener. It subscribes the shared bus
// connection to the liquidity topic and the per-address order topics,
// decodes every message, and applies the result to the cache. It is the
// only writer the cache ever sees.
//
// Decode and apply failures are contained: they are logged and the
// message is dropped. Loss of any subscription channel means the shared
// bus connection is gone, which is unrecoverable; Run returns an error
// and the process is expected to exit.
type Listener struct {
	bus     domain.SignalBus
	decoder *event.Decoder
	cache   *Cache
	agg     *OrderAggregator
	journal domain.JournalStore // nil disables journaling
	addrs   []string
	logger  *slog.Logger
}

// NewListener creates the process-wide listener. journal may be nil.
func NewListener(
	bus domain.SignalBus,
	decoder *event.Decoder,
	cache *Cache,
	journal domain.JournalStore,
	addrs []string,
	logger *slog.Logger,
) *Listener {
	return &Listener{
		bus:     bus,
		decoder: decoder,
		cache:   cache,
		agg:     NewOrderAggregator(cache),
		journal: journal,
		addrs:   addrs,
		logger:  logger.With(slog.String("component", "listener")),
	}
}

// Run subscribes to every observed topic and blocks until the context is
// cancelled or the bus connection is lost. A lost connection is returned
// as an error so the caller can terminate the process.
func (l *Listener) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	topics := l.decoder.Topics()

	g.Go(func() error {
		return l.runChannel(ctx, topics.Liquidity, l.handleLiquidity)
	})

	for _, addr := range l.addrs {
		for _, ch := range []string{topics.OrderNew(addr), topics.OrderSettled(addr)} {
			channel := ch
			g.Go(func() error {
				return l.runChannel(ctx, channel, func(ctx context.Context, payload []byte) {
					l.handleOrder(ctx, channel, payload)
				})
			})
		}
	}

	return g.Wait()
}

// runChannel pumps one subscription into a handler. The handler must not
// panic or block indefinitely; it owns error containment for its channel.
func (l *Listener) runChannel(ctx context.Context, channel string, handle func(context.Context, []byte)) error {
	msgs, err := l.bus.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("listener: subscribe %s: %w", channel, err)
	}

	l.logger.Info("listening", slog.String("channel", channel))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("listener: %s: bus connection lost", channel)
			}
			handle(ctx, payload)
		}
	}
}

// handleLiquidity decodes a pool update and applies it to the cache. The
// sentinel payload is a no-op here: only streaming sessions treat it as
// end of data, the cache keeps listening.
func (l *Listener) handleLiquidity(ctx context.Context, payload []byte) {
	ev, err := l.decoder.DecodeLiquidity(payload)
	if err != nil {
		l.logger.Warn("dropping undecodable liquidity event",
			slog.String("error", err.Error()),
		)
		return
	}
	if ev == nil {
		return
	}

	l.cache.ApplyLiquidity(ev.Pair)

	if l.journal != nil {
		if err := l.journal.AppendPoolUpdate(ctx, ev.Pair); err != nil {
			l.logger.Warn("journal append failed",
				slog.String("pool", ev.Pair.Key()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// handleOrder decodes an order batch, folds it into the pending set, and
// logs a capped summary of the hashes that changed state.
func (l *Listener) handleOrder(ctx context.Context, channel string, payload []byte) {
	ev, err := l.decoder.DecodeOrder(channel, payload)
	if err != nil {
		l.logger.Warn("dropping undecodable order event",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}

	result := l.agg.Apply(*ev)
	if len(result.Hashes) == 0 {
		return
	}

	l.logger.Info(orderSummary(result),
		slog.Int("count", len(result.Hashes)),
		slog.Bool("added", result.Added),
	)

	if l.journal != nil {
		if err := l.journal.AppendOrderBatch(ctx, result); err != nil {
			l.logger.Warn("journal append failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

// orderSummary renders the human-readable batch summary: up to
// orderPreviewMax hashes followed by a remainder count.
func orderSummary(result domain.OrderBatchResult) string {
	action := "removed"
	if result.Added {
		action = "added"
	}

	shown := result.Hashes
	if len(shown) > orderPreviewMax {
		shown = shown[:orderPreviewMax]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d order(s) %s: %s", len(result.Hashes), action, strings.Join(shown, ", "))
	if rest := len(result.Hashes) - len(shown); rest > 0 {
		fmt.Fprintf(&b, " (%d more ...)", rest)
	}
	return b.String()
}

package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/swaprelay/swaprelay/internal/domain"
)

// SignalBus implements domain.SignalBus using Redis Pub/Sub.
type SignalBus struct {
	rdb *redis.Client
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.Underlying()}
}

// Publish sends a raw byte payload to a Redis Pub/Sub channel.
func (sb *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := sb.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe creates a Redis Pub/Sub subscription and returns a read-only
// channel that emits raw byte payloads. The subscription is closed when
// the context is cancelled; the returned channel is closed at that point
// as well, or earlier if the underlying connection drops.
func (sb *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	var pubsub *redis.PubSub
	if hasPattern(channel) {
		pubsub = sb.rdb.PSubscribe(ctx, channel)
	} else {
		pubsub = sb.rdb.Subscribe(ctx, channel)
	}

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// hasPattern returns true when the Redis channel includes glob-style
// wildcards, in which case PSubscribe must be used instead of Subscribe.
func hasPattern(channel string) bool {
	return strings.ContainsAny(channel, "*?[")
}

// Conn is a SignalBus over a dedicated Redis connection. Closing it
// releases the connection without touching the shared client.
type Conn struct {
	*SignalBus
	client *Client
}

// Close releases the dedicated connection.
func (c *Conn) Close() error {
	return c.client.Close()
}

// Duplicator implements domain.BusDuplicator on top of the shared Client.
// Every Duplicate call dials a fresh connection, mirroring the upstream
// convention that each streaming subscriber owns its own bus connection.
type Duplicator struct {
	shared *Client
}

// NewDuplicator creates a Duplicator that clones the given shared client.
func NewDuplicator(shared *Client) *Duplicator {
	return &Duplicator{shared: shared}
}

// Duplicate dials an independent connection and wraps it as a BusConn.
func (d *Duplicator) Duplicate(ctx context.Context) (domain.BusConn, error) {
	dup, err := d.shared.Duplicate(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{SignalBus: NewSignalBus(dup), client: dup}, nil
}

// Compile-time interface checks.
var (
	_ domain.SignalBus     = (*SignalBus)(nil)
	_ domain.BusConn       = (*Conn)(nil)
	_ domain.BusDuplicator = (*Duplicator)(nil)
)

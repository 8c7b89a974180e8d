// Package event translates raw bus payloads into typed domain events.
// Decoding is pure: it never touches the cache or the bus.
package event

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/swaprelay/swaprelay/internal/domain"
)

// Topics names the bus channels the relay observes.
type Topics struct {
	// Liquidity is the channel carrying pool update documents.
	Liquidity string

	// OrderPrefix is the leading segment of the per-address order
	// channels, e.g. "orders" for "orders:new:<addr>".
	OrderPrefix string
}

// OrderNew returns the channel carrying newly pending orders for addr.
func (t Topics) OrderNew(addr string) string {
	return t.OrderPrefix + ":new:" + addr
}

// OrderSettled returns the channel carrying settled orders for addr.
func (t Topics) OrderSettled(addr string) string {
	return t.OrderPrefix + ":settled:" + addr
}

// Decoder parses raw bus messages into domain events.
type Decoder struct {
	topics Topics
}

// NewDecoder creates a Decoder for the given topic layout.
func NewDecoder(topics Topics) *Decoder {
	return &Decoder{topics: topics}
}

// Topics returns the topic layout the decoder was built with.
func (d *Decoder) Topics() Topics {
	return d.topics
}

// liquidityDoc is the wire shape of a pool update.
type liquidityDoc struct {
	A domain.Token `json:"a"`
	B domain.Token `json:"b"`
}

// DecodeLiquidity parses a pool update payload. It returns (nil, nil) for
// the end-of-stream sentinel (empty or "null" payload), which tells the
// caller to stop listening. Payloads that cannot be resolved into a full
// pair yield an error wrapping domain.ErrDecode; such events are dropped
// by callers, never retried.
func (d *Decoder) DecodeLiquidity(payload []byte) (*domain.LiquidityEvent, error) {
	body := strings.TrimSpace(string(payload))
	if body == "" || body == "null" {
		return nil, nil
	}

	var doc liquidityDoc
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: liquidity payload: %v", domain.ErrDecode, err)
	}
	if doc.A.Name == "" || doc.B.Name == "" {
		return nil, fmt.Errorf("%w: liquidity payload names unknown token", domain.ErrDecode)
	}
	if doc.A.Amount == nil || doc.B.Amount == nil {
		return nil, fmt.Errorf("%w: liquidity payload missing reserve amount", domain.ErrDecode)
	}

	return &domain.LiquidityEvent{
		Pair: domain.TradingPair{A: doc.A, B: doc.B},
	}, nil
}

// DecodeOrder parses an order batch payload arriving on one of the
// per-address channels. The payload is a comma-joined hash list; upstream
// publishers may additionally append a ":<address>" source suffix, which
// is stripped. Whether the batch is an add or a remove is determined by
// the channel the message arrived on.
func (d *Decoder) DecodeOrder(channel string, payload []byte) (*domain.OrderEvent, error) {
	addr, added, err := d.splitOrderChannel(channel)
	if err != nil {
		return nil, err
	}

	body := strings.TrimSpace(string(payload))
	body = strings.TrimSuffix(body, ":"+addr)

	var hashes []string
	for _, h := range strings.Split(body, ",") {
		h = strings.TrimSpace(h)
		if h != "" {
			hashes = append(hashes, h)
		}
	}
	if len(hashes) == 0 {
		return nil, fmt.Errorf("%w: order payload carries no hashes", domain.ErrDecode)
	}

	return &domain.OrderEvent{Hashes: hashes, Added: added}, nil
}

// splitOrderChannel extracts the upstream address and the add/remove
// classification from an order channel name.
func (d *Decoder) splitOrderChannel(channel string) (addr string, added bool, err error) {
	rest, ok := strings.CutPrefix(channel, d.topics.OrderPrefix+":")
	if !ok {
		return "", false, fmt.Errorf("%w: channel %q is not an order topic", domain.ErrDecode, channel)
	}

	kind, addr, ok := strings.Cut(rest, ":")
	if !ok || addr == "" {
		return "", false, fmt.Errorf("%w: order channel %q has no address", domain.ErrDecode, channel)
	}

	switch kind {
	case "new":
		return addr, true, nil
	case "settled":
		return addr, false, nil
	default:
		return "", false, fmt.Errorf("%w: order channel %q has unknown kind %q", domain.ErrDecode, channel, kind)
	}
}

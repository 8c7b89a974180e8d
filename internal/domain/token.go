// Package domain holds the core types and interfaces shared across the
// swaprelay service: tokens, trading pairs, decoded bus events, and the
// signal bus contracts implemented by the Redis layer.
package domain

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token identifies one side of a trading pair. Amount is the current
// reserve expressed as an arbitrary-precision integer; it must never pass
// through a float.
type Token struct {
	Name    string
	Address string
	Amount  *big.Int
}

// tokenJSON is the wire representation of a Token. Amount travels as a
// decimal string so precision survives JSON round-trips.
type tokenJSON struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Amount  string `json:"amount"`
}

// MarshalJSON encodes the token with its amount as a decimal string.
func (t Token) MarshalJSON() ([]byte, error) {
	amount := ""
	if t.Amount != nil {
		amount = t.Amount.String()
	}
	return json.Marshal(tokenJSON{
		Name:    t.Name,
		Address: t.Address,
		Amount:  amount,
	})
}

// UnmarshalJSON decodes the token, parsing the amount string into a
// big.Int. A missing or malformed amount leaves Amount nil so validation
// can reject it downstream.
func (t *Token) UnmarshalJSON(data []byte) error {
	var raw tokenJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Name = raw.Name
	t.Address = raw.Address
	t.Amount = nil
	if raw.Amount != "" {
		n, ok := new(big.Int).SetString(raw.Amount, 10)
		if !ok {
			return fmt.Errorf("domain: token %q: invalid amount %q", raw.Name, raw.Amount)
		}
		t.Amount = n
	}
	return nil
}

// Valid reports whether the token carries enough information to take part
// in a swap. strict additionally requires a strictly positive amount,
// which is enforced for the buy side of a pair. A non-empty address must
// be a well-formed hex chain address.
func (t Token) Valid(strict bool) bool {
	if t.Name == "" || t.Amount == nil {
		return false
	}
	if strict && t.Amount.Sign() <= 0 {
		return false
	}
	if t.Address != "" && !common.IsHexAddress(t.Address) {
		return false
	}
	return true
}

// TradingPair is an immutable snapshot of the reserves for an ordered
// token pair. Updates replace the whole value, never merge fields.
type TradingPair struct {
	A Token `json:"a"`
	B Token `json:"b"`
}

// Key returns the cache key for the pair in its stored order.
func (p TradingPair) Key() string {
	return PairKey(p.A, p.B)
}

// PairKey derives the cache identity for an ordered token pair. The key is
// deliberately order-dependent: PairKey(a, b) and PairKey(b, a) name two
// distinct cache entries, matching how upstream publishes pool updates.
func PairKey(a, b Token) string {
	return a.Name + ":" + b.Name
}

package domain

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestPairKeyIsOrderDependent(t *testing.T) {
	a := Token{Name: "WETH"}
	b := Token{Name: "USDC"}

	if got := PairKey(a, b); got != "WETH:USDC" {
		t.Fatalf("PairKey(a, b) = %q, want %q", got, "WETH:USDC")
	}
	if PairKey(a, b) == PairKey(b, a) {
		t.Fatalf("PairKey must not unify (a,b) and (b,a): both %q", PairKey(a, b))
	}
}

func TestTokenJSONPreservesPrecision(t *testing.T) {
	// 2^128 does not fit in a float64 mantissa; a lossy decode would
	// round it.
	amount, _ := new(big.Int).SetString("340282366920938463463374607431768211456", 10)
	in := Token{Name: "WETH", Address: "0x00000000219ab540356cBB839Cbe05303d7705Fa", Amount: amount}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Token
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Amount == nil || out.Amount.Cmp(amount) != 0 {
		t.Fatalf("amount changed through JSON: got %v, want %v", out.Amount, amount)
	}
}

func TestTokenUnmarshalRejectsBadAmount(t *testing.T) {
	var tok Token
	err := json.Unmarshal([]byte(`{"name":"WETH","amount":"12.5"}`), &tok)
	if err == nil {
		t.Fatal("expected error for non-integer amount")
	}
}

func TestTokenValid(t *testing.T) {
	tests := []struct {
		name   string
		token  Token
		strict bool
		want   bool
	}{
		{"complete token", Token{Name: "WETH", Amount: big.NewInt(1)}, false, true},
		{"empty name", Token{Name: "", Amount: big.NewInt(5)}, false, false},
		{"nil amount", Token{Name: "WETH"}, false, false},
		{"zero amount relaxed", Token{Name: "WETH", Amount: big.NewInt(0)}, false, true},
		{"zero amount strict", Token{Name: "WETH", Amount: big.NewInt(0)}, true, false},
		{"negative amount strict", Token{Name: "WETH", Amount: big.NewInt(-3)}, true, false},
		{"positive amount strict", Token{Name: "WETH", Amount: big.NewInt(3)}, true, true},
		{"valid hex address", Token{Name: "WETH", Address: "0x00000000219ab540356cBB839Cbe05303d7705Fa", Amount: big.NewInt(1)}, false, true},
		{"malformed address", Token{Name: "WETH", Address: "not-an-address", Amount: big.NewInt(1)}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.Valid(tt.strict); got != tt.want {
				t.Errorf("Valid(%v) = %v, want %v", tt.strict, got, tt.want)
			}
		})
	}
}

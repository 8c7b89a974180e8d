package liquidity

import (
	"math/big"
	"testing"

	"github.com/swaprelay/swaprelay/internal/domain"
)

func pair(aName, bName string, aAmt, bAmt int64) domain.TradingPair {
	return domain.TradingPair{
		A: domain.Token{Name: aName, Amount: big.NewInt(aAmt)},
		B: domain.Token{Name: bName, Amount: big.NewInt(bAmt)},
	}
}

func TestApplyLiquidityLastWriteWins(t *testing.T) {
	c := NewCache(testLogger())

	c.ApplyLiquidity(pair("WETH", "USDC", 100, 200))
	c.ApplyLiquidity(pair("WETH", "USDC", 150, 130))

	all := c.SnapshotAll()
	if len(all) != 1 {
		t.Fatalf("snapshot has %d entries, want 1", len(all))
	}
	if all[0].A.Amount.Cmp(big.NewInt(150)) != 0 {
		t.Errorf("entry not replaced: reserve a = %v, want 150", all[0].A.Amount)
	}
}

func TestApplyLiquidityKeepsOrderedPairsDistinct(t *testing.T) {
	c := NewCache(testLogger())

	c.ApplyLiquidity(pair("WETH", "USDC", 1, 2))
	c.ApplyLiquidity(pair("USDC", "WETH", 3, 4))

	if got := c.Pools(); got != 2 {
		t.Fatalf("pools = %d, want 2: (a,b) and (b,a) are distinct keys", got)
	}
}

func TestApplyOrderBatch(t *testing.T) {
	c := NewCache(testLogger())

	res := c.ApplyOrderBatch([]string{"0x1", "0x2"}, true)
	if len(res.Hashes) != 2 || !res.Added {
		t.Fatalf("first add changed %v, want both", res.Hashes)
	}

	// Idempotent add: nothing changes the second time.
	res = c.ApplyOrderBatch([]string{"0x1", "0x2"}, true)
	if len(res.Hashes) != 0 {
		t.Errorf("re-add changed %v, want none", res.Hashes)
	}

	// Mixed batch: only the new hash counts.
	res = c.ApplyOrderBatch([]string{"0x2", "0x3"}, true)
	if len(res.Hashes) != 1 || res.Hashes[0] != "0x3" {
		t.Errorf("mixed add changed %v, want [0x3]", res.Hashes)
	}

	// Remove of an absent member is a no-op.
	res = c.ApplyOrderBatch([]string{"0x9"}, false)
	if len(res.Hashes) != 0 {
		t.Errorf("absent remove changed %v, want none", res.Hashes)
	}

	res = c.ApplyOrderBatch([]string{"0x1", "0x9"}, false)
	if len(res.Hashes) != 1 || res.Hashes[0] != "0x1" {
		t.Errorf("remove changed %v, want [0x1]", res.Hashes)
	}
	if c.HasOrder("0x1") {
		t.Error("0x1 still pending after remove")
	}
	if !c.HasOrder("0x3") {
		t.Error("0x3 should still be pending")
	}
}

func TestSnapshotFiltered(t *testing.T) {
	c := NewCache(testLogger())
	c.ApplyLiquidity(pair("WETH", "USDC", 1, 2))
	c.ApplyLiquidity(pair("WBTC", "USDC", 3, 4))
	c.ApplyLiquidity(pair("DAI", "USDT", 5, 6))

	tests := []struct {
		name string
		keys []string
		want int
	}{
		{"empty filter returns everything", nil, 3},
		{"single key", []string{"WETH:USDC"}, 1},
		{"two keys", []string{"WETH:USDC", "DAI:USDT"}, 2},
		{"unknown key", []string{"FOO:BAR"}, 0},
		{"reversed key misses", []string{"USDC:WETH"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.SnapshotFiltered(tt.keys)
			if len(got) != tt.want {
				t.Errorf("filtered snapshot has %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewCache(testLogger())
	c.ApplyLiquidity(pair("WETH", "USDC", 1, 2))

	snap := c.SnapshotAll()
	c.ApplyLiquidity(pair("WETH", "USDC", 99, 99))

	if snap[0].A.Amount.Cmp(big.NewInt(1)) != 0 {
		t.Error("snapshot mutated by later writes")
	}
}

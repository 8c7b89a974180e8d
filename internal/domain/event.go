package domain

// LiquidityEvent is a decoded pool update: the full replacement snapshot
// for one trading pair.
type LiquidityEvent struct {
	Pair TradingPair
}

// OrderEvent is a decoded batch of order identifiers observed on one of
// the per-address order topics. Added distinguishes newly pending orders
// from settled ones.
type OrderEvent struct {
	Hashes []string
	Added  bool
}

// OrderBatchResult reports which hashes actually changed membership in
// the pending set after an OrderEvent was applied. No-op adds and removes
// are excluded.
type OrderBatchResult struct {
	Hashes []string
	Added  bool
}

// TxStatus is the lifecycle state reported for an order hash.
type TxStatus string

const (
	// TxStatusInvalid is returned when the caller supplied no hash.
	TxStatusInvalid TxStatus = "INVALID"

	// TxStatusPendingBatching means the hash is in the pending set and
	// waiting to be batched for settlement.
	TxStatusPendingBatching TxStatus = "PENDING_BATCHING"

	// TxStatusNotFound is the terminal status for hashes the service has
	// never observed or that have already settled.
	TxStatusNotFound TxStatus = "NOT_FOUND"
)

package domain

import "time"

// StockEntryKind classifies an entry in the consumable stock ledger
type StockEntryKind string

const (
	// StockRestock explicit replenishment of standing stock
	StockRestock StockEntryKind = "restock"

	// StockConsume stock drawn down by an allocation
	StockConsume StockEntryKind = "consume"

	// StockRelease stock returned when an allocation is removed
	StockRelease StockEntryKind = "release"
)

// StockEntry is one row of the append-only consumable stock ledger
//
// The ledger is never updated or deleted; corrections are opposite-sign
// entries. Balance is always derived by summing deltas up to a point in
// time, so the release policy can change without rewriting history
type StockEntry struct {
	ID         int64
	ResourceID int64

	// EventID links consume/release entries to the booking that caused them
	EventID *int64

	// Delta positive for restock/release, negative for consume
	Delta int

	Kind       StockEntryKind
	Note       *string
	RecordedAt time.Time
}

// internal/core/domain/movement.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MovementKind classifies a stock movement journal entry
type MovementKind string

// Movement kinds. Commit entries carry a zero delta: the numeric effect of a
// reservation happens at reserve time, the commit only marks it final.
const (
	MovementReserve MovementKind = "reserve"
	MovementRelease MovementKind = "release"
	MovementCommit  MovementKind = "commit"
	MovementRestock MovementKind = "restock"
)

// StockMovement is an append-only journal entry for a ledger operation.
// The sum of deltas for a part always equals its stock drift from the
// initial count.
type StockMovement struct {
	ID        uuid.UUID    `json:"id"`
	PartID    uuid.UUID    `json:"part_id"`
	Kind      MovementKind `json:"kind"`
	Quantity  int          `json:"quantity"`
	Delta     int          `json:"delta"`
	Reference string       `json:"reference,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewStockMovement builds a journal entry with an assigned id and timestamp.
func NewStockMovement(partID uuid.UUID, kind MovementKind, qty, delta int, ref string) *StockMovement {
	return &StockMovement{
		ID:        uuid.New(),
		PartID:    partID,
		Kind:      kind,
		Quantity:  qty,
		Delta:     delta,
		Reference: ref,
		CreatedAt: time.Now(),
	}
}

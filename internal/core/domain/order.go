// internal/core/domain/order.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderState represents a repair order's lifecycle state
type OrderState string

// Lifecycle states. Delivered and cancelled are terminal.
const (
	StatePending    OrderState = "pending"
	StateInProgress OrderState = "in_progress"
	StateReady      OrderState = "ready"
	StateDelivered  OrderState = "delivered"
	StateCancelled  OrderState = "cancelled"
)

// Valid reports whether s is a known state.
func (s OrderState) Valid() bool {
	switch s {
	case StatePending, StateInProgress, StateReady, StateDelivered, StateCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s OrderState) Terminal() bool {
	return s == StateDelivered || s == StateCancelled
}

// CanTransitionTo reports whether the state machine permits s -> to. No
// skipping states, no moving backward, no mutating a terminal order.
func (s OrderState) CanTransitionTo(to OrderState) bool {
	switch s {
	case StatePending:
		return to == StateInProgress || to == StateCancelled
	case StateInProgress:
		return to == StateReady || to == StateCancelled
	case StateReady:
		return to == StateDelivered
	}
	return false
}

// PartUsage records one part claimed by a repair order. UnitPrice is
// snapshotted when the ledger reserves the part and is immune to later
// catalog price changes.
type PartUsage struct {
	PartID    uuid.UUID       `json:"part_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price_at_reservation"`
}

// RepairOrder represents a device repair advancing through the lifecycle.
// Total stays nil until the first transition, is recomputed at every
// transition up to ready, then frozen.
type RepairOrder struct {
	ID            uuid.UUID        `json:"id"`
	DeviceID      uuid.UUID        `json:"device_id"`
	State         OrderState       `json:"state"`
	Description   string           `json:"description,omitempty"`
	PartUsages    []PartUsage      `json:"part_usages"`
	FixedCost     decimal.Decimal  `json:"fixed_cost"`
	MarginPercent decimal.Decimal  `json:"margin_percent"`
	Total         *decimal.Decimal `json:"total,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	EstimatedAt   *time.Time       `json:"estimated_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Validate performs domain validation on the order's mutable fields
func (o *RepairOrder) Validate() error {
	if o.DeviceID == uuid.Nil {
		return NewValidationError("device_id", "is required")
	}
	if o.FixedCost.IsNegative() {
		return NewValidationError("fixed_cost", "cannot be negative")
	}
	if o.MarginPercent.IsNegative() {
		return NewValidationError("margin_percent", "cannot be negative")
	}
	seen := make(map[uuid.UUID]struct{}, len(o.PartUsages))
	for _, u := range o.PartUsages {
		if u.PartID == uuid.Nil {
			return NewValidationError("part_usages", "part id is required")
		}
		if u.Quantity <= 0 {
			return NewValidationError("part_usages", "quantity must be positive")
		}
		if _, dup := seen[u.PartID]; dup {
			return NewValidationError("part_usages", "duplicate part %s", u.PartID)
		}
		seen[u.PartID] = struct{}{}
	}
	return nil
}

// PrepareForStorage assigns an id, the initial state and timestamps
func (o *RepairOrder) PrepareForStorage() {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.State == "" {
		o.State = StatePending
	}
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
}

// VariableCost sums the reserved part usages at their snapshot prices.
func (o *RepairOrder) VariableCost() decimal.Decimal {
	total := decimal.Zero
	for _, u := range o.PartUsages {
		total = total.Add(u.UnitPrice.Mul(decimal.NewFromInt(int64(u.Quantity))))
	}
	return total
}

// PartIDs returns the distinct part ids referenced by the order's usages.
func (o *RepairOrder) PartIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.PartUsages))
	seen := make(map[uuid.UUID]struct{}, len(o.PartUsages))
	for _, u := range o.PartUsages {
		if _, ok := seen[u.PartID]; ok {
			continue
		}
		seen[u.PartID] = struct{}{}
		ids = append(ids, u.PartID)
	}
	return ids
}

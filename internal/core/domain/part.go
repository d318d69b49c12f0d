// internal/core/domain/part.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartCategory represents spare part categories
type PartCategory string

// Category constants
const (
	CategoryScreens    PartCategory = "screens"
	CategoryBatteries  PartCategory = "batteries"
	CategoryConnectors PartCategory = "connectors"
	CategoryBoards     PartCategory = "boards"
	CategoryCameras    PartCategory = "cameras"
	CategorySpeakers   PartCategory = "speakers"
	CategoryHousings   PartCategory = "housings"
	CategoryOther      PartCategory = "other"
)

// DefaultLowStockThreshold matches the shop's reorder alert level.
const DefaultLowStockThreshold = 5

// Part represents a spare part tracked by the inventory ledger. Stock is
// mutated only through ledger operations, never assigned directly by callers.
type Part struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Category   PartCategory    `json:"category"`
	Stock      int             `json:"stock"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	SupplierID uuid.UUID       `json:"supplier_id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Validate performs domain validation on the part
func (p *Part) Validate() error {
	if p.Name == "" {
		return NewValidationError("name", "is required")
	}
	if p.Stock < 0 {
		return NewValidationError("stock", "cannot be negative")
	}
	if p.UnitPrice.IsNegative() {
		return NewValidationError("unit_price", "cannot be negative")
	}
	if p.Category == "" {
		p.Category = CategoryOther
	}
	return nil
}

// PrepareForStorage assigns an id and timestamps before first persistence
func (p *Part) PrepareForStorage() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// IsLowStock reports whether the part is at or below the alert threshold.
func (p *Part) IsLowStock(threshold int) bool {
	return p.Stock <= threshold
}

// internal/core/domain/invoice.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLine is a single supplier invoice line item
type InvoiceLine struct {
	PartID    uuid.UUID       `json:"part_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns quantity * unit price for the line.
func (l InvoiceLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Invoice represents a supplier invoice. Created once, immutable thereafter;
// its declared total must equal the sum of its line items.
type Invoice struct {
	ID         uuid.UUID       `json:"id"`
	SupplierID uuid.UUID       `json:"supplier_id"`
	Number     string          `json:"number"`
	Date       time.Time       `json:"date"`
	LineItems  []InvoiceLine   `json:"line_items"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Validate performs domain validation on the invoice
func (i *Invoice) Validate() error {
	if i.SupplierID == uuid.Nil {
		return NewValidationError("supplier_id", "is required")
	}
	if i.Number == "" {
		return NewValidationError("number", "is required")
	}
	if len(i.LineItems) == 0 {
		return NewValidationError("line_items", "cannot be empty")
	}
	for _, l := range i.LineItems {
		if l.PartID == uuid.Nil {
			return NewValidationError("line_items", "part id is required")
		}
		if l.Quantity <= 0 {
			return NewValidationError("line_items", "quantity must be positive")
		}
		if l.UnitPrice.IsNegative() {
			return NewValidationError("line_items", "unit price cannot be negative")
		}
	}
	if !i.Total.Equal(i.LineSum()) {
		return NewValidationError("total",
			"declared total %s does not match line items %s", i.Total, i.LineSum())
	}
	return nil
}

// LineSum computes the invoice total from its line items, rounded to two
// decimal places with banker's rounding.
func (i *Invoice) LineSum() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range i.LineItems {
		sum = sum.Add(l.Subtotal())
	}
	return sum.RoundBank(2)
}

// PrepareForStorage assigns an id and timestamps before persistence
func (i *Invoice) PrepareForStorage() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	if i.Date.IsZero() {
		i.Date = i.CreatedAt
	}
}

// PartIDs returns the distinct part ids referenced by the line items.
func (i *Invoice) PartIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(i.LineItems))
	seen := make(map[uuid.UUID]struct{}, len(i.LineItems))
	for _, l := range i.LineItems {
		if _, ok := seen[l.PartID]; ok {
			continue
		}
		seen[l.PartID] = struct{}{}
		ids = append(ids, l.PartID)
	}
	return ids
}

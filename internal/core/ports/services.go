// internal/core/ports/services.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ngiletta/taller-be/internal/core/domain"
)

// Ledger is the single authority over part stock counts. All four mutation
// operations are single-item and atomic; multi-item sequences run inside a
// WithItems lock scope coordinated by the caller.
type Ledger interface {
	// Reserve decrements available stock and returns the part snapshot taken
	// at reservation time (callers capture its unit price).
	Reserve(ctx context.Context, itemID uuid.UUID, qty int, ref string) (*domain.Part, error)
	// Release undoes a reservation. It never fails for insufficient stock.
	Release(ctx context.Context, itemID uuid.UUID, qty int, ref string) error
	// Commit marks a reservation's consumption as final. No stock effect.
	Commit(ctx context.Context, itemID uuid.UUID, qty int, ref string) error
	// Restock increments stock on invoice receipt.
	Restock(ctx context.Context, itemID uuid.UUID, qty int, ref string) error
	// WithItems acquires exclusive locks for all ids in ascending order, runs
	// fn, then releases. Ledger calls made with fn's context skip
	// re-acquisition. Contention surfaces as a retryable conflict.
	WithItems(ctx context.Context, ids []uuid.UUID, fn func(ctx context.Context) error) error
	GetItem(ctx context.Context, itemID uuid.UUID) (*domain.Part, error)
	ListLowStock(ctx context.Context, threshold int) ([]domain.Part, error)
	// SaveItem creates or updates a part's catalog fields. Stock is set only
	// on first insert; later saves never touch the count.
	SaveItem(ctx context.Context, part *domain.Part) error
	ListItems(ctx context.Context, params PartListParams) (*PartListResult, error)
	ListMovements(ctx context.Context, itemID uuid.UUID, limit int) ([]domain.StockMovement, error)
}

// OrderPartParams names a part and quantity requested for an order. The
// reservation-time unit price is filled in by the lifecycle manager.
type OrderPartParams struct {
	PartID   uuid.UUID `json:"part_id"`
	Quantity int       `json:"quantity"`
}

// CreateOrderParams holds input for creating a repair order
type CreateOrderParams struct {
	DeviceID      uuid.UUID         `json:"device_id"`
	Description   string            `json:"description"`
	PartUsages    []OrderPartParams `json:"part_usages"`
	FixedCost     decimal.Decimal   `json:"fixed_cost"`
	MarginPercent decimal.Decimal   `json:"margin_percent"`
	EstimatedAt   *time.Time        `json:"estimated_at,omitempty"`
	Notes         string            `json:"notes,omitempty"`
}

// OrderDraftUpdate carries the fields mutable while an order is pending.
// Nil fields are left unchanged.
type OrderDraftUpdate struct {
	PartUsages    *[]OrderPartParams `json:"part_usages,omitempty"`
	FixedCost     *decimal.Decimal   `json:"fixed_cost,omitempty"`
	MarginPercent *decimal.Decimal   `json:"margin_percent,omitempty"`
	Description   *string            `json:"description,omitempty"`
	Notes         *string            `json:"notes,omitempty"`
}

// OrderService owns the repair order state machine.
type OrderService interface {
	Create(ctx context.Context, params CreateOrderParams) (*domain.RepairOrder, error)
	Transition(ctx context.Context, id uuid.UUID, target domain.OrderState) (*domain.RepairOrder, error)
	UpdateDraft(ctx context.Context, id uuid.UUID, update OrderDraftUpdate) (*domain.RepairOrder, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.RepairOrder, error)
	List(ctx context.Context, state *domain.OrderState) ([]domain.RepairOrder, error)
}

// CreateInvoiceParams holds input for supplier invoice reconciliation
type CreateInvoiceParams struct {
	SupplierID    uuid.UUID            `json:"supplier_id"`
	Number        string               `json:"number"`
	Date          time.Time            `json:"date"`
	LineItems     []domain.InvoiceLine `json:"line_items"`
	DeclaredTotal decimal.Decimal      `json:"declared_total"`
}

// InvoiceService validates supplier invoices and applies matching restocks.
type InvoiceService interface {
	Create(ctx context.Context, params CreateInvoiceParams) (*domain.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context) ([]domain.Invoice, error)
}

// internal/core/ports/order_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ngiletta/taller-be/internal/core/domain"
)

// OrderRepository defines the persistence port for repair orders.
type OrderRepository interface {
	Save(ctx context.Context, order *domain.RepairOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.RepairOrder, error)
	// List returns orders newest first, optionally filtered by state.
	List(ctx context.Context, state *domain.OrderState) ([]domain.RepairOrder, error)
	CountByState(ctx context.Context) (map[domain.OrderState]int64, error)
}

// InvoiceRepository defines the persistence port for supplier invoices.
// Invoices are insert-only; there is no update path.
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *domain.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context) ([]domain.Invoice, error)
}

// ImportJobRepository tracks asynchronous invoice PDF imports.
type ImportJobRepository interface {
	Save(ctx context.Context, job *domain.ImportJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error)
}

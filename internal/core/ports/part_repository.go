// internal/core/ports/part_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ngiletta/taller-be/internal/core/domain"
)

// PartListParams holds parameters for listing parts
type PartListParams struct {
	Search     string
	Category   string
	SupplierID string
	SortBy     string
	SortOrder  string
	Page       int
	PageSize   int
}

// PartListResult holds the result of listing parts
type PartListResult struct {
	Items      []*domain.Part `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalCount int64          `json:"total_count"`
	TotalPages int            `json:"total_pages"`
}

// PartRepository defines the persistence port for spare parts.
// This interface is implemented by the database adapter.
type PartRepository interface {
	Save(ctx context.Context, part *domain.Part) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Part, error)
	// AdjustStock applies a signed stock delta atomically and returns the new
	// stock count. The guard `stock + delta >= 0` is enforced in the store.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error)
	List(ctx context.Context, params PartListParams) (*PartListResult, error)
	ListLowStock(ctx context.Context, threshold int) ([]domain.Part, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// MovementRepository persists the append-only stock movement journal.
type MovementRepository interface {
	Record(ctx context.Context, m *domain.StockMovement) error
	ListByPart(ctx context.Context, partID uuid.UUID, limit int) ([]domain.StockMovement, error)
}

// internal/adapters/db/part_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// partRepository implements ports.PartRepository
type partRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewPartRepository creates a new spare part repository
func NewPartRepository(db *Database, logger *slog.Logger) ports.PartRepository {
	return &partRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "parts")),
	}
}

const partColumns = `id, name, category, stock, unit_price, supplier_id, created_at, updated_at`

// Save creates or updates a part. Stock is written only on first insert;
// existing rows keep their count so that ledger adjustments are never
// clobbered by catalog edits.
func (r *partRepository) Save(ctx context.Context, part *domain.Part) error {
	query := `
		INSERT INTO parts (id, name, category, stock, unit_price, supplier_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			unit_price = EXCLUDED.unit_price,
			supplier_id = EXCLUDED.supplier_id,
			updated_at = EXCLUDED.updated_at
		RETURNING stock, created_at`

	supplierID := uuid.NullUUID{UUID: part.SupplierID, Valid: part.SupplierID != uuid.Nil}

	err := r.db.QueryRow(ctx, query,
		part.ID, part.Name, part.Category, part.Stock, part.UnitPrice,
		supplierID, part.CreatedAt, part.UpdatedAt,
	).Scan(&part.Stock, &part.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save part: %w", err)
	}

	r.logger.DebugContext(ctx, "part saved",
		slog.String("part_id", part.ID.String()),
		slog.String("name", part.Name))

	return nil
}

// FindByID retrieves a part by id. Returns nil when no row exists.
func (r *partRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Part, error) {
	query := `SELECT ` + partColumns + ` FROM parts WHERE id = $1`

	part, err := scanPart(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find part: %w", err)
	}

	return part, nil
}

// AdjustStock applies a signed delta atomically. The WHERE guard makes the
// no-negative-stock invariant hold even if two writers race past the
// service-level lock.
func (r *partRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	query := `
		UPDATE parts
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING stock`

	var newStock int
	err := r.db.QueryRow(ctx, query, id, delta).Scan(&newStock)
	if err != nil {
		if err == pgx.ErrNoRows {
			exists, exErr := r.Exists(ctx, id)
			if exErr != nil {
				return 0, fmt.Errorf("failed to adjust stock: %w", exErr)
			}
			if !exists {
				return 0, fmt.Errorf("part not found: %s", id)
			}
			return 0, fmt.Errorf("stock adjustment %+d would drive part %s negative", delta, id)
		}
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	r.logger.DebugContext(ctx, "stock adjusted",
		slog.String("part_id", id.String()),
		slog.Int("delta", delta),
		slog.Int("stock", newStock))

	return newStock, nil
}

// List retrieves parts with filtering, sorting and pagination
func (r *partRepository) List(ctx context.Context, params ports.PartListParams) (*ports.PartListResult, error) {
	applyFilters := func(b squirrel.SelectBuilder) squirrel.SelectBuilder {
		if params.Search != "" {
			b = b.Where("name ILIKE ?", "%"+params.Search+"%")
		}
		if params.Category != "" {
			b = b.Where(squirrel.Eq{"category": params.Category})
		}
		if params.SupplierID != "" {
			b = b.Where(squirrel.Eq{"supplier_id": params.SupplierID})
		}
		return b
	}

	qb := applyFilters(squirrel.Select(
		"id", "name", "category", "stock", "unit_price",
		"supplier_id", "created_at", "updated_at",
	).From("parts").
		PlaceholderFormat(squirrel.Dollar))

	// Count total items (before pagination)
	countSQL, countArgs, err := applyFilters(
		squirrel.Select("COUNT(*)").From("parts").PlaceholderFormat(squirrel.Dollar),
	).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count parts: %w", err)
	}

	// Apply sorting
	orderBy := "name ASC"
	if params.SortBy != "" {
		direction := "ASC"
		if params.SortOrder == "desc" {
			direction = "DESC"
		}

		switch params.SortBy {
		case "stock":
			orderBy = fmt.Sprintf("stock %s", direction)
		case "price":
			orderBy = fmt.Sprintf("unit_price %s", direction)
		case "created":
			orderBy = fmt.Sprintf("created_at %s", direction)
		default:
			orderBy = fmt.Sprintf("name %s", direction)
		}
	}
	qb = qb.OrderBy(orderBy)

	// Apply pagination
	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	qb = qb.Limit(uint64(pageSize)).Offset(uint64((page - 1) * pageSize))

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query parts: %w", err)
	}
	defer rows.Close()

	var items []*domain.Part
	for rows.Next() {
		part, err := scanPart(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan part: %w", err)
		}
		items = append(items, part)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))

	return &ports.PartListResult{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// ListLowStock returns parts at or below the given stock threshold
func (r *partRepository) ListLowStock(ctx context.Context, threshold int) ([]domain.Part, error) {
	query := `SELECT ` + partColumns + ` FROM parts WHERE stock <= $1 ORDER BY stock ASC, name ASC`

	rows, err := r.db.Query(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query low-stock parts: %w", err)
	}
	defer rows.Close()

	var parts []domain.Part
	for rows.Next() {
		part, err := scanPart(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan part: %w", err)
		}
		parts = append(parts, *part)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return parts, nil
}

// Exists checks if a part exists
func (r *partRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM parts WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return exists, nil
}

// scanPart scans a part row from either a pgx.Row or pgx.Rows
func scanPart(row pgx.Row) (*domain.Part, error) {
	part := &domain.Part{}
	var supplierID uuid.NullUUID

	err := row.Scan(
		&part.ID, &part.Name, &part.Category, &part.Stock, &part.UnitPrice,
		&supplierID, &part.CreatedAt, &part.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	part.SupplierID = supplierID.UUID

	return part, nil
}

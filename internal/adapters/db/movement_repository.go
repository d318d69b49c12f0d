// internal/adapters/db/movement_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// movementRepository implements ports.MovementRepository. The journal is
// append-only; there is no update or delete path.
type movementRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewMovementRepository creates a new stock movement journal repository
func NewMovementRepository(db *Database, logger *slog.Logger) ports.MovementRepository {
	return &movementRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "movements")),
	}
}

// Record appends a journal entry
func (r *movementRepository) Record(ctx context.Context, m *domain.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, part_id, kind, quantity, delta, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		m.ID, m.PartID, m.Kind, m.Quantity, m.Delta, m.Reference, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}

	r.logger.DebugContext(ctx, "stock movement recorded",
		slog.String("part_id", m.PartID.String()),
		slog.String("kind", string(m.Kind)),
		slog.Int("delta", m.Delta))

	return nil
}

// ListByPart returns the most recent journal entries for a part
func (r *movementRepository) ListByPart(ctx context.Context, partID uuid.UUID, limit int) ([]domain.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, part_id, kind, quantity, delta, reference, created_at
		FROM stock_movements
		WHERE part_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, partID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	var movements []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		err := rows.Scan(&m.ID, &m.PartID, &m.Kind, &m.Quantity, &m.Delta, &m.Reference, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return movements, nil
}

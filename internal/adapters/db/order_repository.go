// internal/adapters/db/order_repository.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// orderRepository implements ports.OrderRepository
type orderRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewOrderRepository creates a new repair order repository
func NewOrderRepository(db *Database, logger *slog.Logger) ports.OrderRepository {
	return &orderRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "orders")),
	}
}

const orderColumns = `id, device_id, state, description, part_usages, fixed_cost,
	margin_percent, total, notes, created_at, estimated_at, completed_at, updated_at`

// Save creates or updates a repair order. Part usages are stored as a JSONB
// document so the reservation-time price snapshot travels with the order.
func (r *orderRepository) Save(ctx context.Context, order *domain.RepairOrder) error {
	usages, err := json.Marshal(order.PartUsages)
	if err != nil {
		return fmt.Errorf("failed to marshal part usages: %w", err)
	}

	total := decimal.NullDecimal{}
	if order.Total != nil {
		total = decimal.NullDecimal{Decimal: *order.Total, Valid: true}
	}

	query := `
		INSERT INTO repair_orders (
			id, device_id, state, description, part_usages, fixed_cost,
			margin_percent, total, notes, created_at, estimated_at, completed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			description = EXCLUDED.description,
			part_usages = EXCLUDED.part_usages,
			fixed_cost = EXCLUDED.fixed_cost,
			margin_percent = EXCLUDED.margin_percent,
			total = EXCLUDED.total,
			notes = EXCLUDED.notes,
			estimated_at = EXCLUDED.estimated_at,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at`

	_, err = r.db.Exec(ctx, query,
		order.ID, order.DeviceID, order.State, order.Description, usages,
		order.FixedCost, order.MarginPercent, total, order.Notes,
		order.CreatedAt, order.EstimatedAt, order.CompletedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save repair order: %w", err)
	}

	r.logger.DebugContext(ctx, "repair order saved",
		slog.String("order_id", order.ID.String()),
		slog.String("state", string(order.State)))

	return nil
}

// FindByID retrieves a repair order by id. Returns nil when no row exists.
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.RepairOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM repair_orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find repair order: %w", err)
	}

	return order, nil
}

// List returns orders newest first, optionally filtered by state
func (r *orderRepository) List(ctx context.Context, state *domain.OrderState) ([]domain.RepairOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM repair_orders`
	args := []interface{}{}
	if state != nil {
		query += ` WHERE state = $1`
		args = append(args, *state)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query repair orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.RepairOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan repair order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return orders, nil
}

// CountByState returns order counts grouped by lifecycle state
func (r *orderRepository) CountByState(ctx context.Context) (map[domain.OrderState]int64, error) {
	query := `SELECT state, COUNT(*) FROM repair_orders GROUP BY state`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count repair orders: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OrderState]int64)
	for rows.Next() {
		var state domain.OrderState
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan order count: %w", err)
		}
		counts[state] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return counts, nil
}

// scanOrder scans a repair order row from either a pgx.Row or pgx.Rows
func scanOrder(row pgx.Row) (*domain.RepairOrder, error) {
	order := &domain.RepairOrder{}
	var usages []byte
	var total decimal.NullDecimal
	var estimatedAt, completedAt sql.NullTime

	err := row.Scan(
		&order.ID, &order.DeviceID, &order.State, &order.Description, &usages,
		&order.FixedCost, &order.MarginPercent, &total, &order.Notes,
		&order.CreatedAt, &estimatedAt, &completedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(usages, &order.PartUsages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal part usages: %w", err)
	}

	if total.Valid {
		order.Total = &total.Decimal
	}
	if estimatedAt.Valid {
		order.EstimatedAt = &estimatedAt.Time
	}
	if completedAt.Valid {
		order.CompletedAt = &completedAt.Time
	}

	return order, nil
}

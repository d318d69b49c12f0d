// internal/adapters/db/invoice_repository.go
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// invoiceRepository implements ports.InvoiceRepository
type invoiceRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewInvoiceRepository creates a new supplier invoice repository
func NewInvoiceRepository(db *Database, logger *slog.Logger) ports.InvoiceRepository {
	return &invoiceRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "invoices")),
	}
}

const invoiceColumns = `id, supplier_id, number, date, line_items, total, created_at`

// Save inserts a new invoice. Invoices are immutable once created; a
// duplicate (supplier, number) pair fails on the unique constraint.
func (r *invoiceRepository) Save(ctx context.Context, invoice *domain.Invoice) error {
	lines, err := json.Marshal(invoice.LineItems)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}

	query := `
		INSERT INTO invoices (id, supplier_id, number, date, line_items, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.Exec(ctx, query,
		invoice.ID, invoice.SupplierID, invoice.Number, invoice.Date,
		lines, invoice.Total, invoice.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}

	r.logger.DebugContext(ctx, "invoice saved",
		slog.String("invoice_id", invoice.ID.String()),
		slog.String("number", invoice.Number))

	return nil
}

// FindByID retrieves an invoice by id. Returns nil when no row exists.
func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}

	return invoice, nil
}

// List returns all invoices, newest first
func (r *invoiceRepository) List(ctx context.Context) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY date DESC, created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return invoices, nil
}

// scanInvoice scans an invoice row from either a pgx.Row or pgx.Rows
func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}
	var lines []byte

	err := row.Scan(
		&invoice.ID, &invoice.SupplierID, &invoice.Number, &invoice.Date,
		&lines, &invoice.Total, &invoice.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(lines, &invoice.LineItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal line items: %w", err)
	}

	return invoice, nil
}

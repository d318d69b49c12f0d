// internal/adapters/db/importjob_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// importJobRepository implements ports.ImportJobRepository
type importJobRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewImportJobRepository creates a new import job repository
func NewImportJobRepository(db *Database, logger *slog.Logger) ports.ImportJobRepository {
	return &importJobRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "import_jobs")),
	}
}

// Save inserts or updates an import job record
func (r *importJobRepository) Save(ctx context.Context, job *domain.ImportJob) error {
	query := `
		INSERT INTO import_jobs (id, file_key, status, invoice_id, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			invoice_id = EXCLUDED.invoice_id,
			error = EXCLUDED.error,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		job.ID, job.FileKey, job.Status, job.InvoiceID,
		job.Error, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save import job: %w", err)
	}

	r.logger.DebugContext(ctx, "import job saved",
		slog.String("job_id", job.ID.String()),
		slog.String("status", string(job.Status)))

	return nil
}

// FindByID retrieves an import job by id. Returns nil when no row exists.
func (r *importJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	query := `
		SELECT id, file_key, status, invoice_id, error, created_at, updated_at
		FROM import_jobs
		WHERE id = $1`

	var job domain.ImportJob
	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.FileKey, &job.Status, &job.InvoiceID,
		&job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find import job: %w", err)
	}

	return &job, nil
}

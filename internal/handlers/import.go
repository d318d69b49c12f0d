// internal/handlers/import.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ngiletta/taller-be/internal/adapters/storage"
	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
	"github.com/ngiletta/taller-be/internal/workers"
)

// ImportHandler accepts supplier invoice PDFs for asynchronous import
type ImportHandler struct {
	store       storage.FileStore
	jobs        ports.ImportJobRepository
	suppliers   ports.SupplierRepository
	tasks       ports.TaskEnqueuer
	maxFileSize int64
	logger      *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(
	store storage.FileStore,
	jobs ports.ImportJobRepository,
	suppliers ports.SupplierRepository,
	tasks ports.TaskEnqueuer,
	maxFileSize int64,
	logger *slog.Logger,
) *ImportHandler {
	return &ImportHandler{
		store:       store,
		jobs:        jobs,
		suppliers:   suppliers,
		tasks:       tasks,
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("handler", "import")),
	}
}

// ImportInvoicePDF handles POST /api/v1/imports/pdf
//
// The document goes to object storage and a worker task is queued; the
// invoice itself is reconciled asynchronously. The response carries the job
// id for status polling.
func (h *ImportHandler) ImportInvoicePDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != "application/pdf" {
		respondError(w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	supplierID, err := uuid.Parse(r.FormValue("supplier_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "supplier_id is required and must be a UUID")
		return
	}

	exists, err := h.suppliers.Exists(ctx, supplierID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check supplier",
			slog.String("supplier_id", supplierID.String()),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to verify supplier")
		return
	}
	if !exists {
		respondError(w, http.StatusNotFound, "Supplier not found")
		return
	}

	key := storage.IncomingKey(supplierID, header.Filename)
	if _, err := h.store.Upload(ctx, key, file, "application/pdf"); err != nil {
		h.logger.ErrorContext(ctx, "failed to store document",
			slog.String("key", key),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	job := domain.NewImportJob(key)
	if err := h.jobs.Save(ctx, job); err != nil {
		h.logger.ErrorContext(ctx, "failed to create import job",
			slog.String("error", err.Error()))
		h.discard(ctx, key)
		respondError(w, http.StatusInternalServerError, "Failed to create import job")
		return
	}

	payload := workers.InvoicePDFPayload{
		JobID:      job.ID.String(),
		FileKey:    key,
		SupplierID: supplierID.String(),
	}

	if err := h.tasks.Enqueue(ctx, ports.TaskInvoicePDF, payload); err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue import task",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))

		job.MarkFailed("failed to queue import task")
		if saveErr := h.jobs.Save(ctx, job); saveErr != nil {
			h.logger.ErrorContext(ctx, "failed to record queue failure",
				slog.String("job_id", job.ID.String()),
				slog.String("error", saveErr.Error()))
		}
		h.discard(ctx, key)
		respondError(w, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	h.logger.InfoContext(ctx, "invoice PDF import queued",
		slog.String("job_id", job.ID.String()),
		slog.String("file_key", key),
		slog.String("supplier_id", supplierID.String()))

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   job.ID.String(),
		"file_key": key,
		"status":   job.Status,
	})
}

// ImportStatus handles GET /api/v1/imports/{id}
func (h *ImportHandler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	jobID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	job, err := h.jobs.FindByID(ctx, jobID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get import job",
			slog.String("job_id", idStr),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to get job status")
		return
	}
	if job == nil {
		respondError(w, http.StatusNotFound, "Import job not found")
		return
	}

	respondJSON(w, http.StatusOK, job)
}

func (h *ImportHandler) discard(ctx context.Context, key string) {
	if err := h.store.Delete(ctx, key); err != nil {
		h.logger.WarnContext(ctx, "failed to remove orphaned upload",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

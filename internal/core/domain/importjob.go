// internal/core/domain/importjob.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportJobStatus tracks an invoice PDF through the import pipeline
type ImportJobStatus string

const (
	ImportStatusQueued     ImportJobStatus = "queued"
	ImportStatusProcessing ImportJobStatus = "processing"
	ImportStatusCompleted  ImportJobStatus = "completed"
	ImportStatusFailed     ImportJobStatus = "failed"
)

// ImportJob records one asynchronous invoice PDF import. FileKey points at
// the uploaded document in object storage; InvoiceID is set once the import
// completes and the invoice is reconciled.
type ImportJob struct {
	ID        uuid.UUID       `json:"id"`
	FileKey   string          `json:"file_key"`
	Status    ImportJobStatus `json:"status"`
	InvoiceID uuid.NullUUID   `json:"invoice_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewImportJob creates a queued import job for an uploaded document
func NewImportJob(fileKey string) *ImportJob {
	now := time.Now()
	return &ImportJob{
		ID:        uuid.New(),
		FileKey:   fileKey,
		Status:    ImportStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkProcessing transitions the job to processing.
func (j *ImportJob) MarkProcessing() {
	j.Status = ImportStatusProcessing
	j.UpdatedAt = time.Now()
}

// MarkCompleted records the reconciled invoice and finishes the job.
func (j *ImportJob) MarkCompleted(invoiceID uuid.UUID) {
	j.Status = ImportStatusCompleted
	j.InvoiceID = uuid.NullUUID{UUID: invoiceID, Valid: true}
	j.Error = ""
	j.UpdatedAt = time.Now()
}

// MarkFailed finishes the job with an error message.
func (j *ImportJob) MarkFailed(reason string) {
	j.Status = ImportStatusFailed
	j.Error = reason
	j.UpdatedAt = time.Now()
}

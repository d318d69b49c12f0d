// internal/core/ports/tasks.go
package ports

import "context"

// Task type names shared between enqueuing services and the worker.
const (
	TaskLowStockAlert = "stock:low_alert"
	TaskInvoicePDF    = "invoice:pdf_import"
	TaskCleanupFiles  = "cleanup:temp_files"
)

// TaskEnqueuer submits background tasks to the worker queue. The ledger uses
// it for low-stock alerts; enqueue failures are logged, never fatal.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload any) error
}

// internal/workers/enqueuer.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ngiletta/taller-be/internal/core/ports"
)

// InvoicePDFPayload is the task payload for asynchronous invoice imports
type InvoicePDFPayload struct {
	JobID      string `json:"job_id"`
	FileKey    string `json:"file_key"`
	SupplierID string `json:"supplier_id"`
}

// LowStockPayload is the task payload for low-stock alerts
type LowStockPayload struct {
	PartID    string `json:"part_id"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
}

// Enqueuer submits background tasks through asynq
type Enqueuer struct {
	client *asynq.Client
	logger *slog.Logger
}

var _ ports.TaskEnqueuer = (*Enqueuer)(nil)

// NewEnqueuer creates a task enqueuer backed by an asynq client
func NewEnqueuer(client *asynq.Client, logger *slog.Logger) *Enqueuer {
	return &Enqueuer{
		client: client,
		logger: logger.With(slog.String("component", "enqueuer")),
	}
}

// Enqueue marshals payload and submits the task with per-type queue options
func (e *Enqueuer) Enqueue(ctx context.Context, taskType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(taskType, data)

	info, err := e.client.EnqueueContext(ctx, task, optionsFor(taskType)...)
	if err != nil {
		return fmt.Errorf("failed to enqueue task %s: %w", taskType, err)
	}

	e.logger.DebugContext(ctx, "task enqueued",
		slog.String("type", taskType),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))

	return nil
}

// optionsFor picks queue and retry settings per task type. Low-stock alerts
// are time-sensitive; imports can wait in the default queue.
func optionsFor(taskType string) []asynq.Option {
	switch taskType {
	case ports.TaskLowStockAlert:
		return []asynq.Option{
			asynq.Queue("critical"),
			asynq.MaxRetry(3),
		}
	case ports.TaskInvoicePDF:
		return []asynq.Option{
			asynq.Queue("default"),
			asynq.MaxRetry(3),
			asynq.Retention(24 * time.Hour),
		}
	case ports.TaskCleanupFiles:
		return []asynq.Option{
			asynq.Queue("low"),
			asynq.MaxRetry(1),
		}
	}
	return []asynq.Option{asynq.Queue("default")}
}

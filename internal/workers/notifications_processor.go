// internal/workers/notifications_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ngiletta/taller-be/internal/core/ports"
	"github.com/ngiletta/taller-be/internal/pkg/config"
)

// NotificationProcessor turns ledger alerts into reorder notifications
type NotificationProcessor struct {
	parts  ports.PartRepository
	config *config.Config
	logger *slog.Logger
}

// NewNotificationProcessor creates a new notification processor
func NewNotificationProcessor(parts ports.PartRepository, cfg *config.Config, logger *slog.Logger) *NotificationProcessor {
	return &NotificationProcessor{
		parts:  parts,
		config: cfg,
		logger: logger.With(slog.String("processor", "notifications")),
	}
}

// LowStockAlert handles a low-stock task emitted by the ledger
func (p *NotificationProcessor) LowStockAlert(ctx context.Context, t *asynq.Task) error {
	var payload LowStockPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	partID, err := uuid.Parse(payload.PartID)
	if err != nil {
		return fmt.Errorf("invalid part id %q: %w", payload.PartID, asynq.SkipRetry)
	}

	part, err := p.parts.FindByID(ctx, partID)
	if err != nil {
		return fmt.Errorf("failed to load part: %w", err)
	}
	if part == nil {
		// Deleted since the alert fired; nothing to report.
		return nil
	}

	// Re-check against the live count. A restock may have landed between
	// the alert and this task running.
	if part.Stock > payload.Threshold {
		p.logger.DebugContext(ctx, "stock recovered before alert was sent",
			slog.String("part_id", payload.PartID),
			slog.Int("stock", part.Stock))
		return nil
	}

	subject := fmt.Sprintf("Low stock: %s (%d left)", part.Name, part.Stock)
	body := fmt.Sprintf(
		"Part %s (%s) is down to %d units, at or below the reorder threshold of %d.",
		part.Name, part.ID, part.Stock, payload.Threshold,
	)

	// In development, just log the alert.
	if p.config.IsDevelopment() {
		p.logger.InfoContext(ctx, "low-stock alert",
			slog.String("part_id", payload.PartID),
			slog.String("part_name", part.Name),
			slog.Int("stock", part.Stock),
			slog.Int("threshold", payload.Threshold))
		return nil
	}

	return p.sendEmail(ctx, subject, body)
}

func (p *NotificationProcessor) sendEmail(ctx context.Context, subject, body string) error {
	from := "alerts@taller.local"
	to := "purchasing@taller.local"
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		from, to, subject, body,
	))

	auth := smtp.PlainAuth("", "", "", "smtp.example.com")
	if err := smtp.SendMail("smtp.example.com:587", auth, from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	p.logger.InfoContext(ctx, "low-stock alert sent", slog.String("subject", subject))
	return nil
}

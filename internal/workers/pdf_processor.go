// internal/workers/pdf_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"github.com/ngiletta/taller-be/internal/adapters/storage"
	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// InvoicePDFProcessor parses uploaded supplier invoice PDFs and feeds them
// through reconciliation. Success archives the document; a permanent failure
// quarantines it.
type InvoicePDFProcessor struct {
	store    storage.FileStore
	invoices ports.InvoiceService
	parts    ports.PartRepository
	jobs     ports.ImportJobRepository
	logger   *slog.Logger
}

// NewInvoicePDFProcessor creates a new invoice PDF processor
func NewInvoicePDFProcessor(
	store storage.FileStore,
	invoices ports.InvoiceService,
	parts ports.PartRepository,
	jobs ports.ImportJobRepository,
	logger *slog.Logger,
) *InvoicePDFProcessor {
	return &InvoicePDFProcessor{
		store:    store,
		invoices: invoices,
		parts:    parts,
		jobs:     jobs,
		logger:   logger.With(slog.String("processor", "invoice_pdf")),
	}
}

// ProcessInvoicePDF handles one queued invoice import task
func (p *InvoicePDFProcessor) ProcessInvoicePDF(ctx context.Context, t *asynq.Task) error {
	var payload InvoicePDFPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		return fmt.Errorf("invalid job id %q: %w", payload.JobID, asynq.SkipRetry)
	}
	supplierID, err := uuid.Parse(payload.SupplierID)
	if err != nil {
		return fmt.Errorf("invalid supplier id %q: %w", payload.SupplierID, asynq.SkipRetry)
	}

	job, err := p.jobs.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load import job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("import job %s not found: %w", jobID, asynq.SkipRetry)
	}

	p.logger.InfoContext(ctx, "processing invoice PDF",
		slog.String("job_id", payload.JobID),
		slog.String("file_key", job.FileKey))

	job.MarkProcessing()
	if err := p.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to update import job: %w", err)
	}

	data, err := p.store.Download(ctx, job.FileKey)
	if err != nil {
		return fmt.Errorf("failed to download document: %w", err)
	}

	params, err := p.extractInvoice(ctx, data, supplierID)
	if err != nil {
		return p.fail(ctx, job, fmt.Errorf("failed to parse invoice: %w", err))
	}

	invoice, err := p.invoices.Create(ctx, *params)
	if err != nil {
		if domain.IsRetryable(err) {
			// Lock contention; leave the document in place and retry.
			return fmt.Errorf("reconciliation conflict: %w", err)
		}
		return p.fail(ctx, job, fmt.Errorf("reconciliation rejected: %w", err))
	}

	job.MarkCompleted(invoice.ID)
	if err := p.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to finalize import job: %w", err)
	}

	archiveKey := storage.ArchiveKey(job.FileKey)
	if err := p.store.Move(ctx, job.FileKey, archiveKey); err != nil {
		p.logger.WarnContext(ctx, "failed to archive document",
			slog.String("file_key", job.FileKey),
			slog.String("error", err.Error()))
	}

	p.logger.InfoContext(ctx, "invoice PDF imported",
		slog.String("job_id", payload.JobID),
		slog.String("invoice_id", invoice.ID.String()),
		slog.Int("lines", len(invoice.LineItems)))

	return nil
}

// fail marks the job failed, quarantines the document and stops retries.
func (p *InvoicePDFProcessor) fail(ctx context.Context, job *domain.ImportJob, cause error) error {
	job.MarkFailed(cause.Error())
	if err := p.jobs.Save(ctx, job); err != nil {
		p.logger.ErrorContext(ctx, "failed to record import failure",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
	}

	quarantineKey := storage.QuarantineKey(job.FileKey)
	if err := p.store.Move(ctx, job.FileKey, quarantineKey); err != nil {
		p.logger.WarnContext(ctx, "failed to quarantine document",
			slog.String("file_key", job.FileKey),
			slog.String("error", err.Error()))
	}

	p.logger.WarnContext(ctx, "invoice PDF import failed",
		slog.String("job_id", job.ID.String()),
		slog.String("error", cause.Error()))

	return fmt.Errorf("%s: %w", cause.Error(), asynq.SkipRetry)
}

// extractInvoice pulls the text out of the PDF and assembles reconciliation
// parameters from it.
func (p *InvoicePDFProcessor) extractInvoice(ctx context.Context, data []byte, supplierID uuid.UUID) (*ports.CreateInvoiceParams, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var textLines []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to extract text from page",
				slog.Int("page", pageNum),
				slog.String("error", err.Error()))
			continue
		}

		textLines = append(textLines, strings.Split(text, "\n")...)
	}

	number, date := p.parseHeader(textLines)
	if number == "" {
		return nil, fmt.Errorf("no invoice number found in document")
	}

	rawLines, declaredTotal := p.parseLines(textLines)
	if len(rawLines) == 0 {
		return nil, fmt.Errorf("no line items found in document")
	}

	lines := make([]domain.InvoiceLine, 0, len(rawLines))
	for _, raw := range rawLines {
		partID, err := p.matchPart(ctx, raw.description)
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.InvoiceLine{
			PartID:    partID,
			Quantity:  raw.quantity,
			UnitPrice: raw.unitPrice,
		})
	}

	return &ports.CreateInvoiceParams{
		SupplierID:    supplierID,
		Number:        number,
		Date:          date,
		LineItems:     lines,
		DeclaredTotal: declaredTotal,
	}, nil
}

type rawInvoiceLine struct {
	description string
	quantity    int
	unitPrice   decimal.Decimal
}

var (
	numberRe = regexp.MustCompile(`(?i)(?:invoice|factura)\s*(?:no\.?|nº|#)?\s*[:\s]\s*([A-Z0-9][A-Z0-9/-]+)`)
	dateRe   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{2}/\d{2}/\d{4})\b`)
	// Table row: description, quantity, unit price, line subtotal.
	lineRe  = regexp.MustCompile(`^(.*?)\s+(\d+)\s+\$?\s*(\d{1,3}(?:,\d{3})*\.\d{2})\s+\$?\s*(\d{1,3}(?:,\d{3})*\.\d{2})\s*$`)
	totalRe = regexp.MustCompile(`(?i)^\s*total\b.*?(\d{1,3}(?:,\d{3})*\.\d{2})\s*$`)
)

func (p *InvoicePDFProcessor) parseHeader(lines []string) (string, time.Time) {
	var number string
	date := time.Now()

	for _, line := range lines {
		if number == "" {
			if m := numberRe.FindStringSubmatch(line); m != nil {
				number = m[1]
			}
		}
		if m := dateRe.FindStringSubmatch(line); m != nil {
			for _, layout := range []string{"2006-01-02", "02/01/2006"} {
				if d, err := time.Parse(layout, m[1]); err == nil {
					date = d
					break
				}
			}
		}
		if number != "" {
			break
		}
	}

	return number, date
}

func (p *InvoicePDFProcessor) parseLines(lines []string) ([]rawInvoiceLine, decimal.Decimal) {
	var items []rawInvoiceLine
	declaredTotal := decimal.Zero

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := totalRe.FindStringSubmatch(line); m != nil {
			declaredTotal = parseCurrency(m[1])
			break
		}

		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		qty, err := strconv.Atoi(m[2])
		if err != nil || qty <= 0 {
			continue
		}

		items = append(items, rawInvoiceLine{
			description: strings.TrimSpace(m[1]),
			quantity:    qty,
			unitPrice:   parseCurrency(m[3]),
		})
	}

	return items, declaredTotal
}

// matchPart resolves a line description to a catalog part by exact name,
// case-insensitive.
func (p *InvoicePDFProcessor) matchPart(ctx context.Context, description string) (uuid.UUID, error) {
	result, err := p.parts.List(ctx, ports.PartListParams{
		Search:   description,
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to search parts: %w", err)
	}

	for _, part := range result.Items {
		if strings.EqualFold(part.Name, description) {
			return part.ID, nil
		}
	}

	return uuid.Nil, fmt.Errorf("no catalog part matches line %q", description)
}

func parseCurrency(val string) decimal.Decimal {
	cleaned := strings.ReplaceAll(val, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

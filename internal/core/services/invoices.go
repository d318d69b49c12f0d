// internal/core/services/invoices.go
package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// InvoiceReconciliationService validates supplier invoices against their
// line items and applies the matching restocks to the ledger. Invoices are
// immutable once created.
type InvoiceReconciliationService struct {
	invoices  ports.InvoiceRepository
	suppliers ports.SupplierRepository
	ledger    ports.Ledger
	logger    *slog.Logger
}

// Statically assert that *InvoiceReconciliationService implements the
// InvoiceService interface.
var _ ports.InvoiceService = (*InvoiceReconciliationService)(nil)

// NewInvoiceReconciliationService creates the invoice reconciliation service
func NewInvoiceReconciliationService(
	invoices ports.InvoiceRepository,
	suppliers ports.SupplierRepository,
	ledger ports.Ledger,
	logger *slog.Logger,
) *InvoiceReconciliationService {
	return &InvoiceReconciliationService{
		invoices:  invoices,
		suppliers: suppliers,
		ledger:    ledger,
		logger:    logger.With(slog.String("service", "invoices")),
	}
}

// Create validates the invoice, then restocks every line item inside one
// lock scope. All item ids are checked before the first restock is applied;
// a later failure rolls applied restocks back, so either every line lands
// or none does.
func (s *InvoiceReconciliationService) Create(ctx context.Context, params ports.CreateInvoiceParams) (*domain.Invoice, error) {
	invoice := &domain.Invoice{
		SupplierID: params.SupplierID,
		Number:     params.Number,
		Date:       params.Date,
		LineItems:  params.LineItems,
		Total:      params.DeclaredTotal.RoundBank(2),
	}
	if err := invoice.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.suppliers.Exists(ctx, params.SupplierID)
	if err != nil {
		return nil, &domain.StorageError{Op: "check_supplier", Err: err}
	}
	if !exists {
		return nil, &domain.NotFoundError{Entity: "supplier", ID: params.SupplierID.String()}
	}

	invoice.PrepareForStorage()
	ref := invoice.ID.String()

	err = s.ledger.WithItems(ctx, invoice.PartIDs(), func(ctx context.Context) error {
		// Verify every referenced part before touching stock so NotFound
		// cannot strike mid-sequence.
		for _, id := range invoice.PartIDs() {
			if _, err := s.ledger.GetItem(ctx, id); err != nil {
				return err
			}
		}

		var applied []domain.InvoiceLine
		rollback := func() { s.unrestock(ctx, applied, ref) }

		for _, line := range invoice.LineItems {
			if err := s.ledger.Restock(ctx, line.PartID, line.Quantity, ref); err != nil {
				rollback()
				return err
			}
			applied = append(applied, line)
		}

		if err := s.invoices.Save(ctx, invoice); err != nil {
			rollback()
			return &domain.StorageError{Op: "save_invoice", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "supplier invoice reconciled",
		slog.String("invoice_id", invoice.ID.String()),
		slog.String("number", invoice.Number),
		slog.Int("line_items", len(invoice.LineItems)),
		slog.String("total", invoice.Total.String()))

	return invoice, nil
}

// Get returns an invoice by id.
func (s *InvoiceReconciliationService) Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, &domain.StorageError{Op: "find_invoice", Err: err}
	}
	if invoice == nil {
		return nil, &domain.NotFoundError{Entity: "invoice", ID: id.String()}
	}
	return invoice, nil
}

// List returns all invoices newest first.
func (s *InvoiceReconciliationService) List(ctx context.Context) ([]domain.Invoice, error) {
	invoices, err := s.invoices.List(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "list_invoices", Err: err}
	}
	return invoices, nil
}

// unrestock reverses applied restocks after a mid-sequence failure. Reserve
// is the numeric inverse of restock and cannot fail for stock here: the
// quantity being withdrawn was added under the same held locks.
func (s *InvoiceReconciliationService) unrestock(ctx context.Context, applied []domain.InvoiceLine, ref string) {
	for i := len(applied) - 1; i >= 0; i-- {
		line := applied[i]
		if _, err := s.ledger.Reserve(ctx, line.PartID, line.Quantity, ref+"/rollback"); err != nil {
			s.logger.ErrorContext(ctx, "failed to roll back restock",
				slog.String("part_id", line.PartID.String()),
				slog.Int("quantity", line.Quantity),
				slog.String("error", err.Error()))
		}
	}
}

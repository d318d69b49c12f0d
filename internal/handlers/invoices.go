// internal/handlers/invoices.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ngiletta/taller-be/internal/core/ports"
)

// InvoicesHandler handles supplier invoice HTTP requests
type InvoicesHandler struct {
	service ports.InvoiceService
	logger  *slog.Logger
}

// NewInvoicesHandler creates a new invoice handler
func NewInvoicesHandler(service ports.InvoiceService, logger *slog.Logger) *InvoicesHandler {
	return &InvoicesHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "invoices")),
	}
}

// CreateInvoice handles POST /api/v1/invoices
//
// Reconciliation and restock run synchronously; a 201 means every line was
// applied to the ledger, any error means none were.
func (h *InvoicesHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var params ports.CreateInvoiceParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	invoice, err := h.service.Create(ctx, params)
	if err != nil {
		h.logger.WarnContext(ctx, "invoice reconciliation rejected",
			slog.String("supplier_id", params.SupplierID.String()),
			slog.String("number", params.Number),
			slog.String("error", err.Error()))
		respondDomainError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "invoice reconciled",
		slog.String("invoice_id", invoice.ID.String()),
		slog.String("number", invoice.Number),
		slog.Int("lines", len(invoice.LineItems)))

	respondJSON(w, http.StatusCreated, invoice)
}

// GetInvoice handles GET /api/v1/invoices/{id}
func (h *InvoicesHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	invoiceID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	invoice, err := h.service.Get(ctx, invoiceID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, invoice)
}

// ListInvoices handles GET /api/v1/invoices
func (h *InvoicesHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	invoices, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list invoices",
			slog.String("error", err.Error()))
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": invoices,
		"count": len(invoices),
	})
}

// internal/handlers/parts.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// PartsHandler handles spare part catalog and ledger HTTP requests
type PartsHandler struct {
	ledger ports.Ledger
	logger *slog.Logger
}

// NewPartsHandler creates a new parts handler
func NewPartsHandler(ledger ports.Ledger, logger *slog.Logger) *PartsHandler {
	return &PartsHandler{
		ledger: ledger,
		logger: logger.With(slog.String("handler", "parts")),
	}
}

// GetPart handles GET /api/v1/parts/{id}
func (h *PartsHandler) GetPart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	partID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid part ID format")
		return
	}

	part, err := h.ledger.GetItem(ctx, partID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get part",
			slog.String("part_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, part)
}

// ListParts handles GET /api/v1/parts
func (h *PartsHandler) ListParts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := h.parseListParams(r)

	result, err := h.ledger.ListItems(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list parts",
			slog.String("error", err.Error()))
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ListLowStock handles GET /api/v1/parts/low-stock
func (h *PartsHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	threshold := 0
	if t := r.URL.Query().Get("threshold"); t != "" {
		if v, err := strconv.Atoi(t); err == nil && v > 0 {
			threshold = v
		}
	}

	parts, err := h.ledger.ListLowStock(ctx, threshold)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list low-stock parts",
			slog.String("error", err.Error()))
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": parts,
		"count": len(parts),
	})
}

// ListMovements handles GET /api/v1/parts/{id}/movements
func (h *PartsHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	partID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid part ID format")
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}

	movements, err := h.ledger.ListMovements(ctx, partID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list movements",
			slog.String("part_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"part_id":   idStr,
		"movements": movements,
	})
}

// CreatePart handles POST /api/v1/parts
func (h *PartsHandler) CreatePart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreatePartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	part, err := req.ToDomain()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledger.SaveItem(ctx, part); err != nil {
		h.logger.ErrorContext(ctx, "failed to create part",
			slog.String("error", err.Error()))
		respondDomainError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "part created",
		slog.String("part_id", part.ID.String()),
		slog.String("name", part.Name))

	respondJSON(w, http.StatusCreated, part)
}

// UpdatePart handles PUT /api/v1/parts/{id}
func (h *PartsHandler) UpdatePart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	partID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid part ID format")
		return
	}

	var req CreatePartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The record must exist; updates never create parts implicitly.
	existing, err := h.ledger.GetItem(ctx, partID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	part, err := req.ToDomain()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	part.ID = existing.ID
	part.CreatedAt = existing.CreatedAt

	if err := h.ledger.SaveItem(ctx, part); err != nil {
		h.logger.ErrorContext(ctx, "failed to update part",
			slog.String("part_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err)
		return
	}

	// The store keeps the ledger's stock count on update; re-read so the
	// response reflects it.
	updated, err := h.ledger.GetItem(ctx, partID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "part updated", slog.String("part_id", idStr))

	respondJSON(w, http.StatusOK, updated)
}

// parseListParams parses query parameters for listing parts
func (h *PartsHandler) parseListParams(r *http.Request) ports.PartListParams {
	params := ports.PartListParams{
		Page:      1,
		PageSize:  50,
		SortBy:    "created_at",
		SortOrder: "desc",
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			if l > 100 {
				params.PageSize = 100
			} else {
				params.PageSize = l
			}
		}
	}

	params.Search = r.URL.Query().Get("search")
	params.Category = r.URL.Query().Get("category")
	params.SupplierID = r.URL.Query().Get("supplier_id")

	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		params.SortBy = sortBy
	}

	if order := r.URL.Query().Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	return params
}

// Request/Response DTOs

// CreatePartRequest represents the request body for creating or updating a part
type CreatePartRequest struct {
	Name       string          `json:"name"`
	Category   string          `json:"category,omitempty"`
	Stock      int             `json:"stock,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	SupplierID string          `json:"supplier_id,omitempty"`
}

// ToDomain converts the request to a domain model
func (r *CreatePartRequest) ToDomain() (*domain.Part, error) {
	part := &domain.Part{
		Name:      r.Name,
		Category:  domain.PartCategory(r.Category),
		Stock:     r.Stock,
		UnitPrice: r.UnitPrice,
	}

	if r.SupplierID != "" {
		supplierID, err := uuid.Parse(r.SupplierID)
		if err != nil {
			return nil, domain.NewValidationError("supplier_id", "is not a valid UUID")
		}
		part.SupplierID = supplierID
	}

	if err := part.Validate(); err != nil {
		return nil, err
	}

	return part, nil
}

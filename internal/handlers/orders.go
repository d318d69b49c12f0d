// internal/handlers/orders.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// OrdersHandler handles repair order HTTP requests
type OrdersHandler struct {
	service ports.OrderService
	logger  *slog.Logger
}

// NewOrdersHandler creates a new repair order handler
func NewOrdersHandler(service ports.OrderService, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "orders")),
	}
}

// CreateOrder handles POST /api/v1/orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var params ports.CreateOrderParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.Create(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create order",
			slog.String("device_id", params.DeviceID.String()),
			slog.String("error", err.Error()))
		respondDomainError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID.String()),
		slog.String("device_id", order.DeviceID.String()))

	respondJSON(w, http.StatusCreated, order)
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	orderID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	order, err := h.service.Get(ctx, orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// ListOrders handles GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var state *domain.OrderState
	if s := r.URL.Query().Get("state"); s != "" {
		candidate := domain.OrderState(s)
		if !candidate.Valid() {
			respondError(w, http.StatusBadRequest, "Unknown order state: "+s)
			return
		}
		state = &candidate
	}

	orders, err := h.service.List(ctx, state)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list orders",
			slog.String("error", err.Error()))
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": orders,
		"count": len(orders),
	})
}

// TransitionRequest represents the request body for a state transition
type TransitionRequest struct {
	State string `json:"state"`
}

// TransitionOrder handles POST /api/v1/orders/{id}/transition
func (h *OrdersHandler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	orderID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	target := domain.OrderState(req.State)
	if !target.Valid() {
		respondError(w, http.StatusBadRequest, "Unknown order state: "+req.State)
		return
	}

	order, err := h.service.Transition(ctx, orderID, target)
	if err != nil {
		h.logger.WarnContext(ctx, "order transition rejected",
			slog.String("order_id", idStr),
			slog.String("target", req.State),
			slog.String("error", err.Error()))
		respondDomainError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "order transitioned",
		slog.String("order_id", idStr),
		slog.String("state", string(order.State)))

	respondJSON(w, http.StatusOK, order)
}

// UpdateOrder handles PATCH /api/v1/orders/{id}
//
// Only pending orders accept draft updates; anything later is rejected by
// the lifecycle service.
func (h *OrdersHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	orderID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	var update ports.OrderDraftUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.UpdateDraft(ctx, orderID, update)
	if err != nil {
		h.logger.WarnContext(ctx, "order draft update rejected",
			slog.String("order_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

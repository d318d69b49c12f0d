// internal/handlers/contacts.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/services"
)

// ContactsHandler handles client, supplier and device HTTP requests
type ContactsHandler struct {
	service *services.ContactService
	logger  *slog.Logger
}

// NewContactsHandler creates a new contacts handler
func NewContactsHandler(service *services.ContactService, logger *slog.Logger) *ContactsHandler {
	return &ContactsHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "contacts")),
	}
}

// CreateClient handles POST /api/v1/clients
func (h *ContactsHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var client domain.Client
	if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	client.ID = uuid.Nil

	if err := h.service.SaveClient(ctx, &client); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, client)
}

// GetClient handles GET /api/v1/clients/{id}
func (h *ContactsHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	client, err := h.service.GetClient(ctx, clientID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// ListClients handles GET /api/v1/clients
func (h *ContactsHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clients, err := h.service.ListClients(ctx)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": clients,
		"count": len(clients),
	})
}

// UpdateClient handles PUT /api/v1/clients/{id}
func (h *ContactsHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	existing, err := h.service.GetClient(ctx, clientID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var client domain.Client
	if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	client.ID = existing.ID
	client.CreatedAt = existing.CreatedAt

	if err := h.service.SaveClient(ctx, &client); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// DeleteClient handles DELETE /api/v1/clients/{id}
func (h *ContactsHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	clientID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	if err := h.service.DeleteClient(ctx, clientID); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message":   "Client deleted",
		"client_id": idStr,
	})
}

// CreateSupplier handles POST /api/v1/suppliers
func (h *ContactsHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var supplier domain.Supplier
	if err := json.NewDecoder(r.Body).Decode(&supplier); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	supplier.ID = uuid.Nil

	if err := h.service.SaveSupplier(ctx, &supplier); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, supplier)
}

// GetSupplier handles GET /api/v1/suppliers/{id}
func (h *ContactsHandler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	supplierID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	supplier, err := h.service.GetSupplier(ctx, supplierID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, supplier)
}

// ListSuppliers handles GET /api/v1/suppliers
func (h *ContactsHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	suppliers, err := h.service.ListSuppliers(ctx)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": suppliers,
		"count": len(suppliers),
	})
}

// RegisterDevice handles POST /api/v1/devices
func (h *ContactsHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var device domain.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	device.ID = uuid.Nil

	if err := h.service.RegisterDevice(ctx, &device); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, device)
}

// GetDevice handles GET /api/v1/devices/{id}
func (h *ContactsHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deviceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid device ID format")
		return
	}

	device, err := h.service.GetDevice(ctx, deviceID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, device)
}

// ListClientDevices handles GET /api/v1/clients/{id}/devices
func (h *ContactsHandler) ListClientDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	devices, err := h.service.ListDevicesByClient(ctx, clientID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": devices,
		"count": len(devices),
	})
}

// internal/core/services/contacts.go
package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// ContactService manages client, supplier and device records. Plain field
// storage with referential existence checks; no other invariants.
type ContactService struct {
	clients   ports.ClientRepository
	suppliers ports.SupplierRepository
	devices   ports.DeviceRepository
	logger    *slog.Logger
}

// NewContactService creates the contact registry service
func NewContactService(
	clients ports.ClientRepository,
	suppliers ports.SupplierRepository,
	devices ports.DeviceRepository,
	logger *slog.Logger,
) *ContactService {
	return &ContactService{
		clients:   clients,
		suppliers: suppliers,
		devices:   devices,
		logger:    logger.With(slog.String("service", "contacts")),
	}
}

// SaveClient creates or updates a client record.
func (s *ContactService) SaveClient(ctx context.Context, client *domain.Client) error {
	if err := client.Validate(); err != nil {
		return err
	}
	client.PrepareForStorage()
	if err := s.clients.Save(ctx, client); err != nil {
		return &domain.StorageError{Op: "save_client", Err: err}
	}
	return nil
}

// GetClient returns a client by id.
func (s *ContactService) GetClient(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	client, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, &domain.StorageError{Op: "find_client", Err: err}
	}
	if client == nil {
		return nil, &domain.NotFoundError{Entity: "client", ID: id.String()}
	}
	return client, nil
}

// ListClients returns all clients.
func (s *ContactService) ListClients(ctx context.Context) ([]domain.Client, error) {
	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "list_clients", Err: err}
	}
	return clients, nil
}

// DeleteClient removes a client record.
func (s *ContactService) DeleteClient(ctx context.Context, id uuid.UUID) error {
	client, err := s.GetClient(ctx, id)
	if err != nil {
		return err
	}
	if err := s.clients.Delete(ctx, client.ID); err != nil {
		return &domain.StorageError{Op: "delete_client", Err: err}
	}
	s.logger.InfoContext(ctx, "client deleted", slog.String("client_id", id.String()))
	return nil
}

// SaveSupplier creates or updates a supplier record.
func (s *ContactService) SaveSupplier(ctx context.Context, supplier *domain.Supplier) error {
	if err := supplier.Validate(); err != nil {
		return err
	}
	supplier.PrepareForStorage()
	if err := s.suppliers.Save(ctx, supplier); err != nil {
		return &domain.StorageError{Op: "save_supplier", Err: err}
	}
	return nil
}

// GetSupplier returns a supplier by id.
func (s *ContactService) GetSupplier(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return nil, &domain.StorageError{Op: "find_supplier", Err: err}
	}
	if supplier == nil {
		return nil, &domain.NotFoundError{Entity: "supplier", ID: id.String()}
	}
	return supplier, nil
}

// ListSuppliers returns all suppliers.
func (s *ContactService) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	suppliers, err := s.suppliers.List(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "list_suppliers", Err: err}
	}
	return suppliers, nil
}

// RegisterDevice records a device brought in for repair. The owning client
// must exist.
func (s *ContactService) RegisterDevice(ctx context.Context, device *domain.Device) error {
	if err := device.Validate(); err != nil {
		return err
	}
	client, err := s.clients.FindByID(ctx, device.ClientID)
	if err != nil {
		return &domain.StorageError{Op: "find_client", Err: err}
	}
	if client == nil {
		return &domain.NotFoundError{Entity: "client", ID: device.ClientID.String()}
	}

	device.PrepareForStorage()
	if err := s.devices.Save(ctx, device); err != nil {
		return &domain.StorageError{Op: "save_device", Err: err}
	}

	s.logger.InfoContext(ctx, "device registered",
		slog.String("device_id", device.ID.String()),
		slog.String("client_id", device.ClientID.String()),
		slog.String("model", device.Brand+" "+device.Model))

	return nil
}

// GetDevice returns a device by id.
func (s *ContactService) GetDevice(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	device, err := s.devices.FindByID(ctx, id)
	if err != nil {
		return nil, &domain.StorageError{Op: "find_device", Err: err}
	}
	if device == nil {
		return nil, &domain.NotFoundError{Entity: "device", ID: id.String()}
	}
	return device, nil
}

// ListDevicesByClient returns a client's devices.
func (s *ContactService) ListDevicesByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Device, error) {
	devices, err := s.devices.ListByClient(ctx, clientID)
	if err != nil {
		return nil, &domain.StorageError{Op: "list_devices", Err: err}
	}
	return devices, nil
}

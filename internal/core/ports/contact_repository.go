// internal/core/ports/contact_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ngiletta/taller-be/internal/core/domain"
)

// ClientRepository persists customer contact records.
type ClientRepository interface {
	Save(ctx context.Context, client *domain.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	List(ctx context.Context) ([]domain.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SupplierRepository persists supplier contact records.
type SupplierRepository interface {
	Save(ctx context.Context, supplier *domain.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)
	List(ctx context.Context) ([]domain.Supplier, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// DeviceRepository persists devices brought in for repair.
type DeviceRepository interface {
	Save(ctx context.Context, device *domain.Device) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Device, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Device, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

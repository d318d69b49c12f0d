// internal/adapters/db/contact_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// clientRepository implements ports.ClientRepository
type clientRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *Database, logger *slog.Logger) ports.ClientRepository {
	return &clientRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "clients")),
	}
}

// Save creates or updates a client
func (r *clientRepository) Save(ctx context.Context, client *domain.Client) error {
	query := `
		INSERT INTO clients (id, name, phone, email, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		client.ID, client.Name, client.Phone, client.Email, client.Address,
		client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}

	return nil
}

// FindByID retrieves a client by id. Returns nil when no row exists.
func (r *clientRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	query := `SELECT id, name, phone, email, address, created_at, updated_at FROM clients WHERE id = $1`

	client := &domain.Client{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&client.ID, &client.Name, &client.Phone, &client.Email, &client.Address,
		&client.CreatedAt, &client.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}

	return client, nil
}

// List returns all clients ordered by name
func (r *clientRepository) List(ctx context.Context) ([]domain.Client, error) {
	query := `SELECT id, name, phone, email, address, created_at, updated_at FROM clients ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var c domain.Client
		err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return clients, nil
}

// Delete removes a client and, via cascade, its registered devices
func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client not found: %s", id)
	}

	r.logger.InfoContext(ctx, "client deleted", slog.String("client_id", id.String()))

	return nil
}

// supplierRepository implements ports.SupplierRepository
type supplierRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *Database, logger *slog.Logger) ports.SupplierRepository {
	return &supplierRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "suppliers")),
	}
}

// Save creates or updates a supplier
func (r *supplierRepository) Save(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		INSERT INTO suppliers (id, name, phone, email, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		supplier.ID, supplier.Name, supplier.Phone, supplier.Email, supplier.Address,
		supplier.CreatedAt, supplier.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save supplier: %w", err)
	}

	return nil
}

// FindByID retrieves a supplier by id. Returns nil when no row exists.
func (r *supplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	query := `SELECT id, name, phone, email, address, created_at, updated_at FROM suppliers WHERE id = $1`

	supplier := &domain.Supplier{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&supplier.ID, &supplier.Name, &supplier.Phone, &supplier.Email, &supplier.Address,
		&supplier.CreatedAt, &supplier.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find supplier: %w", err)
	}

	return supplier, nil
}

// List returns all suppliers ordered by name
func (r *supplierRepository) List(ctx context.Context) ([]domain.Supplier, error) {
	query := `SELECT id, name, phone, email, address, created_at, updated_at FROM suppliers ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []domain.Supplier
	for rows.Next() {
		var s domain.Supplier
		err := rows.Scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.Address, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return suppliers, nil
}

// Exists checks if a supplier exists
func (r *supplierRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return exists, nil
}

// deviceRepository implements ports.DeviceRepository
type deviceRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *Database, logger *slog.Logger) ports.DeviceRepository {
	return &deviceRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "devices")),
	}
}

// Save creates or updates a device
func (r *deviceRepository) Save(ctx context.Context, device *domain.Device) error {
	query := `
		INSERT INTO devices (id, client_id, brand, model, serial_number, fault, intake_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			brand = EXCLUDED.brand,
			model = EXCLUDED.model,
			serial_number = EXCLUDED.serial_number,
			fault = EXCLUDED.fault`

	_, err := r.db.Exec(ctx, query,
		device.ID, device.ClientID, device.Brand, device.Model,
		device.SerialNumber, device.Fault, device.IntakeDate, device.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save device: %w", err)
	}

	return nil
}

// FindByID retrieves a device by id. Returns nil when no row exists.
func (r *deviceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	query := `SELECT id, client_id, brand, model, serial_number, fault, intake_date, created_at FROM devices WHERE id = $1`

	device := &domain.Device{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&device.ID, &device.ClientID, &device.Brand, &device.Model,
		&device.SerialNumber, &device.Fault, &device.IntakeDate, &device.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find device: %w", err)
	}

	return device, nil
}

// ListByClient returns a client's devices, newest intake first
func (r *deviceRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Device, error) {
	query := `
		SELECT id, client_id, brand, model, serial_number, fault, intake_date, created_at
		FROM devices
		WHERE client_id = $1
		ORDER BY intake_date DESC`

	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var d domain.Device
		err := rows.Scan(&d.ID, &d.ClientID, &d.Brand, &d.Model, &d.SerialNumber, &d.Fault, &d.IntakeDate, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return devices, nil
}

// Exists checks if a device exists
func (r *deviceRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM devices WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return exists, nil
}

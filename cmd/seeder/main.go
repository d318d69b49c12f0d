// cmd/seeder/main.go
//
// Seeds the workshop database with a demo catalog: suppliers, parts,
// clients, devices and a couple of repair orders. Safe to re-run; every
// insert is keyed on a fixed id with ON CONFLICT DO NOTHING.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type seedSupplier struct {
	ID      uuid.UUID
	Name    string
	Phone   string
	Email   string
	Address string
}

type seedPart struct {
	ID         uuid.UUID
	Name       string
	Category   string
	Stock      int
	UnitPrice  decimal.Decimal
	SupplierID uuid.UUID
}

type seedClient struct {
	ID    uuid.UUID
	Name  string
	Phone string
	Email string
}

type seedDevice struct {
	ID       uuid.UUID
	ClientID uuid.UUID
	Brand    string
	Model    string
	Serial   string
	Fault    string
}

type seedUsage struct {
	PartID    uuid.UUID       `json:"part_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price_at_reservation"`
}

type seedOrder struct {
	ID            uuid.UUID
	DeviceID      uuid.UUID
	State         string
	Description   string
	Usages        []seedUsage
	FixedCost     decimal.Decimal
	MarginPercent decimal.Decimal
}

// Fixed ids keep the seed idempotent and let the demo data be referenced
// from docs and smoke tests.
var (
	supplierMobileParts = uuid.MustParse("a1000000-0000-0000-0000-000000000001")
	supplierTechImport  = uuid.MustParse("a1000000-0000-0000-0000-000000000002")

	partScreen12   = uuid.MustParse("b2000000-0000-0000-0000-000000000001")
	partBatteryS21 = uuid.MustParse("b2000000-0000-0000-0000-000000000002")
	partUSBCPort   = uuid.MustParse("b2000000-0000-0000-0000-000000000003")
	partCamera13   = uuid.MustParse("b2000000-0000-0000-0000-000000000004")
	partSpeakerA52 = uuid.MustParse("b2000000-0000-0000-0000-000000000005")

	clientGarcia = uuid.MustParse("c3000000-0000-0000-0000-000000000001")
	clientPerez  = uuid.MustParse("c3000000-0000-0000-0000-000000000002")

	deviceGarciaPhone = uuid.MustParse("d4000000-0000-0000-0000-000000000001")
	devicePerezPhone  = uuid.MustParse("d4000000-0000-0000-0000-000000000002")

	orderScreenSwap = uuid.MustParse("e5000000-0000-0000-0000-000000000001")
	orderBatterySwap = uuid.MustParse("e5000000-0000-0000-0000-000000000002")
)

func seedData() ([]seedSupplier, []seedPart, []seedClient, []seedDevice, []seedOrder) {
	suppliers := []seedSupplier{
		{supplierMobileParts, "MobileParts SA", "+54 11 4555 0101", "ventas@mobileparts.example", "Av. Corrientes 1234, CABA"},
		{supplierTechImport, "TechImport SRL", "+54 11 4555 0202", "pedidos@techimport.example", "Calle Florida 500, CABA"},
	}

	parts := []seedPart{
		{partScreen12, "iPhone 12 Screen", "screens", 10, decimal.RequireFromString("89.99"), supplierMobileParts},
		{partBatteryS21, "Galaxy S21 Battery", "batteries", 25, decimal.RequireFromString("34.50"), supplierMobileParts},
		{partUSBCPort, "USB-C Charging Port", "connectors", 40, decimal.RequireFromString("12.75"), supplierTechImport},
		{partCamera13, "iPhone 13 Rear Camera", "cameras", 8, decimal.RequireFromString("64.00"), supplierTechImport},
		{partSpeakerA52, "Galaxy A52 Speaker", "speakers", 15, decimal.RequireFromString("9.90"), supplierMobileParts},
	}

	clients := []seedClient{
		{clientGarcia, "María García", "+54 11 6555 1111", "maria.garcia@example.com"},
		{clientPerez, "Juan Pérez", "+54 11 6555 2222", "juan.perez@example.com"},
	}

	devices := []seedDevice{
		{deviceGarciaPhone, clientGarcia, "Apple", "iPhone 12", "F17G3XXXXX", "Cracked screen, touch unresponsive"},
		{devicePerezPhone, clientPerez, "Samsung", "Galaxy S21", "R58N7XXXXX", "Battery drains in two hours"},
	}

	orders := []seedOrder{
		{
			ID:          orderScreenSwap,
			DeviceID:    deviceGarciaPhone,
			State:       "pending",
			Description: "Screen replacement",
			Usages: []seedUsage{
				{PartID: partScreen12, Quantity: 1, UnitPrice: decimal.Zero},
			},
			FixedCost:     decimal.RequireFromString("20.00"),
			MarginPercent: decimal.RequireFromString("35.00"),
		},
		{
			ID:          orderBatterySwap,
			DeviceID:    devicePerezPhone,
			State:       "pending",
			Description: "Battery replacement",
			Usages: []seedUsage{
				{PartID: partBatteryS21, Quantity: 1, UnitPrice: decimal.Zero},
			},
			FixedCost:     decimal.RequireFromString("15.00"),
			MarginPercent: decimal.RequireFromString("30.00"),
		},
	}

	return suppliers, parts, clients, devices, orders
}

func main() {
	var (
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun   = flag.Bool("dry-run", false, "Preview changes without modifying database")
	)
	flag.Parse()

	var slogLevel slog.Level
	switch *logLevel {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
	slog.SetDefault(logger)

	dbURL := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "taller"),
		getEnv("DB_PASSWORD", "taller_dev_2025"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "taller_repairs"),
		getEnv("DB_SSL_MODE", "disable"),
	)

	ctx := context.Background()

	suppliers, parts, clients, devices, orders := seedData()

	if *dryRun {
		fmt.Printf("[DRY RUN] Would seed %d suppliers, %d parts, %d clients, %d devices, %d orders\n",
			len(suppliers), len(parts), len(clients), len(devices), len(orders))
		return
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := seed(ctx, pool, suppliers, parts, clients, devices, orders); err != nil {
		logger.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("seed completed",
		slog.Int("suppliers", len(suppliers)),
		slog.Int("parts", len(parts)),
		slog.Int("clients", len(clients)),
		slog.Int("devices", len(devices)),
		slog.Int("orders", len(orders)))

	fmt.Println("Seeding complete:")
	fmt.Printf("  suppliers: %d\n", len(suppliers))
	fmt.Printf("  parts:     %d\n", len(parts))
	fmt.Printf("  clients:   %d\n", len(clients))
	fmt.Printf("  devices:   %d\n", len(devices))
	fmt.Printf("  orders:    %d\n", len(orders))
}

func seed(
	ctx context.Context,
	pool *pgxpool.Pool,
	suppliers []seedSupplier,
	parts []seedPart,
	clients []seedClient,
	devices []seedDevice,
	orders []seedOrder,
) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	batch := &pgx.Batch{}

	for _, s := range suppliers {
		batch.Queue(`
			INSERT INTO suppliers (id, name, phone, email, address, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			ON CONFLICT (id) DO NOTHING`,
			s.ID, s.Name, s.Phone, s.Email, s.Address, now)
	}

	for _, p := range parts {
		batch.Queue(`
			INSERT INTO parts (id, name, category, stock, unit_price, supplier_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.Category, p.Stock, p.UnitPrice, p.SupplierID, now)
	}

	for _, c := range clients {
		batch.Queue(`
			INSERT INTO clients (id, name, phone, email, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (id) DO NOTHING`,
			c.ID, c.Name, c.Phone, c.Email, now)
	}

	for _, d := range devices {
		batch.Queue(`
			INSERT INTO devices (id, client_id, brand, model, serial_number, fault, intake_date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			ON CONFLICT (id) DO NOTHING`,
			d.ID, d.ClientID, d.Brand, d.Model, d.Serial, d.Fault, now)
	}

	for _, o := range orders {
		usagesJSON, err := json.Marshal(o.Usages)
		if err != nil {
			return fmt.Errorf("failed to marshal part usages: %w", err)
		}
		batch.Queue(`
			INSERT INTO repair_orders (id, device_id, state, description, part_usages, fixed_cost, margin_percent, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			ON CONFLICT (id) DO NOTHING`,
			o.ID, o.DeviceID, o.State, o.Description, usagesJSON, o.FixedCost, o.MarginPercent, now)
	}

	br := tx.SendBatch(ctx, batch)
	total := len(suppliers) + len(parts) + len(clients) + len(devices) + len(orders)
	for i := 0; i < total; i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert seed row: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

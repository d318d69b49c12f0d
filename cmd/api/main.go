// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ngiletta/taller-be/internal/adapters/db"
	"github.com/ngiletta/taller-be/internal/adapters/locks"
	redis_a "github.com/ngiletta/taller-be/internal/adapters/redis_adapter"
	"github.com/ngiletta/taller-be/internal/adapters/storage"
	"github.com/ngiletta/taller-be/internal/core/ports"
	"github.com/ngiletta/taller-be/internal/core/services"
	"github.com/ngiletta/taller-be/internal/handlers"
	"github.com/ngiletta/taller-be/internal/handlers/middleware"
	"github.com/ngiletta/taller-be/internal/pkg/config"
	"github.com/ngiletta/taller-be/internal/pkg/logger"
	"github.com/ngiletta/taller-be/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	appLogger := logger.SetupLogger("debug", "json")
	slogger := appLogger.Logger

	slogger.Info("starting repair workshop backend",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	appLogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger = appLogger.Logger
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	if err := runMigrations(ctx, cfg, slogger); err != nil {
		slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		if cfg.IsProduction() {
			os.Exit(1)
		}
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(cfg, deps, appLogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
		)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	cache          ports.CacheRepository
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector

	partsHandler     *handlers.PartsHandler
	ordersHandler    *handlers.OrdersHandler
	invoicesHandler  *handlers.InvoicesHandler
	contactsHandler  *handlers.ContactsHandler
	importHandler    *handlers.ImportHandler
	exportHandler    *handlers.ExportHandler
	dashboardHandler *handlers.DashboardHandler
	healthHandler    *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, slogger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	slogger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, slogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	slogger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient
	deps.cache = redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	fileStore, err := storage.NewS3Store(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, slogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	// Repositories
	partRepo := db.NewPartRepository(database, slogger)
	movementRepo := db.NewMovementRepository(database, slogger)
	orderRepo := db.NewOrderRepository(database, slogger)
	invoiceRepo := db.NewInvoiceRepository(database, slogger)
	importJobRepo := db.NewImportJobRepository(database, slogger)
	clientRepo := db.NewClientRepository(database, slogger)
	supplierRepo := db.NewSupplierRepository(database, slogger)
	deviceRepo := db.NewDeviceRepository(database, slogger)

	var locker ports.ItemLocker
	switch cfg.Locking.Backend {
	case "redis":
		locker = locks.NewRedisLocker(redisClient, slogger)
	default:
		locker = locks.NewMemoryLocker(slogger)
	}
	slogger.Info("item locking configured", slog.String("backend", cfg.Locking.Backend))

	enqueuer := workers.NewEnqueuer(deps.asynqClient, slogger)

	// Services
	ledger := services.NewLedgerService(partRepo, movementRepo, locker, deps.cache, enqueuer, services.LedgerConfig{
		LockWait:          cfg.Locking.WaitTimeout,
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
	}, slogger)
	orderService := services.NewRepairOrderService(orderRepo, deviceRepo, ledger, locker, cfg.Locking.WaitTimeout, slogger)
	invoiceService := services.NewInvoiceReconciliationService(invoiceRepo, supplierRepo, ledger, slogger)
	contactService := services.NewContactService(clientRepo, supplierRepo, deviceRepo, slogger)

	// Handlers
	deps.partsHandler = handlers.NewPartsHandler(ledger, slogger)
	deps.ordersHandler = handlers.NewOrdersHandler(orderService, slogger)
	deps.invoicesHandler = handlers.NewInvoicesHandler(invoiceService, slogger)
	deps.contactsHandler = handlers.NewContactsHandler(contactService, slogger)
	deps.dashboardHandler = handlers.NewDashboardHandler(database, orderRepo, ledger, deps.cache, slogger)
	deps.exportHandler = handlers.NewExportHandler(ledger, orderRepo, deps.cache, slogger)

	maxFileSize := int64(cfg.FileProcessing.PDFMaxSizeMB) * 1024 * 1024
	deps.importHandler = handlers.NewImportHandler(fileStore, importJobRepo, supplierRepo, enqueuer, maxFileSize, slogger)

	deps.healthHandler = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector, cfg, slogger)

	slogger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, appLogger *logger.Logger) *http.Server {
	slogger := appLogger.Logger

	mux := http.NewServeMux()
	registerRoutes(mux, deps, cfg)

	// Apply middleware in reverse order (innermost first)
	var handler http.Handler = mux
	handler = middleware.RequestID(handler)
	handler = middleware.Logger(appLogger)(handler)
	handler = middleware.Recovery(slogger)(handler)

	if cfg.Security.RateLimitRequests > 0 {
		handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}
	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slogger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, cfg *config.Config) {
	apiV1 := "/api/v1"

	if cfg.Server.EnableHealthCheck {
		mux.HandleFunc("GET /health", deps.healthHandler.Health)
		mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)
	}

	// Parts catalog and stock ledger
	mux.HandleFunc("GET "+apiV1+"/parts", deps.partsHandler.ListParts)
	mux.HandleFunc("POST "+apiV1+"/parts", deps.partsHandler.CreatePart)
	mux.HandleFunc("GET "+apiV1+"/parts/low-stock", deps.partsHandler.ListLowStock)
	mux.HandleFunc("GET "+apiV1+"/parts/{id}", deps.partsHandler.GetPart)
	mux.HandleFunc("PUT "+apiV1+"/parts/{id}", deps.partsHandler.UpdatePart)
	mux.HandleFunc("GET "+apiV1+"/parts/{id}/movements", deps.partsHandler.ListMovements)

	// Repair orders
	mux.HandleFunc("GET "+apiV1+"/orders", deps.ordersHandler.ListOrders)
	mux.HandleFunc("POST "+apiV1+"/orders", deps.ordersHandler.CreateOrder)
	mux.HandleFunc("GET "+apiV1+"/orders/{id}", deps.ordersHandler.GetOrder)
	mux.HandleFunc("PATCH "+apiV1+"/orders/{id}", deps.ordersHandler.UpdateOrder)
	mux.HandleFunc("POST "+apiV1+"/orders/{id}/transition", deps.ordersHandler.TransitionOrder)

	// Supplier invoices
	mux.HandleFunc("GET "+apiV1+"/invoices", deps.invoicesHandler.ListInvoices)
	mux.HandleFunc("POST "+apiV1+"/invoices", deps.invoicesHandler.CreateInvoice)
	mux.HandleFunc("GET "+apiV1+"/invoices/{id}", deps.invoicesHandler.GetInvoice)

	// Contacts
	mux.HandleFunc("GET "+apiV1+"/clients", deps.contactsHandler.ListClients)
	mux.HandleFunc("POST "+apiV1+"/clients", deps.contactsHandler.CreateClient)
	mux.HandleFunc("GET "+apiV1+"/clients/{id}", deps.contactsHandler.GetClient)
	mux.HandleFunc("PUT "+apiV1+"/clients/{id}", deps.contactsHandler.UpdateClient)
	mux.HandleFunc("DELETE "+apiV1+"/clients/{id}", deps.contactsHandler.DeleteClient)
	mux.HandleFunc("GET "+apiV1+"/clients/{id}/devices", deps.contactsHandler.ListClientDevices)
	mux.HandleFunc("GET "+apiV1+"/suppliers", deps.contactsHandler.ListSuppliers)
	mux.HandleFunc("POST "+apiV1+"/suppliers", deps.contactsHandler.CreateSupplier)
	mux.HandleFunc("GET "+apiV1+"/suppliers/{id}", deps.contactsHandler.GetSupplier)
	mux.HandleFunc("POST "+apiV1+"/devices", deps.contactsHandler.RegisterDevice)
	mux.HandleFunc("GET "+apiV1+"/devices/{id}", deps.contactsHandler.GetDevice)

	// Invoice PDF imports
	mux.HandleFunc("POST "+apiV1+"/imports/pdf", deps.importHandler.ImportInvoicePDF)
	mux.HandleFunc("GET "+apiV1+"/imports/{id}", deps.importHandler.ImportStatus)

	// Exports
	mux.HandleFunc("GET "+apiV1+"/export/parts.xlsx", deps.exportHandler.ExportPartsExcel)
	mux.HandleFunc("GET "+apiV1+"/export/orders.xlsx", deps.exportHandler.ExportOrdersExcel)
	mux.HandleFunc("GET "+apiV1+"/export/json", deps.exportHandler.ExportJSON)

	// Dashboard
	mux.HandleFunc("GET "+apiV1+"/dashboard", deps.dashboardHandler.GetDashboard)

	// pprof endpoints (development only)
	if cfg.Server.EnablePprof && cfg.IsDevelopment() {
		mux.HandleFunc("GET /debug/pprof/", http.HandlerFunc(http.DefaultServeMux.ServeHTTP))
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, slogger *slog.Logger) error {
	slogger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL:    cfg.GetDatabaseURL(),
		EmbeddedSource: db.Migrations,
		UseEmbedded:    true,
		TableName:      "schema_migrations",
		SchemaName:     "public",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, slogger, 3)
}

// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ngiletta/taller-be/internal/adapters/db"
	"github.com/ngiletta/taller-be/internal/adapters/locks"
	redis_a "github.com/ngiletta/taller-be/internal/adapters/redis_adapter"
	"github.com/ngiletta/taller-be/internal/adapters/storage"
	"github.com/ngiletta/taller-be/internal/core/ports"
	"github.com/ngiletta/taller-be/internal/core/services"
	"github.com/ngiletta/taller-be/internal/pkg/config"
	"github.com/ngiletta/taller-be/internal/pkg/logger"
	"github.com/ngiletta/taller-be/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json").Logger

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat).Logger
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	ctx := context.Background()
	database, err := initDatabase(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slogger.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	fileStore, err := storage.NewS3Store(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, slogger)
	if err != nil {
		slogger.Error("failed to initialize file store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Repositories and services. Restocks from invoice imports go through
	// the same ledger the API uses, so the lock backend must match.
	partRepo := db.NewPartRepository(database, slogger)
	movementRepo := db.NewMovementRepository(database, slogger)
	invoiceRepo := db.NewInvoiceRepository(database, slogger)
	importJobRepo := db.NewImportJobRepository(database, slogger)
	supplierRepo := db.NewSupplierRepository(database, slogger)

	var locker ports.ItemLocker
	switch cfg.Locking.Backend {
	case "redis":
		locker = locks.NewRedisLocker(redisClient, slogger)
	default:
		locker = locks.NewMemoryLocker(slogger)
	}

	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	// Restocks only increase stock, so the ledger never emits low-stock
	// alerts from this process and needs no task enqueuer.
	ledger := services.NewLedgerService(partRepo, movementRepo, locker, cache, nil, services.LedgerConfig{
		LockWait:          cfg.Locking.WaitTimeout,
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
	}, slogger)
	invoiceService := services.NewInvoiceReconciliationService(invoiceRepo, supplierRepo, ledger, slogger)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Asynq.RedisAddr,
			Password: cfg.Asynq.RedisPassword,
			DB:       cfg.Asynq.RedisDB,
		},
		asynq.Config{
			Concurrency:     cfg.Asynq.Concurrency,
			Queues:          cfg.Asynq.Queues,
			StrictPriority:  cfg.Asynq.StrictPriority,
			ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
			RetryDelayFunc:  exponentialBackoff,
			ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
			HealthCheckFunc: healthCheck,
			Logger:          newAsynqLogger(slogger),
		},
	)

	mux := asynq.NewServeMux()

	pdfProcessor := workers.NewInvoicePDFProcessor(fileStore, invoiceService, partRepo, importJobRepo, slogger)
	mux.HandleFunc(ports.TaskInvoicePDF, pdfProcessor.ProcessInvoicePDF)

	notificationProcessor := workers.NewNotificationProcessor(partRepo, cfg, slogger)
	mux.HandleFunc(ports.TaskLowStockAlert, notificationProcessor.LowStockAlert)

	cleanupProcessor := workers.NewCleanupProcessor(fileStore, cfg, slogger)
	mux.HandleFunc(ports.TaskCleanupFiles, func(ctx context.Context, t *asynq.Task) error {
		if err := cleanupProcessor.CleanupTempFiles(ctx, t); err != nil {
			return err
		}
		return cleanupProcessor.CleanupIncoming(ctx, t)
	})

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

func initDatabase(ctx context.Context, cfg *config.Config, slogger *slog.Logger) (*db.Database, error) {
	dbConfig := &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     10, // Fewer connections for worker
		MinConnections:     2,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}

	return db.NewDatabase(ctx, dbConfig, slogger)
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.String("payload", string(task.Payload())),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}

// internal/handlers/health.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ngiletta/taller-be/internal/adapters/db"
	"github.com/ngiletta/taller-be/internal/pkg/config"
)

// HealthHandler reports liveness and readiness of the API and its backing
// services: Postgres, Redis and the import task queue.
type HealthHandler struct {
	db        *db.Database
	redis     *redis.Client
	inspector *asynq.Inspector
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(
	database *db.Database,
	redisClient *redis.Client,
	inspector *asynq.Inspector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		db:        database,
		redis:     redisClient,
		inspector: inspector,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

type componentStatus struct {
	Status  string         `json:"status"`
	Latency string         `json:"latency,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type healthResponse struct {
	Status      string                     `json:"status"`
	Version     string                     `json:"version"`
	Environment string                     `json:"environment"`
	Uptime      string                     `json:"uptime"`
	Timestamp   time.Time                  `json:"timestamp"`
	Services    map[string]componentStatus `json:"services"`
	Runtime     map[string]any             `json:"runtime"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]func(context.Context) componentStatus{
		"database": h.checkDatabase,
		"redis":    h.checkRedis,
	}
	if h.inspector != nil {
		checks["task_queue"] = h.checkTaskQueue
	}

	resp := healthResponse{
		Status:      "healthy",
		Version:     h.config.App.Version,
		Environment: h.config.App.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services:    make(map[string]componentStatus, len(checks)),
		Runtime:     runtimeStats(),
	}

	for name, check := range checks {
		status := check(ctx)
		resp.Services[name] = status
		if status.Status != "healthy" {
			resp.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if resp.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, statusCode, resp)
}

// Readiness handles GET /ready. It only gates on the stores the request path
// cannot run without.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	details := make(map[string]string, 2)
	ready := true

	if err := h.db.Ping(ctx); err != nil {
		ready = false
		details["database"] = "not ready"
	} else {
		details["database"] = "ready"
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		ready = false
		details["redis"] = "not ready"
	} else {
		details["redis"] = "ready"
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, statusCode, map[string]any{
		"ready":   ready,
		"details": details,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) componentStatus {
	start := time.Now()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "database health check failed",
			slog.String("error", err.Error()))
		return componentStatus{Status: "unhealthy", Message: err.Error()}
	}

	details := make(map[string]any)
	for k, v := range h.db.Health(ctx) {
		details[k] = v
	}

	return componentStatus{
		Status:  "healthy",
		Latency: time.Since(start).String(),
		Details: details,
	}
}

func (h *HealthHandler) checkRedis(ctx context.Context) componentStatus {
	start := time.Now()

	if err := h.redis.Ping(ctx).Err(); err != nil {
		h.logger.ErrorContext(ctx, "redis health check failed",
			slog.String("error", err.Error()))
		return componentStatus{Status: "unhealthy", Message: err.Error()}
	}

	pool := h.redis.PoolStats()
	return componentStatus{
		Status:  "healthy",
		Latency: time.Since(start).String(),
		Details: map[string]any{
			"total_conns": pool.TotalConns,
			"idle_conns":  pool.IdleConns,
		},
	}
}

// checkTaskQueue surfaces backlog depth so a stuck import worker shows up in
// monitoring before jobs pile up.
func (h *HealthHandler) checkTaskQueue(ctx context.Context) componentStatus {
	start := time.Now()

	queues, err := h.inspector.Queues()
	if err != nil {
		h.logger.ErrorContext(ctx, "task queue health check failed",
			slog.String("error", err.Error()))
		return componentStatus{Status: "unhealthy", Message: err.Error()}
	}

	details := make(map[string]any, len(queues))
	for _, queue := range queues {
		info, err := h.inspector.GetQueueInfo(queue)
		if err != nil {
			continue
		}
		details[queue] = map[string]any{
			"pending": info.Pending,
			"active":  info.Active,
			"retry":   info.Retry,
			"failed":  info.Archived,
		}
	}

	return componentStatus{
		Status:  "healthy",
		Latency: time.Since(start).String(),
		Details: details,
	}
}

func runtimeStats() map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]any{
		"go_version":      runtime.Version(),
		"goroutines":      runtime.NumGoroutine(),
		"memory_alloc_mb": mem.Alloc / 1024 / 1024,
		"num_gc":          mem.NumGC,
	}
}

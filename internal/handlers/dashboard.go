// internal/handlers/dashboard.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ngiletta/taller-be/internal/adapters/db"
	redis_a "github.com/ngiletta/taller-be/internal/adapters/redis_adapter"
	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// DashboardHandler serves the workshop overview
type DashboardHandler struct {
	db     *db.Database
	orders ports.OrderRepository
	ledger ports.Ledger
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	database *db.Database,
	orders ports.OrderRepository,
	ledger ports.Ledger,
	cache ports.CacheRepository,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		db:     database,
		orders: orders,
		ledger: ledger,
		cache:  cache,
		logger: logger.With(slog.String("handler", "dashboard")),
	}
}

// DashboardData aggregates workshop state for the overview screen
type DashboardData struct {
	Orders    OrderSummary     `json:"orders"`
	Inventory InventorySummary `json:"inventory"`
	LowStock  []domain.Part    `json:"low_stock"`
	Timestamp time.Time        `json:"timestamp"`
}

// OrderSummary breaks open work down by lifecycle state
type OrderSummary struct {
	ByState map[domain.OrderState]int64 `json:"by_state"`
	Open    int64                       `json:"open"`
	Total   int64                       `json:"total"`
}

// InventorySummary describes the parts catalog at a glance
type InventorySummary struct {
	TotalParts    int64           `json:"total_parts"`
	TotalUnits    int64           `json:"total_units"`
	StockValue    decimal.Decimal `json:"stock_value"`
	LowStockCount int             `json:"low_stock_count"`
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cacheKey := redis_a.BuildKey(redis_a.PrefixDashboard, "main")
	var dashboard DashboardData

	err := h.cache.GetOrSet(ctx, cacheKey, &dashboard, func() (interface{}, error) {
		return h.loadDashboardData(ctx)
	}, 5*time.Minute)

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load dashboard",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

func (h *DashboardHandler) loadDashboardData(ctx context.Context) (*DashboardData, error) {
	dashboard := &DashboardData{
		Timestamp: time.Now(),
	}

	counts, err := h.orders.CountByState(ctx)
	if err != nil {
		return nil, err
	}
	dashboard.Orders.ByState = counts
	for state, n := range counts {
		dashboard.Orders.Total += n
		if !state.Terminal() {
			dashboard.Orders.Open += n
		}
	}

	inventoryQuery := `
		SELECT
			COUNT(*) AS total_parts,
			COALESCE(SUM(stock), 0) AS total_units,
			COALESCE(SUM(stock * unit_price), 0) AS stock_value
		FROM parts`

	err = h.db.QueryRow(ctx, inventoryQuery).Scan(
		&dashboard.Inventory.TotalParts,
		&dashboard.Inventory.TotalUnits,
		&dashboard.Inventory.StockValue,
	)
	if err != nil {
		return nil, err
	}

	lowStock, err := h.ledger.ListLowStock(ctx, 0)
	if err != nil {
		return nil, err
	}
	dashboard.LowStock = lowStock
	dashboard.Inventory.LowStockCount = len(lowStock)

	return dashboard, nil
}

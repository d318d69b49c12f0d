// internal/handlers/export.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	redis_a "github.com/ngiletta/taller-be/internal/adapters/redis_adapter"
	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// exportPageSize is the chunk size used when draining the parts catalog.
const exportPageSize = 500

// ExportHandler produces catalog and order exports for the workshop's
// bookkeeping. Excel files are generated in memory; the JSON export is
// cached briefly since accountants tend to poll it.
type ExportHandler struct {
	ledger ports.Ledger
	orders ports.OrderRepository
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(ledger ports.Ledger, orders ports.OrderRepository, cache ports.CacheRepository, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		ledger: ledger,
		orders: orders,
		cache:  cache,
		logger: logger.With(slog.String("handler", "export")),
	}
}

// JSONExport is the payload served by the JSON export endpoint
type JSONExport struct {
	Parts    []*domain.Part       `json:"parts"`
	Orders   []domain.RepairOrder `json:"orders"`
	Metadata ExportMetadata       `json:"metadata"`
}

// ExportMetadata describes when and how the export was produced
type ExportMetadata struct {
	ExportDate  time.Time `json:"export_date"`
	TotalParts  int       `json:"total_parts"`
	TotalOrders int       `json:"total_orders"`
}

// ExportPartsExcel handles GET /api/v1/export/parts.xlsx
func (h *ExportHandler) ExportPartsExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	parts, err := h.allParts(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load parts catalog", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve data")
		return
	}

	headers := []string{"ID", "Name", "Category", "Stock", "Unit Price", "Supplier ID", "Updated At"}
	data, err := generateExcelFile("Parts", headers, len(parts), func(i int) []string {
		p := parts[i]
		return []string{
			p.ID.String(),
			p.Name,
			string(p.Category),
			strconv.Itoa(p.Stock),
			p.UnitPrice.StringFixed(2),
			p.SupplierID.String(),
			p.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	h.writeAttachment(w, r, data, fmt.Sprintf("parts_export_%s.xlsx", time.Now().Format("20060102_150405")))

	h.logger.InfoContext(ctx, "parts export completed", slog.Int("total_rows", len(parts)))
}

// ExportOrdersExcel handles GET /api/v1/export/orders.xlsx. An optional
// ?state query narrows the export to one lifecycle state.
func (h *ExportHandler) ExportOrdersExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var stateFilter *domain.OrderState
	if s := r.URL.Query().Get("state"); s != "" {
		state := domain.OrderState(s)
		if !state.Valid() {
			respondError(w, http.StatusBadRequest, "Invalid order state filter")
			return
		}
		stateFilter = &state
	}

	orders, err := h.orders.List(ctx, stateFilter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load orders", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve data")
		return
	}

	headers := []string{"ID", "Device ID", "State", "Parts Used", "Fixed Cost", "Parts Cost", "Margin %", "Total", "Created At", "Completed At"}
	data, err := generateExcelFile("Orders", headers, len(orders), func(i int) []string {
		o := orders[i]
		total := ""
		if o.Total != nil {
			total = o.Total.StringFixed(2)
		}
		completed := ""
		if o.CompletedAt != nil {
			completed = o.CompletedAt.Format("2006-01-02 15:04:05")
		}
		return []string{
			o.ID.String(),
			o.DeviceID.String(),
			string(o.State),
			strconv.Itoa(len(o.PartUsages)),
			o.FixedCost.StringFixed(2),
			o.VariableCost().StringFixed(2),
			o.MarginPercent.StringFixed(2),
			total,
			o.CreatedAt.Format("2006-01-02 15:04:05"),
			completed,
		}
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	h.writeAttachment(w, r, data, fmt.Sprintf("orders_export_%s.xlsx", time.Now().Format("20060102_150405")))

	h.logger.InfoContext(ctx, "orders export completed", slog.Int("total_rows", len(orders)))
}

// ExportJSON handles GET /api/v1/export/json
func (h *ExportHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cacheKey := redis_a.BuildKey(redis_a.PrefixExport, "json", "full")
	var cached []byte
	if err := h.cache.Get(ctx, cacheKey, &cached); err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.Header().Set("Content-Length", strconv.Itoa(len(cached)))
		if _, err := w.Write(cached); err != nil {
			h.logger.ErrorContext(ctx, "failed to write cached JSON response", slog.String("error", err.Error()))
		}
		return
	}

	parts, err := h.allParts(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load parts catalog", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve data")
		return
	}

	orders, err := h.orders.List(ctx, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load orders", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve data")
		return
	}

	payload := JSONExport{
		Parts:  parts,
		Orders: orders,
		Metadata: ExportMetadata{
			ExportDate:  time.Now(),
			TotalParts:  len(parts),
			TotalOrders: len(orders),
		},
	}

	responseData, err := json.Marshal(payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal JSON export", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to generate JSON")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.Header().Set("Content-Length", strconv.Itoa(len(responseData)))
	if _, err := w.Write(responseData); err != nil {
		h.logger.ErrorContext(ctx, "failed to write JSON response", slog.String("error", err.Error()))
		return
	}

	// Cache off the request path so a slow Redis never delays the response.
	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.cache.SetWithTTL(cacheCtx, cacheKey, responseData, 5*time.Minute); err != nil {
			h.logger.WarnContext(cacheCtx, "failed to cache JSON export", slog.String("error", err.Error()))
		}
	}()

	h.logger.InfoContext(ctx, "JSON export completed",
		slog.Int("total_parts", len(parts)),
		slog.Int("total_orders", len(orders)))
}

// allParts drains the catalog page by page
func (h *ExportHandler) allParts(ctx context.Context) ([]*domain.Part, error) {
	var parts []*domain.Part
	for page := 1; ; page++ {
		result, err := h.ledger.ListItems(ctx, ports.PartListParams{
			Page:     page,
			PageSize: exportPageSize,
			SortBy:   "name",
		})
		if err != nil {
			return nil, err
		}
		parts = append(parts, result.Items...)
		if page >= result.TotalPages || len(result.Items) == 0 {
			break
		}
	}
	return parts, nil
}

func (h *ExportHandler) writeAttachment(w http.ResponseWriter, r *http.Request, data []byte, filename string) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write Excel response", slog.String("error", err.Error()))
	}
}

// generateExcelFile builds a single-sheet workbook in memory
func generateExcelFile(sheetName string, headers []string, rows int, rowAt func(int) []string) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, header := range headers {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	for i := 0; i < rows; i++ {
		dataRow := sheet.AddRow()
		for _, value := range rowAt(i) {
			cell := dataRow.AddCell()
			cell.Value = value
		}
	}

	for i := range headers {
		sheet.SetColWidth(i, i, 18)
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}

	return buffer.Bytes(), nil
}

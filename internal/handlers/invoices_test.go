// internal/handlers/invoices_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
	"github.com/ngiletta/taller-be/internal/handlers"
	"github.com/ngiletta/taller-be/test/helpers"
	"github.com/ngiletta/taller-be/test/mocks"
)

func TestInvoicesHandler_CreateInvoice(t *testing.T) {
	supplierID := uuid.New()
	partID := uuid.New()

	validBody := `{"supplier_id":"` + supplierID.String() + `","number":"FC-0001-00001234",` +
		`"date":"2025-06-15T00:00:00Z",` +
		`"line_items":[{"part_id":"` + partID.String() + `","quantity":10,"unit_price":"45.00"}],` +
		`"declared_total":"450.00"}`

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockInvoiceService)
		expectedStatus int
		checkHeaders   func(*testing.T, http.Header)
	}{
		{
			name: "successful_reconciliation",
			body: validBody,
			setupMocks: func(m *mocks.MockInvoiceService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, params ports.CreateInvoiceParams) (*domain.Invoice, error) {
						assert.Equal(t, supplierID, params.SupplierID)
						assert.Equal(t, "FC-0001-00001234", params.Number)
						require.Len(t, params.LineItems, 1)
						assert.True(t, params.DeclaredTotal.Equal(decimal.RequireFromString("450.00")))
						return &domain.Invoice{
							ID:         uuid.New(),
							SupplierID: params.SupplierID,
							Number:     params.Number,
							Date:       params.Date,
							LineItems:  params.LineItems,
							Total:      params.DeclaredTotal,
							CreatedAt:  time.Now(),
						}, nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed_json",
			body:           `{"supplier_id":`,
			setupMocks:     func(m *mocks.MockInvoiceService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "declared_total_mismatch",
			body: validBody,
			setupMocks: func(m *mocks.MockInvoiceService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, domain.NewValidationError("declared_total",
						"declared total 450.00 does not match line sum 451.00"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown_supplier",
			body: validBody,
			setupMocks: func(m *mocks.MockInvoiceService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, &domain.NotFoundError{Entity: "supplier", ID: supplierID.String()})
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "ledger_contention_is_retryable",
			body: validBody,
			setupMocks: func(m *mocks.MockInvoiceService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, &domain.ConflictError{
						Key: partID.String(),
						Err: ports.ErrLockNotObtained,
					})
			},
			expectedStatus: http.StatusTooManyRequests,
			checkHeaders: func(t *testing.T, h http.Header) {
				assert.Equal(t, "1", h.Get("Retry-After"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := mocks.NewMockInvoiceService(ctrl)
			tt.setupMocks(service)

			handler := handlers.NewInvoicesHandler(service, helpers.TestLogger())

			req := httptest.NewRequest("POST", "/api/v1/invoices", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateInvoice(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkHeaders != nil {
				tt.checkHeaders(t, w.Header())
			}
		})
	}
}

func TestInvoicesHandler_GetInvoice(t *testing.T) {
	invoiceID := uuid.New()

	t.Run("found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service := mocks.NewMockInvoiceService(ctrl)
		service.EXPECT().
			Get(gomock.Any(), invoiceID).
			Return(&domain.Invoice{ID: invoiceID, Number: "FC-0001-00001234"}, nil)

		handler := handlers.NewInvoicesHandler(service, helpers.TestLogger())

		req := httptest.NewRequest("GET", "/api/v1/invoices/"+invoiceID.String(), nil)
		req.SetPathValue("id", invoiceID.String())
		w := httptest.NewRecorder()

		handler.GetInvoice(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var invoice domain.Invoice
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invoice))
		assert.Equal(t, invoiceID, invoice.ID)
	})

	t.Run("invalid_id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		handler := handlers.NewInvoicesHandler(mocks.NewMockInvoiceService(ctrl), helpers.TestLogger())

		req := httptest.NewRequest("GET", "/api/v1/invoices/not-a-uuid", nil)
		req.SetPathValue("id", "not-a-uuid")
		w := httptest.NewRecorder()

		handler.GetInvoice(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not_found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service := mocks.NewMockInvoiceService(ctrl)
		service.EXPECT().
			Get(gomock.Any(), invoiceID).
			Return(nil, &domain.NotFoundError{Entity: "invoice", ID: invoiceID.String()})

		handler := handlers.NewInvoicesHandler(service, helpers.TestLogger())

		req := httptest.NewRequest("GET", "/api/v1/invoices/"+invoiceID.String(), nil)
		req.SetPathValue("id", invoiceID.String())
		w := httptest.NewRecorder()

		handler.GetInvoice(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInvoicesHandler_ListInvoices(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := mocks.NewMockInvoiceService(ctrl)
	service.EXPECT().
		List(gomock.Any()).
		Return([]domain.Invoice{
			{ID: uuid.New(), Number: "FC-0001-00001234"},
			{ID: uuid.New(), Number: "FC-0001-00001235"},
		}, nil)

	handler := handlers.NewInvoicesHandler(service, helpers.TestLogger())

	req := httptest.NewRequest("GET", "/api/v1/invoices", nil)
	w := httptest.NewRecorder()

	handler.ListInvoices(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Items []domain.Invoice `json:"items"`
		Count int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Count)
}

// internal/handlers/orders_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
	"github.com/ngiletta/taller-be/internal/handlers"
	"github.com/ngiletta/taller-be/test/helpers"
	"github.com/ngiletta/taller-be/test/mocks"
)

func TestOrdersHandler_CreateOrder(t *testing.T) {
	deviceID := uuid.New()
	partID := uuid.New()

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockOrderService)
		expectedStatus int
	}{
		{
			name: "successful_create",
			body: `{"device_id":"` + deviceID.String() + `","description":"Screen replacement",` +
				`"part_usages":[{"part_id":"` + partID.String() + `","quantity":1}],` +
				`"fixed_cost":"20.00","margin_percent":"35"}`,
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, params ports.CreateOrderParams) (*domain.RepairOrder, error) {
						assert.Equal(t, deviceID, params.DeviceID)
						require.Len(t, params.PartUsages, 1)
						assert.Equal(t, 1, params.PartUsages[0].Quantity)
						return helpers.CreateTestOrder(deviceID), nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed_json",
			body:           `{"device_id":`,
			setupMocks:     func(m *mocks.MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown_device",
			body: `{"device_id":"` + deviceID.String() + `","fixed_cost":"20.00","margin_percent":"35"}`,
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, &domain.NotFoundError{Entity: "device", ID: deviceID.String()})
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "validation_error",
			body: `{"device_id":"` + deviceID.String() + `","margin_percent":"-5"}`,
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, domain.NewValidationError("margin_percent", "cannot be negative"))
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := mocks.NewMockOrderService(ctrl)
			tt.setupMocks(service)

			handler := handlers.NewOrdersHandler(service, helpers.TestLogger())

			req := httptest.NewRequest("POST", "/api/v1/orders", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateOrder(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestOrdersHandler_TransitionOrder(t *testing.T) {
	orderID := uuid.New()

	tests := []struct {
		name           string
		orderID        string
		body           string
		setupMocks     func(*mocks.MockOrderService)
		expectedStatus int
		checkHeaders   func(*testing.T, http.Header)
	}{
		{
			name:    "successful_transition",
			orderID: orderID.String(),
			body:    `{"state":"in_progress"}`,
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Transition(gomock.Any(), orderID, domain.StateInProgress).
					Return(helpers.CreateTestOrder(uuid.New(), func(o *domain.RepairOrder) {
						o.ID = orderID
						o.State = domain.StateInProgress
					}), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown_state_rejected_before_the_service",
			orderID:        orderID.String(),
			body:           `{"state":"shipped"}`,
			setupMocks:     func(m *mocks.MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_order_id",
			orderID:        "not-a-uuid",
			body:           `{"state":"in_progress"}`,
			setupMocks:     func(m *mocks.MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "invalid_transition_is_conflict",
			orderID: orderID.String(),
			body:    `{"state":"delivered"}`,
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Transition(gomock.Any(), orderID, domain.StateDelivered).
					Return(nil, &domain.InvalidTransitionError{
						From: domain.StatePending, To: domain.StateDelivered,
					})
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:    "insufficient_stock_is_conflict",
			orderID: orderID.String(),
			body:    `{"state":"in_progress"}`,
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Transition(gomock.Any(), orderID, domain.StateInProgress).
					Return(nil, &domain.InsufficientStockError{
						ItemID: uuid.New(), Requested: 4, Available: 2,
					})
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:    "lock_contention_is_retryable",
			orderID: orderID.String(),
			body:    `{"state":"in_progress"}`,
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Transition(gomock.Any(), orderID, domain.StateInProgress).
					Return(nil, &domain.ConflictError{
						Key: "order:" + orderID.String(),
						Err: ports.ErrLockNotObtained,
					})
			},
			expectedStatus: http.StatusTooManyRequests,
			checkHeaders: func(t *testing.T, h http.Header) {
				assert.Equal(t, "1", h.Get("Retry-After"))
			},
		},
		{
			name:    "storage_failure_is_500",
			orderID: orderID.String(),
			body:    `{"state":"in_progress"}`,
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Transition(gomock.Any(), orderID, domain.StateInProgress).
					Return(nil, &domain.StorageError{Op: "save_order", Err: errors.New("connection reset")})
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := mocks.NewMockOrderService(ctrl)
			tt.setupMocks(service)

			handler := handlers.NewOrdersHandler(service, helpers.TestLogger())

			req := httptest.NewRequest("POST", "/api/v1/orders/"+tt.orderID+"/transition",
				bytes.NewBufferString(tt.body))
			req.SetPathValue("id", tt.orderID)
			w := httptest.NewRecorder()

			handler.TransitionOrder(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkHeaders != nil {
				tt.checkHeaders(t, w.Header())
			}
		})
	}
}

func TestOrdersHandler_ListOrders(t *testing.T) {
	t.Run("state_filter_passed_through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		pending := domain.StatePending
		service := mocks.NewMockOrderService(ctrl)
		service.EXPECT().
			List(gomock.Any(), &pending).
			Return([]domain.RepairOrder{*helpers.CreateTestOrder(uuid.New())}, nil)

		handler := handlers.NewOrdersHandler(service, helpers.TestLogger())

		req := httptest.NewRequest("GET", "/api/v1/orders?state=pending", nil)
		w := httptest.NewRecorder()

		handler.ListOrders(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Items []domain.RepairOrder `json:"items"`
			Count int                  `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 1, response.Count)
	})

	t.Run("unknown_state_filter_rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		handler := handlers.NewOrdersHandler(mocks.NewMockOrderService(ctrl), helpers.TestLogger())

		req := httptest.NewRequest("GET", "/api/v1/orders?state=archived", nil)
		w := httptest.NewRecorder()

		handler.ListOrders(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrdersHandler_UpdateOrder(t *testing.T) {
	orderID := uuid.New()

	t.Run("draft_update_succeeds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service := mocks.NewMockOrderService(ctrl)
		service.EXPECT().
			UpdateDraft(gomock.Any(), orderID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, update ports.OrderDraftUpdate) (*domain.RepairOrder, error) {
				require.NotNil(t, update.Notes)
				assert.Equal(t, "client approved", *update.Notes)
				return helpers.CreateTestOrder(uuid.New(), func(o *domain.RepairOrder) {
					o.ID = orderID
					o.Notes = *update.Notes
				}), nil
			})

		handler := handlers.NewOrdersHandler(service, helpers.TestLogger())

		req := httptest.NewRequest("PATCH", "/api/v1/orders/"+orderID.String(),
			bytes.NewBufferString(`{"notes":"client approved"}`))
		req.SetPathValue("id", orderID.String())
		w := httptest.NewRecorder()

		handler.UpdateOrder(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non_pending_update_is_conflict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service := mocks.NewMockOrderService(ctrl)
		service.EXPECT().
			UpdateDraft(gomock.Any(), orderID, gomock.Any()).
			Return(nil, &domain.InvalidTransitionError{
				From: domain.StateReady, To: domain.StateReady,
			})

		handler := handlers.NewOrdersHandler(service, helpers.TestLogger())

		req := httptest.NewRequest("PATCH", "/api/v1/orders/"+orderID.String(),
			bytes.NewBufferString(`{"fixed_cost":"30.00"}`))
		req.SetPathValue("id", orderID.String())
		w := httptest.NewRecorder()

		handler.UpdateOrder(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

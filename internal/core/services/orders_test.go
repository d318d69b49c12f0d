// internal/core/services/orders_test.go
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ngiletta/taller-be/internal/adapters/locks"
	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
	"github.com/ngiletta/taller-be/internal/core/services"
	"github.com/ngiletta/taller-be/test/helpers"
	"github.com/ngiletta/taller-be/test/mocks"
)

// passthroughScope makes the mocked ledger behave like the real one for lock
// scoping: WithItems just runs fn with the ambient context.
func passthroughScope(m *mocks.MockLedger) {
	m.EXPECT().
		WithItems(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ []uuid.UUID, fn func(context.Context) error) error {
			return fn(ctx)
		}).
		AnyTimes()
}

func newTestOrderService(t *testing.T, orders ports.OrderRepository, devices ports.DeviceRepository, ledger ports.Ledger) *services.RepairOrderService {
	t.Helper()
	return services.NewRepairOrderService(
		orders, devices, ledger,
		locks.NewMemoryLocker(helpers.TestLogger()),
		time.Second,
		helpers.TestLogger(),
	)
}

func TestRepairOrderService_Create(t *testing.T) {
	deviceID := uuid.New()
	partID := uuid.New()

	tests := []struct {
		name          string
		params        ports.CreateOrderParams
		setupMocks    func(*mocks.MockOrderRepository, *mocks.MockDeviceRepository)
		expectedError bool
		errorAs       any
		errorContains string
	}{
		{
			name: "successful_create_starts_pending",
			params: ports.CreateOrderParams{
				DeviceID:      deviceID,
				Description:   "Screen replacement",
				PartUsages:    []ports.OrderPartParams{{PartID: partID, Quantity: 1}},
				FixedCost:     decimal.RequireFromString("20.00"),
				MarginPercent: decimal.RequireFromString("35"),
			},
			setupMocks: func(o *mocks.MockOrderRepository, d *mocks.MockDeviceRepository) {
				d.EXPECT().Exists(gomock.Any(), deviceID).Return(true, nil)
				o.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, order *domain.RepairOrder) error {
						assert.Equal(t, domain.StatePending, order.State)
						assert.Nil(t, order.Total, "total must stay unset until the first transition")
						return nil
					})
			},
		},
		{
			name: "unknown_device_rejected",
			params: ports.CreateOrderParams{
				DeviceID:  deviceID,
				FixedCost: decimal.RequireFromString("20.00"),
			},
			setupMocks: func(o *mocks.MockOrderRepository, d *mocks.MockDeviceRepository) {
				d.EXPECT().Exists(gomock.Any(), deviceID).Return(false, nil)
			},
			expectedError: true,
			errorAs:       new(*domain.NotFoundError),
		},
		{
			name: "missing_device_id_rejected",
			params: ports.CreateOrderParams{
				FixedCost: decimal.RequireFromString("20.00"),
			},
			setupMocks:    func(o *mocks.MockOrderRepository, d *mocks.MockDeviceRepository) {},
			expectedError: true,
			errorAs:       new(*domain.ValidationError),
			errorContains: "device_id",
		},
		{
			name: "duplicate_part_usage_rejected",
			params: ports.CreateOrderParams{
				DeviceID: deviceID,
				PartUsages: []ports.OrderPartParams{
					{PartID: partID, Quantity: 1},
					{PartID: partID, Quantity: 2},
				},
			},
			setupMocks:    func(o *mocks.MockOrderRepository, d *mocks.MockDeviceRepository) {},
			expectedError: true,
			errorAs:       new(*domain.ValidationError),
			errorContains: "duplicate part",
		},
		{
			name: "negative_margin_rejected",
			params: ports.CreateOrderParams{
				DeviceID:      deviceID,
				MarginPercent: decimal.RequireFromString("-10"),
			},
			setupMocks:    func(o *mocks.MockOrderRepository, d *mocks.MockDeviceRepository) {},
			expectedError: true,
			errorAs:       new(*domain.ValidationError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			orderRepo := mocks.NewMockOrderRepository(ctrl)
			deviceRepo := mocks.NewMockDeviceRepository(ctrl)
			tt.setupMocks(orderRepo, deviceRepo)

			svc := newTestOrderService(t, orderRepo, deviceRepo, mocks.NewMockLedger(ctrl))
			order, err := svc.Create(context.Background(), tt.params)

			if tt.expectedError {
				require.Error(t, err)
				if tt.errorAs != nil {
					assert.True(t, errors.As(err, tt.errorAs), "unexpected error type: %T", err)
				}
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, order.ID)
			assert.Equal(t, domain.StatePending, order.State)
		})
	}
}

func TestRepairOrderService_Start(t *testing.T) {
	partID := uuid.New()

	t.Run("start_reserves_and_snapshots_prices", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		order := helpers.CreateTestOrder(uuid.New(), func(o *domain.RepairOrder) {
			o.PartUsages = []domain.PartUsage{{PartID: partID, Quantity: 1}}
		})

		orderRepo := mocks.NewMockOrderRepository(ctrl)
		ledger := mocks.NewMockLedger(ctrl)
		passthroughScope(ledger)

		orderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)
		ledger.EXPECT().
			Reserve(gomock.Any(), partID, 1, order.ID.String()).
			Return(helpers.CreateTestPart(func(p *domain.Part) {
				p.ID = partID
				p.UnitPrice = decimal.RequireFromString("89.99")
			}), nil)
		orderRepo.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, saved *domain.RepairOrder) error {
				assert.Equal(t, domain.StateInProgress, saved.State)
				require.NotNil(t, saved.Total)
				assert.Equal(t, "148.49", saved.Total.StringFixed(2))
				assert.Equal(t, "89.99", saved.PartUsages[0].UnitPrice.StringFixed(2))
				return nil
			})

		svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), ledger)
		updated, err := svc.Transition(context.Background(), order.ID, domain.StateInProgress)
		require.NoError(t, err)
		assert.Equal(t, domain.StateInProgress, updated.State)
	})

	t.Run("failed_reserve_rolls_back_earlier_reserves", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		partA := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
		partB := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")
		order := helpers.CreateTestOrder(uuid.New(), func(o *domain.RepairOrder) {
			o.PartUsages = []domain.PartUsage{
				{PartID: partA, Quantity: 1},
				{PartID: partB, Quantity: 4},
			}
		})
		ref := order.ID.String()

		orderRepo := mocks.NewMockOrderRepository(ctrl)
		ledger := mocks.NewMockLedger(ctrl)
		passthroughScope(ledger)

		orderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)
		ledger.EXPECT().
			Reserve(gomock.Any(), partA, 1, ref).
			Return(helpers.CreateTestPart(func(p *domain.Part) { p.ID = partA }), nil)
		ledger.EXPECT().
			Reserve(gomock.Any(), partB, 4, ref).
			Return(nil, &domain.InsufficientStockError{ItemID: partB, Requested: 4, Available: 2})
		// The first reservation is undone; the order is never saved.
		ledger.EXPECT().
			Release(gomock.Any(), partA, 1, ref+"/rollback").
			Return(nil)

		svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), ledger)
		_, err := svc.Transition(context.Background(), order.ID, domain.StateInProgress)

		var insufficient *domain.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, partB, insufficient.ItemID)
	})

	t.Run("failed_save_rolls_back_reserves", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		order := helpers.CreateTestOrder(uuid.New(), func(o *domain.RepairOrder) {
			o.PartUsages = []domain.PartUsage{{PartID: partID, Quantity: 3}}
		})
		ref := order.ID.String()

		orderRepo := mocks.NewMockOrderRepository(ctrl)
		ledger := mocks.NewMockLedger(ctrl)
		passthroughScope(ledger)

		orderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)
		ledger.EXPECT().
			Reserve(gomock.Any(), partID, 3, ref).
			Return(helpers.CreateTestPart(func(p *domain.Part) { p.ID = partID }), nil)
		orderRepo.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			Return(errors.New("connection reset"))
		// The reservation is undone inside the same lock scope, so a retry
		// sees the original stock.
		ledger.EXPECT().
			Release(gomock.Any(), partID, 3, ref+"/rollback").
			Return(nil)

		svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), ledger)
		_, err := svc.Transition(context.Background(), order.ID, domain.StateInProgress)

		var storage *domain.StorageError
		require.ErrorAs(t, err, &storage)
	})
}

func TestRepairOrderService_Finish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	partID := uuid.New()
	order := helpers.CreateTestOrder(uuid.New(), func(o *domain.RepairOrder) {
		o.State = domain.StateInProgress
		o.PartUsages = []domain.PartUsage{{
			PartID:    partID,
			Quantity:  1,
			UnitPrice: decimal.RequireFromString("89.99"),
		}}
		total := decimal.RequireFromString("148.49")
		o.Total = &total
	})

	orderRepo := mocks.NewMockOrderRepository(ctrl)
	ledger := mocks.NewMockLedger(ctrl)
	passthroughScope(ledger)

	orderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)
	ledger.EXPECT().Commit(gomock.Any(), partID, 1, order.ID.String()).Return(nil)
	orderRepo.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, saved *domain.RepairOrder) error {
			assert.Equal(t, domain.StateReady, saved.State)
			require.NotNil(t, saved.Total)
			assert.Equal(t, "148.49", saved.Total.StringFixed(2))
			require.NotNil(t, saved.CompletedAt)
			return nil
		})

	svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), ledger)
	updated, err := svc.Transition(context.Background(), order.ID, domain.StateReady)
	require.NoError(t, err)
	assert.Equal(t, domain.StateReady, updated.State)
	assert.NotNil(t, updated.CompletedAt)
}

func TestRepairOrderService_Deliver(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Now()
	frozen := decimal.RequireFromString("148.49")
	order := helpers.CreateTestOrder(uuid.New(), func(o *domain.RepairOrder) {
		o.State = domain.StateReady
		o.Total = &frozen
		o.CompletedAt = &now
	})

	orderRepo := mocks.NewMockOrderRepository(ctrl)
	orderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)
	// Delivery is a marker only: the ledger mock gets no expectations, and
	// the frozen total must come through untouched.
	orderRepo.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, saved *domain.RepairOrder) error {
			assert.Equal(t, domain.StateDelivered, saved.State)
			assert.True(t, saved.Total.Equal(frozen))
			return nil
		})

	svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), mocks.NewMockLedger(ctrl))
	updated, err := svc.Transition(context.Background(), order.ID, domain.StateDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.StateDelivered, updated.State)
}

func TestRepairOrderService_Cancel(t *testing.T) {
	partID := uuid.New()

	t.Run("cancel_pending_has_no_ledger_effect", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		order := helpers.CreateTestOrder(uuid.New(), func(o *domain.RepairOrder) {
			o.PartUsages = []domain.PartUsage{{PartID: partID, Quantity: 2}}
		})

		orderRepo := mocks.NewMockOrderRepository(ctrl)
		orderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)
		orderRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), mocks.NewMockLedger(ctrl))
		updated, err := svc.Transition(context.Background(), order.ID, domain.StateCancelled)
		require.NoError(t, err)
		assert.Equal(t, domain.StateCancelled, updated.State)
	})

	t.Run("cancel_in_progress_releases_reservations", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		order := helpers.CreateTestOrder(uuid.New(), func(o *domain.RepairOrder) {
			o.State = domain.StateInProgress
			o.PartUsages = []domain.PartUsage{{
				PartID:    partID,
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("89.99"),
			}}
		})

		orderRepo := mocks.NewMockOrderRepository(ctrl)
		ledger := mocks.NewMockLedger(ctrl)
		passthroughScope(ledger)

		orderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)
		ledger.EXPECT().
			Release(gomock.Any(), partID, 2, order.ID.String()).
			Return(nil)
		orderRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), ledger)
		updated, err := svc.Transition(context.Background(), order.ID, domain.StateCancelled)
		require.NoError(t, err)
		assert.Equal(t, domain.StateCancelled, updated.State)
	})

	t.Run("failed_save_re_reserves_released_stock", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		partA := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
		partB := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")
		order := helpers.CreateTestOrder(uuid.New(), func(o *domain.RepairOrder) {
			o.State = domain.StateInProgress
			o.PartUsages = []domain.PartUsage{
				{PartID: partA, Quantity: 3, UnitPrice: decimal.RequireFromString("89.99")},
				{PartID: partB, Quantity: 1, UnitPrice: decimal.RequireFromString("12.50")},
			}
		})
		ref := order.ID.String()

		orderRepo := mocks.NewMockOrderRepository(ctrl)
		ledger := mocks.NewMockLedger(ctrl)
		passthroughScope(ledger)

		orderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)
		ledger.EXPECT().Release(gomock.Any(), partA, 3, ref).Return(nil)
		ledger.EXPECT().Release(gomock.Any(), partB, 1, ref).Return(nil)
		orderRepo.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			Return(errors.New("connection reset"))
		// Both releases are withdrawn again under the held locks: the order
		// stays in progress and a retried cancel must not inflate stock.
		ledger.EXPECT().
			Reserve(gomock.Any(), partB, 1, ref+"/rollback").
			Return(helpers.CreateTestPart(func(p *domain.Part) { p.ID = partB }), nil)
		ledger.EXPECT().
			Reserve(gomock.Any(), partA, 3, ref+"/rollback").
			Return(helpers.CreateTestPart(func(p *domain.Part) { p.ID = partA }), nil)

		svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), ledger)
		_, err := svc.Transition(context.Background(), order.ID, domain.StateCancelled)

		var storage *domain.StorageError
		require.ErrorAs(t, err, &storage)
	})
}

func TestRepairOrderService_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name   string
		from   domain.OrderState
		target domain.OrderState
	}{
		{name: "pending_cannot_skip_to_ready", from: domain.StatePending, target: domain.StateReady},
		{name: "pending_cannot_skip_to_delivered", from: domain.StatePending, target: domain.StateDelivered},
		{name: "ready_cannot_move_backward", from: domain.StateReady, target: domain.StateInProgress},
		{name: "ready_cannot_cancel", from: domain.StateReady, target: domain.StateCancelled},
		{name: "delivered_is_terminal", from: domain.StateDelivered, target: domain.StateCancelled},
		{name: "cancelled_is_terminal", from: domain.StateCancelled, target: domain.StateInProgress},
		{name: "same_state_is_not_a_transition", from: domain.StatePending, target: domain.StatePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			order := helpers.CreateTestOrder(uuid.New(), func(o *domain.RepairOrder) {
				o.State = tt.from
			})

			orderRepo := mocks.NewMockOrderRepository(ctrl)
			orderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)

			svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), mocks.NewMockLedger(ctrl))
			_, err := svc.Transition(context.Background(), order.ID, tt.target)

			var invalid *domain.InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.from, invalid.From)
			assert.Equal(t, tt.target, invalid.To)
		})
	}

	t.Run("unknown_state_is_a_validation_error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc := newTestOrderService(t,
			mocks.NewMockOrderRepository(ctrl),
			mocks.NewMockDeviceRepository(ctrl),
			mocks.NewMockLedger(ctrl))
		_, err := svc.Transition(context.Background(), uuid.New(), domain.OrderState("shipped"))

		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
	})

	t.Run("unknown_order_is_not_found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		id := uuid.New()
		orderRepo := mocks.NewMockOrderRepository(ctrl)
		orderRepo.EXPECT().FindByID(gomock.Any(), id).Return(nil, nil)

		svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), mocks.NewMockLedger(ctrl))
		_, err := svc.Transition(context.Background(), id, domain.StateInProgress)

		var notFound *domain.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestRepairOrderService_TransitionConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	locker := mocks.NewMockItemLocker(ctrl)
	locker.EXPECT().
		Acquire(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, ports.ErrLockNotObtained)

	svc := services.NewRepairOrderService(
		mocks.NewMockOrderRepository(ctrl),
		mocks.NewMockDeviceRepository(ctrl),
		mocks.NewMockLedger(ctrl),
		locker,
		10*time.Millisecond,
		helpers.TestLogger(),
	)

	_, err := svc.Transition(context.Background(), uuid.New(), domain.StateInProgress)

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.True(t, domain.IsRetryable(err))
}

func TestRepairOrderService_UpdateDraft(t *testing.T) {
	partID := uuid.New()

	t.Run("pending_order_accepts_updates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		order := helpers.CreateTestOrder(uuid.New())

		newFixed := decimal.RequireFromString("30.00")
		newUsages := []ports.OrderPartParams{{PartID: partID, Quantity: 2}}
		newNotes := "client approved the quote"

		orderRepo := mocks.NewMockOrderRepository(ctrl)
		orderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)
		orderRepo.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, saved *domain.RepairOrder) error {
				assert.True(t, saved.FixedCost.Equal(newFixed))
				require.Len(t, saved.PartUsages, 1)
				assert.Equal(t, 2, saved.PartUsages[0].Quantity)
				assert.Equal(t, newNotes, saved.Notes)
				return nil
			})

		svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), mocks.NewMockLedger(ctrl))
		updated, err := svc.UpdateDraft(context.Background(), order.ID, ports.OrderDraftUpdate{
			PartUsages: &newUsages,
			FixedCost:  &newFixed,
			Notes:      &newNotes,
		})
		require.NoError(t, err)
		assert.True(t, updated.FixedCost.Equal(newFixed))
	})

	t.Run("non_pending_order_rejects_updates", func(t *testing.T) {
		for _, state := range []domain.OrderState{
			domain.StateInProgress, domain.StateReady, domain.StateDelivered, domain.StateCancelled,
		} {
			t.Run(string(state), func(t *testing.T) {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				order := helpers.CreateTestOrder(uuid.New(), func(o *domain.RepairOrder) {
					o.State = state
				})

				orderRepo := mocks.NewMockOrderRepository(ctrl)
				orderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)

				svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), mocks.NewMockLedger(ctrl))
				newFixed := decimal.RequireFromString("30.00")
				_, err := svc.UpdateDraft(context.Background(), order.ID, ports.OrderDraftUpdate{
					FixedCost: &newFixed,
				})

				var invalid *domain.InvalidTransitionError
				require.ErrorAs(t, err, &invalid)
			})
		}
	})

	t.Run("invalid_update_is_rejected_before_saving", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		order := helpers.CreateTestOrder(uuid.New())

		orderRepo := mocks.NewMockOrderRepository(ctrl)
		orderRepo.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)

		svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), mocks.NewMockLedger(ctrl))
		negative := decimal.RequireFromString("-1.00")
		_, err := svc.UpdateDraft(context.Background(), order.ID, ports.OrderDraftUpdate{
			FixedCost: &negative,
		})

		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
	})
}

func TestRepairOrderService_List(t *testing.T) {
	t.Run("invalid_state_filter_rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc := newTestOrderService(t,
			mocks.NewMockOrderRepository(ctrl),
			mocks.NewMockDeviceRepository(ctrl),
			mocks.NewMockLedger(ctrl))

		bogus := domain.OrderState("archived")
		_, err := svc.List(context.Background(), &bogus)

		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
	})

	t.Run("passes_filter_through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		state := domain.StatePending
		orderRepo := mocks.NewMockOrderRepository(ctrl)
		orderRepo.EXPECT().
			List(gomock.Any(), &state).
			Return([]domain.RepairOrder{*helpers.CreateTestOrder(uuid.New())}, nil)

		svc := newTestOrderService(t, orderRepo, mocks.NewMockDeviceRepository(ctrl), mocks.NewMockLedger(ctrl))
		orders, err := svc.List(context.Background(), &state)
		require.NoError(t, err)
		assert.Len(t, orders, 1)
	})
}

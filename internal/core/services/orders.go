// internal/core/services/orders.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// orderLockPrefix keeps per-order transition locks disjoint from the
// ledger's item locks, which use bare uuids as keys.
const orderLockPrefix = "order:"

// RepairOrderService owns the repair order state machine. Transitions on the
// same order are serialized through the locker; ledger effects run inside a
// single multi-item lock scope so no partial reservation is ever observable.
type RepairOrderService struct {
	orders   ports.OrderRepository
	devices  ports.DeviceRepository
	ledger   ports.Ledger
	locker   ports.ItemLocker
	lockWait time.Duration
	logger   *slog.Logger
}

// Statically assert that *RepairOrderService implements the OrderService interface.
var _ ports.OrderService = (*RepairOrderService)(nil)

// NewRepairOrderService creates the order lifecycle manager
func NewRepairOrderService(
	orders ports.OrderRepository,
	devices ports.DeviceRepository,
	ledger ports.Ledger,
	locker ports.ItemLocker,
	lockWait time.Duration,
	logger *slog.Logger,
) *RepairOrderService {
	if lockWait <= 0 {
		lockWait = DefaultLedgerConfig().LockWait
	}
	return &RepairOrderService{
		orders:   orders,
		devices:  devices,
		ledger:   ledger,
		locker:   locker,
		lockWait: lockWait,
		logger:   logger.With(slog.String("service", "orders")),
	}
}

// Create registers a new repair order in pending state. No stock is touched
// until the order is started.
func (s *RepairOrderService) Create(ctx context.Context, params ports.CreateOrderParams) (*domain.RepairOrder, error) {
	order := &domain.RepairOrder{
		DeviceID:      params.DeviceID,
		State:         domain.StatePending,
		Description:   params.Description,
		PartUsages:    usagesFromParams(params.PartUsages),
		FixedCost:     params.FixedCost,
		MarginPercent: params.MarginPercent,
		EstimatedAt:   params.EstimatedAt,
		Notes:         params.Notes,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.devices.Exists(ctx, params.DeviceID)
	if err != nil {
		return nil, &domain.StorageError{Op: "check_device", Err: err}
	}
	if !exists {
		return nil, &domain.NotFoundError{Entity: "device", ID: params.DeviceID.String()}
	}

	order.PrepareForStorage()
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, &domain.StorageError{Op: "save_order", Err: err}
	}

	s.logger.InfoContext(ctx, "repair order created",
		slog.String("order_id", order.ID.String()),
		slog.String("device_id", order.DeviceID.String()),
		slog.Int("part_usages", len(order.PartUsages)))

	return order, nil
}

// Transition advances the order to target, applying the ledger effects the
// state machine prescribes. Requesting an unreachable target (including the
// current state again) fails with InvalidTransition.
func (s *RepairOrderService) Transition(ctx context.Context, id uuid.UUID, target domain.OrderState) (*domain.RepairOrder, error) {
	if !target.Valid() {
		return nil, domain.NewValidationError("state", "unknown state %q", target)
	}

	var order *domain.RepairOrder
	err := s.withOrderLock(ctx, id, func(ctx context.Context) error {
		var err error
		order, err = s.loadOrder(ctx, id)
		if err != nil {
			return err
		}
		if !order.State.CanTransitionTo(target) {
			return &domain.InvalidTransitionError{From: order.State, To: target}
		}

		switch target {
		case domain.StateInProgress:
			return s.start(ctx, order)
		case domain.StateReady:
			return s.finish(ctx, order)
		case domain.StateDelivered:
			return s.deliver(ctx, order)
		case domain.StateCancelled:
			return s.cancel(ctx, order)
		}
		return &domain.InvalidTransitionError{From: order.State, To: target}
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "repair order transitioned",
		slog.String("order_id", id.String()),
		slog.String("state", string(order.State)))

	return order, nil
}

// UpdateDraft mutates part usages, costs or text fields. Permitted only
// while the order is pending; any other state fails with InvalidTransition.
func (s *RepairOrderService) UpdateDraft(ctx context.Context, id uuid.UUID, update ports.OrderDraftUpdate) (*domain.RepairOrder, error) {
	var order *domain.RepairOrder
	err := s.withOrderLock(ctx, id, func(ctx context.Context) error {
		var err error
		order, err = s.loadOrder(ctx, id)
		if err != nil {
			return err
		}
		if order.State != domain.StatePending {
			return &domain.InvalidTransitionError{From: order.State, To: order.State}
		}

		if update.PartUsages != nil {
			order.PartUsages = usagesFromParams(*update.PartUsages)
		}
		if update.FixedCost != nil {
			order.FixedCost = *update.FixedCost
		}
		if update.MarginPercent != nil {
			order.MarginPercent = *update.MarginPercent
		}
		if update.Description != nil {
			order.Description = *update.Description
		}
		if update.Notes != nil {
			order.Notes = *update.Notes
		}
		if err := order.Validate(); err != nil {
			return err
		}

		order.UpdatedAt = time.Now()
		if err := s.orders.Save(ctx, order); err != nil {
			return &domain.StorageError{Op: "save_order", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Get returns an order by id.
func (s *RepairOrderService) Get(ctx context.Context, id uuid.UUID) (*domain.RepairOrder, error) {
	return s.loadOrder(ctx, id)
}

// List returns orders newest first, optionally filtered by state.
func (s *RepairOrderService) List(ctx context.Context, state *domain.OrderState) ([]domain.RepairOrder, error) {
	if state != nil && !state.Valid() {
		return nil, domain.NewValidationError("state", "unknown state %q", *state)
	}
	orders, err := s.orders.List(ctx, state)
	if err != nil {
		return nil, &domain.StorageError{Op: "list_orders", Err: err}
	}
	return orders, nil
}

// start reserves every part usage, snapshotting unit prices, and stores the
// provisional total. A failed reserve rolls back all prior reserves within
// the same lock scope; the order never ends up partially reserved.
func (s *RepairOrderService) start(ctx context.Context, order *domain.RepairOrder) error {
	ref := order.ID.String()
	return s.ledger.WithItems(ctx, order.PartIDs(), func(ctx context.Context) error {
		var reserved []domain.PartUsage
		rollback := func() { s.releaseAll(ctx, reserved, ref) }

		for i := range order.PartUsages {
			u := &order.PartUsages[i]
			part, err := s.ledger.Reserve(ctx, u.PartID, u.Quantity, ref)
			if err != nil {
				rollback()
				return err
			}
			u.UnitPrice = part.UnitPrice
			reserved = append(reserved, *u)
		}

		total, err := ComputeTotal(order.FixedCost, order.VariableCost(), order.MarginPercent)
		if err != nil {
			rollback()
			return err
		}

		order.State = domain.StateInProgress
		order.Total = &total
		order.UpdatedAt = time.Now()
		if err := s.orders.Save(ctx, order); err != nil {
			rollback()
			return &domain.StorageError{Op: "save_order", Err: err}
		}
		return nil
	})
}

// finish commits every reservation, recomputes the total once more and
// freezes it. CompletedAt marks the freeze. Commits are journal-only (stock
// already moved at reserve time), so a save failure here leaves commit rows
// for an order still in progress; the retried transition journals them again
// under the same ref, and stock is unaffected either way.
func (s *RepairOrderService) finish(ctx context.Context, order *domain.RepairOrder) error {
	ref := order.ID.String()
	return s.ledger.WithItems(ctx, order.PartIDs(), func(ctx context.Context) error {
		for _, u := range order.PartUsages {
			if err := s.ledger.Commit(ctx, u.PartID, u.Quantity, ref); err != nil {
				return err
			}
		}

		total, err := ComputeTotal(order.FixedCost, order.VariableCost(), order.MarginPercent)
		if err != nil {
			return err
		}

		now := time.Now()
		order.State = domain.StateReady
		order.Total = &total
		order.CompletedAt = &now
		order.UpdatedAt = now
		if err := s.orders.Save(ctx, order); err != nil {
			return &domain.StorageError{Op: "save_order", Err: err}
		}
		return nil
	})
}

// deliver is a terminal marker only; no ledger effect.
func (s *RepairOrderService) deliver(ctx context.Context, order *domain.RepairOrder) error {
	order.State = domain.StateDelivered
	order.UpdatedAt = time.Now()
	if err := s.orders.Save(ctx, order); err != nil {
		return &domain.StorageError{Op: "save_order", Err: err}
	}
	return nil
}

// cancel releases the reservation when the order was in progress. Cancelling
// a pending order has no ledger effect; nothing was reserved. A failed order
// save undoes the releases within the same lock scope so the stock never
// reflects a cancellation that did not persist.
func (s *RepairOrderService) cancel(ctx context.Context, order *domain.RepairOrder) error {
	ref := order.ID.String()

	persist := func(ctx context.Context) error {
		order.State = domain.StateCancelled
		order.UpdatedAt = time.Now()
		if err := s.orders.Save(ctx, order); err != nil {
			return &domain.StorageError{Op: "save_order", Err: err}
		}
		return nil
	}

	if order.State == domain.StatePending {
		return persist(ctx)
	}

	return s.ledger.WithItems(ctx, order.PartIDs(), func(ctx context.Context) error {
		var released []domain.PartUsage
		rollback := func() { s.reserveAll(ctx, released, ref) }

		for _, u := range order.PartUsages {
			if err := s.ledger.Release(ctx, u.PartID, u.Quantity, ref); err != nil {
				rollback()
				return err
			}
			released = append(released, u)
		}

		if err := persist(ctx); err != nil {
			rollback()
			return err
		}
		return nil
	})
}

// withOrderLock serializes transitions per order id with a bounded wait.
func (s *RepairOrderService) withOrderLock(ctx context.Context, id uuid.UUID, fn func(ctx context.Context) error) error {
	key := orderLockPrefix + id.String()
	unlock, err := s.locker.Acquire(ctx, key, s.lockWait)
	if err != nil {
		if errors.Is(err, ports.ErrLockNotObtained) {
			return &domain.ConflictError{Key: key, Err: err}
		}
		return fmt.Errorf("failed to lock order %s: %w", id, err)
	}
	defer func() {
		if err := unlock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "failed to release order lock",
				slog.String("order_id", id.String()),
				slog.String("error", err.Error()))
		}
	}()

	return fn(ctx)
}

func (s *RepairOrderService) loadOrder(ctx context.Context, id uuid.UUID) (*domain.RepairOrder, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, &domain.StorageError{Op: "find_order", Err: err}
	}
	if order == nil {
		return nil, &domain.NotFoundError{Entity: "repair order", ID: id.String()}
	}
	return order, nil
}

// releaseAll undoes already-applied reserves after a mid-sequence failure.
// Runs inside the same lock scope as the reserves it reverses.
func (s *RepairOrderService) releaseAll(ctx context.Context, reserved []domain.PartUsage, ref string) {
	for i := len(reserved) - 1; i >= 0; i-- {
		u := reserved[i]
		if err := s.ledger.Release(ctx, u.PartID, u.Quantity, ref+"/rollback"); err != nil {
			s.logger.ErrorContext(ctx, "failed to roll back reservation",
				slog.String("part_id", u.PartID.String()),
				slog.Int("quantity", u.Quantity),
				slog.String("error", err.Error()))
		}
	}
}

// reserveAll re-applies releases that were undone by a failed cancel. Reserve
// is the numeric inverse of release and cannot fail for stock here: the
// quantity being withdrawn was added under the same held locks.
func (s *RepairOrderService) reserveAll(ctx context.Context, released []domain.PartUsage, ref string) {
	for i := len(released) - 1; i >= 0; i-- {
		u := released[i]
		if _, err := s.ledger.Reserve(ctx, u.PartID, u.Quantity, ref+"/rollback"); err != nil {
			s.logger.ErrorContext(ctx, "failed to roll back release",
				slog.String("part_id", u.PartID.String()),
				slog.Int("quantity", u.Quantity),
				slog.String("error", err.Error()))
		}
	}
}

func usagesFromParams(params []ports.OrderPartParams) []domain.PartUsage {
	usages := make([]domain.PartUsage, len(params))
	for i, p := range params {
		usages[i] = domain.PartUsage{PartID: p.PartID, Quantity: p.Quantity}
	}
	return usages
}

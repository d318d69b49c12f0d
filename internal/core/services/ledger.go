// internal/core/services/ledger.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// Cache key patterns invalidated after every stock mutation.
const (
	cachePatternParts     = "parts:*"
	cachePatternDashboard = "dash:*"
)

// LedgerConfig tunes the ledger's locking and alerting behavior
type LedgerConfig struct {
	// LockWait bounds how long an operation waits for a contended item lock
	// before failing with a retryable conflict.
	LockWait time.Duration
	// LowStockThreshold triggers an alert task when a decrement leaves a
	// part at or below it.
	LowStockThreshold int
}

// DefaultLedgerConfig returns production defaults
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		LockWait:          3 * time.Second,
		LowStockThreshold: domain.DefaultLowStockThreshold,
	}
}

// LedgerService is the sole authority over part stock counts. Every mutation
// runs under the part's exclusive lock, appends a journal entry and persists
// before the lock is released.
type LedgerService struct {
	parts     ports.PartRepository
	movements ports.MovementRepository
	locker    ports.ItemLocker
	cache     ports.CacheRepository
	tasks     ports.TaskEnqueuer
	config    LedgerConfig
	logger    *slog.Logger
}

// Statically assert that *LedgerService implements the Ledger interface.
var _ ports.Ledger = (*LedgerService)(nil)

// NewLedgerService creates the inventory ledger. cache and tasks may be nil
// in contexts without Redis or a worker queue (tests, the seeder).
func NewLedgerService(
	parts ports.PartRepository,
	movements ports.MovementRepository,
	locker ports.ItemLocker,
	cache ports.CacheRepository,
	tasks ports.TaskEnqueuer,
	config LedgerConfig,
	logger *slog.Logger,
) *LedgerService {
	if config.LockWait <= 0 {
		config.LockWait = DefaultLedgerConfig().LockWait
	}
	if config.LowStockThreshold <= 0 {
		config.LowStockThreshold = domain.DefaultLowStockThreshold
	}
	return &LedgerService{
		parts:     parts,
		movements: movements,
		locker:    locker,
		cache:     cache,
		tasks:     tasks,
		config:    config,
		logger:    logger.With(slog.String("service", "ledger")),
	}
}

// lockScope tracks item locks already held by an enclosing WithItems call so
// nested single-item operations do not re-acquire them.
type lockScopeKey struct{}

type lockScope struct {
	held map[string]struct{}
}

func scopeFrom(ctx context.Context) *lockScope {
	s, _ := ctx.Value(lockScopeKey{}).(*lockScope)
	return s
}

// WithItems acquires exclusive locks for all ids in ascending order, runs fn
// with a scope-carrying context, then releases in reverse order. No caller
// observes an intermediate state where only some items were updated.
func (s *LedgerService) WithItems(ctx context.Context, ids []uuid.UUID, fn func(ctx context.Context) error) error {
	keys := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		k := id.String()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	scope := scopeFrom(ctx)
	if scope == nil {
		scope = &lockScope{held: make(map[string]struct{})}
		ctx = context.WithValue(ctx, lockScopeKey{}, scope)
	}

	var acquired []ports.Unlocker
	var acquiredKeys []string
	releaseAll := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			if err := acquired[i].Release(context.WithoutCancel(ctx)); err != nil {
				s.logger.WarnContext(ctx, "failed to release item lock",
					slog.String("key", acquiredKeys[i]),
					slog.String("error", err.Error()))
			}
			delete(scope.held, acquiredKeys[i])
		}
	}

	for _, k := range keys {
		if _, held := scope.held[k]; held {
			continue
		}
		unlock, err := s.locker.Acquire(ctx, k, s.config.LockWait)
		if err != nil {
			releaseAll()
			if errors.Is(err, ports.ErrLockNotObtained) {
				return &domain.ConflictError{Key: k, Err: err}
			}
			return fmt.Errorf("failed to lock item %s: %w", k, err)
		}
		acquired = append(acquired, unlock)
		acquiredKeys = append(acquiredKeys, k)
		scope.held[k] = struct{}{}
	}
	defer releaseAll()

	return fn(ctx)
}

// Reserve decrements available stock by qty if enough is on hand. The
// decremented stock is the reservation; there is no separate hold count.
// Returns the part snapshot so callers can capture the reservation-time
// unit price.
func (s *LedgerService) Reserve(ctx context.Context, itemID uuid.UUID, qty int, ref string) (*domain.Part, error) {
	if qty <= 0 {
		return nil, domain.NewValidationError("quantity", "must be positive")
	}

	var part *domain.Part
	err := s.withItem(ctx, itemID, func(ctx context.Context) error {
		var err error
		part, err = s.loadPart(ctx, itemID)
		if err != nil {
			return err
		}
		if part.Stock < qty {
			return &domain.InsufficientStockError{
				ItemID:    itemID,
				Requested: qty,
				Available: part.Stock,
			}
		}
		newStock, err := s.applyDelta(ctx, itemID, domain.MovementReserve, qty, -qty, ref)
		if err != nil {
			return err
		}
		part.Stock = newStock
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "stock reserved",
		slog.String("part_id", itemID.String()),
		slog.Int("quantity", qty),
		slog.Int("stock", part.Stock))

	return part, nil
}

// Release increments stock by qty, undoing a reservation. Releases always
// succeed for known parts regardless of the current count.
func (s *LedgerService) Release(ctx context.Context, itemID uuid.UUID, qty int, ref string) error {
	if qty <= 0 {
		return domain.NewValidationError("quantity", "must be positive")
	}

	return s.withItem(ctx, itemID, func(ctx context.Context) error {
		if _, err := s.loadPart(ctx, itemID); err != nil {
			return err
		}
		newStock, err := s.applyDelta(ctx, itemID, domain.MovementRelease, qty, qty, ref)
		if err != nil {
			return err
		}
		s.logger.DebugContext(ctx, "reservation released",
			slog.String("part_id", itemID.String()),
			slog.Int("quantity", qty),
			slog.Int("stock", newStock))
		return nil
	})
}

// Commit records that a reservation's consumption is final. The numeric
// effect already happened at reserve time; only the journal is written.
func (s *LedgerService) Commit(ctx context.Context, itemID uuid.UUID, qty int, ref string) error {
	if qty <= 0 {
		return domain.NewValidationError("quantity", "must be positive")
	}

	return s.withItem(ctx, itemID, func(ctx context.Context) error {
		if _, err := s.loadPart(ctx, itemID); err != nil {
			return err
		}
		m := domain.NewStockMovement(itemID, domain.MovementCommit, qty, 0, ref)
		if err := s.movements.Record(ctx, m); err != nil {
			return &domain.StorageError{Op: "commit", Err: err}
		}
		s.logger.DebugContext(ctx, "reservation committed",
			slog.String("part_id", itemID.String()),
			slog.Int("quantity", qty))
		return nil
	})
}

// Restock increments stock by qty on invoice receipt.
func (s *LedgerService) Restock(ctx context.Context, itemID uuid.UUID, qty int, ref string) error {
	if qty <= 0 {
		return domain.NewValidationError("quantity", "must be positive")
	}

	return s.withItem(ctx, itemID, func(ctx context.Context) error {
		if _, err := s.loadPart(ctx, itemID); err != nil {
			return err
		}
		newStock, err := s.applyDelta(ctx, itemID, domain.MovementRestock, qty, qty, ref)
		if err != nil {
			return err
		}
		s.logger.DebugContext(ctx, "stock replenished",
			slog.String("part_id", itemID.String()),
			slog.Int("quantity", qty),
			slog.Int("stock", newStock))
		return nil
	})
}

// GetItem returns a part by id.
func (s *LedgerService) GetItem(ctx context.Context, itemID uuid.UUID) (*domain.Part, error) {
	return s.loadPart(ctx, itemID)
}

// SaveItem creates or updates a part's catalog fields. The store writes stock
// only on first insert, so catalog edits cannot clobber the ledger count.
func (s *LedgerService) SaveItem(ctx context.Context, part *domain.Part) error {
	if err := part.Validate(); err != nil {
		return err
	}
	part.PrepareForStorage()
	if err := s.parts.Save(ctx, part); err != nil {
		return &domain.StorageError{Op: "save_part", Err: err}
	}

	s.invalidateCache(ctx)

	s.logger.InfoContext(ctx, "part saved",
		slog.String("part_id", part.ID.String()),
		slog.String("name", part.Name))

	return nil
}

// ListItems returns a filtered, paginated page of the parts catalog.
func (s *LedgerService) ListItems(ctx context.Context, params ports.PartListParams) (*ports.PartListResult, error) {
	result, err := s.parts.List(ctx, params)
	if err != nil {
		return nil, &domain.StorageError{Op: "list_parts", Err: err}
	}
	return result, nil
}

// ListMovements returns a part's journal entries, newest first.
func (s *LedgerService) ListMovements(ctx context.Context, itemID uuid.UUID, limit int) ([]domain.StockMovement, error) {
	if _, err := s.loadPart(ctx, itemID); err != nil {
		return nil, err
	}
	movements, err := s.movements.ListByPart(ctx, itemID, limit)
	if err != nil {
		return nil, &domain.StorageError{Op: "list_movements", Err: err}
	}
	return movements, nil
}

// ListLowStock returns parts with stock at or below threshold. A
// non-positive threshold falls back to the configured default.
func (s *LedgerService) ListLowStock(ctx context.Context, threshold int) ([]domain.Part, error) {
	if threshold <= 0 {
		threshold = s.config.LowStockThreshold
	}
	parts, err := s.parts.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, &domain.StorageError{Op: "list_low_stock", Err: err}
	}
	return parts, nil
}

// withItem runs fn under the item's exclusive lock, skipping acquisition
// when an enclosing WithItems scope already holds it.
func (s *LedgerService) withItem(ctx context.Context, itemID uuid.UUID, fn func(ctx context.Context) error) error {
	key := itemID.String()
	if scope := scopeFrom(ctx); scope != nil {
		if _, held := scope.held[key]; held {
			return fn(ctx)
		}
	}
	return s.WithItems(ctx, []uuid.UUID{itemID}, fn)
}

func (s *LedgerService) loadPart(ctx context.Context, itemID uuid.UUID) (*domain.Part, error) {
	part, err := s.parts.FindByID(ctx, itemID)
	if err != nil {
		return nil, &domain.StorageError{Op: "find_part", Err: err}
	}
	if part == nil {
		return nil, &domain.NotFoundError{Entity: "part", ID: itemID.String()}
	}
	return part, nil
}

// applyDelta mutates stock, journals the movement and handles cache
// invalidation and low-stock alerting. Caller holds the item lock.
func (s *LedgerService) applyDelta(ctx context.Context, itemID uuid.UUID, kind domain.MovementKind, qty, delta int, ref string) (int, error) {
	newStock, err := s.parts.AdjustStock(ctx, itemID, delta)
	if err != nil {
		return 0, &domain.StorageError{Op: string(kind), Err: err}
	}

	m := domain.NewStockMovement(itemID, kind, qty, delta, ref)
	if err := s.movements.Record(ctx, m); err != nil {
		// The journal write failed after the stock write. Reverse the stock
		// change so the two never disagree.
		if _, revErr := s.parts.AdjustStock(ctx, itemID, -delta); revErr != nil {
			s.logger.ErrorContext(ctx, "failed to reverse stock adjustment",
				slog.String("part_id", itemID.String()),
				slog.Int("delta", -delta),
				slog.String("error", revErr.Error()))
		}
		return 0, &domain.StorageError{Op: string(kind) + "_journal", Err: err}
	}

	s.invalidateCache(ctx)

	if delta < 0 && newStock <= s.config.LowStockThreshold {
		s.alertLowStock(ctx, itemID, newStock)
	}

	return newStock, nil
}

func (s *LedgerService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, pattern := range []string{cachePatternParts, cachePatternDashboard} {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			s.logger.WarnContext(ctx, "cache invalidation failed",
				slog.String("pattern", pattern),
				slog.String("error", err.Error()))
		}
	}
}

func (s *LedgerService) alertLowStock(ctx context.Context, itemID uuid.UUID, stock int) {
	if s.tasks == nil {
		return
	}
	payload := map[string]any{
		"part_id":   itemID.String(),
		"stock":     stock,
		"threshold": s.config.LowStockThreshold,
	}
	if err := s.tasks.Enqueue(ctx, ports.TaskLowStockAlert, payload); err != nil {
		s.logger.WarnContext(ctx, "failed to enqueue low-stock alert",
			slog.String("part_id", itemID.String()),
			slog.String("error", err.Error()))
	}
}

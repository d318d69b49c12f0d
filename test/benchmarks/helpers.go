package benchmarks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
)

// memPartRepo is a map-backed part store for benchmarks; it enforces the
// same non-negative stock guard as the database adapter.
type memPartRepo struct {
	mu    sync.Mutex
	parts map[uuid.UUID]*domain.Part
}

func newMemPartRepo() *memPartRepo {
	return &memPartRepo{parts: make(map[uuid.UUID]*domain.Part)}
}

func (r *memPartRepo) put(part *domain.Part) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parts[part.ID] = part
}

func (r *memPartRepo) Save(_ context.Context, part *domain.Part) error {
	r.put(part)
	return nil
}

func (r *memPartRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Part, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	part, ok := r.parts[id]
	if !ok {
		return nil, nil
	}
	clone := *part
	return &clone, nil
}

func (r *memPartRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	part, ok := r.parts[id]
	if !ok {
		return 0, &domain.NotFoundError{Entity: "part", ID: id.String()}
	}
	if part.Stock+delta < 0 {
		return 0, &domain.InsufficientStockError{
			ItemID:    id,
			Requested: -delta,
			Available: part.Stock,
		}
	}
	part.Stock += delta
	return part.Stock, nil
}

func (r *memPartRepo) List(_ context.Context, _ ports.PartListParams) (*ports.PartListResult, error) {
	return &ports.PartListResult{}, nil
}

func (r *memPartRepo) ListLowStock(_ context.Context, _ int) ([]domain.Part, error) {
	return nil, nil
}

func (r *memPartRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.parts[id]
	return ok, nil
}

// memMovementRepo discards journal entries.
type memMovementRepo struct{}

func (memMovementRepo) Record(_ context.Context, _ *domain.StockMovement) error { return nil }

func (memMovementRepo) ListByPart(_ context.Context, _ uuid.UUID, _ int) ([]domain.StockMovement, error) {
	return nil, nil
}

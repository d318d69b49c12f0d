// internal/adapters/locks/memory.go
package locks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ngiletta/taller-be/internal/core/ports"
)

// MemoryLocker provides per-key exclusive locks for single-node deployments.
// Acquisition is bounded: when the wait elapses before the lock frees up,
// ports.ErrLockNotObtained is returned and the caller retries.
type MemoryLocker struct {
	mu     sync.Mutex
	locks  map[string]*entry
	logger *slog.Logger
}

type entry struct {
	ch   chan struct{} // capacity 1; a buffered token means "held"
	refs int
}

// Statically assert that *MemoryLocker implements the ItemLocker interface.
var _ ports.ItemLocker = (*MemoryLocker)(nil)

// NewMemoryLocker creates an in-process keyed locker
func NewMemoryLocker(logger *slog.Logger) *MemoryLocker {
	return &MemoryLocker{
		locks:  make(map[string]*entry),
		logger: logger.With(slog.String("component", "memory_locker")),
	}
}

// Acquire blocks until the key's lock is obtained, the wait elapses, or ctx
// is cancelled.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, wait time.Duration) (ports.Unlocker, error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
		return &memoryUnlocker{locker: l, key: key, entry: e}, nil
	case <-timer.C:
		l.unref(key, e)
		return nil, ports.ErrLockNotObtained
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	}
}

func (l *MemoryLocker) unref(key string, e *entry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

type memoryUnlocker struct {
	locker *MemoryLocker
	key    string
	entry  *entry
	once   sync.Once
}

// Release frees the lock. Releasing twice is a no-op.
func (u *memoryUnlocker) Release(_ context.Context) error {
	u.once.Do(func() {
		<-u.entry.ch
		u.locker.unref(u.key, u.entry)
	})
	return nil
}

// internal/core/ports/locker.go
package ports

import (
	"context"
	"errors"
	"time"
)

// ErrLockNotObtained is returned by ItemLocker implementations when the
// bounded wait expires before the lock is acquired. The ledger surfaces it
// to callers as a retryable conflict.
var ErrLockNotObtained = errors.New("lock not obtained")

// Unlocker releases a held lock.
type Unlocker interface {
	Release(ctx context.Context) error
}

// ItemLocker provides per-key exclusive locks with a bounded wait. Keys are
// inventory item ids (and order ids for per-order transition serialization);
// multi-item operations acquire keys in ascending order to prevent deadlock.
type ItemLocker interface {
	Acquire(ctx context.Context, key string, wait time.Duration) (Unlocker, error)
}

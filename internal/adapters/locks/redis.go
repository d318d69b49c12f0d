// internal/adapters/locks/redis.go
package locks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/ngiletta/taller-be/internal/core/ports"
)

const (
	// lockKeyPrefix namespaces lock keys away from cache entries in the
	// shared Redis instance.
	lockKeyPrefix = "lock:"
	// lockTTL bounds how long a crashed holder can keep a key locked.
	lockTTL = 30 * time.Second
	// retryInterval paces re-attempts while waiting for a contended key.
	retryInterval = 50 * time.Millisecond
)

// RedisLocker provides per-key exclusive locks shared across instances,
// for deployments with more than one terminal hitting the same store.
type RedisLocker struct {
	client *redislock.Client
	logger *slog.Logger
}

// Statically assert that *RedisLocker implements the ItemLocker interface.
var _ ports.ItemLocker = (*RedisLocker)(nil)

// NewRedisLocker creates a distributed locker on top of an existing Redis
// client.
func NewRedisLocker(client *redis.Client, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(client),
		logger: logger.With(slog.String("component", "redis_locker")),
	}
}

// Acquire obtains the key's lock, retrying on contention until wait elapses.
func (l *RedisLocker) Acquire(ctx context.Context, key string, wait time.Duration) (ports.Unlocker, error) {
	retries := int(wait / retryInterval)
	if retries < 1 {
		retries = 1
	}

	lock, err := l.client.Obtain(ctx, lockKeyPrefix+key, lockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryInterval), retries),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ports.ErrLockNotObtained
		}
		return nil, fmt.Errorf("redis lock obtain failed: %w", err)
	}

	return &redisUnlocker{lock: lock, logger: l.logger, key: key}, nil
}

type redisUnlocker struct {
	lock   *redislock.Lock
	logger *slog.Logger
	key    string
}

// Release frees the lock. A lock already expired by TTL is treated as
// released.
func (u *redisUnlocker) Release(ctx context.Context) error {
	if err := u.lock.Release(ctx); err != nil {
		if errors.Is(err, redislock.ErrLockNotHeld) {
			u.logger.WarnContext(ctx, "lock expired before release",
				slog.String("key", u.key))
			return nil
		}
		return fmt.Errorf("redis lock release failed: %w", err)
	}
	return nil
}

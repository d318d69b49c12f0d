// internal/adapters/locks/redis_test.go
package locks_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ngiletta/taller-be/internal/adapters/locks"
	"github.com/ngiletta/taller-be/internal/core/ports"
	"github.com/ngiletta/taller-be/test/helpers"
)

func newRedisLocker(t *testing.T) (*locks.RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return locks.NewRedisLocker(client, helpers.TestLogger()), server
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	locker, _ := newRedisLocker(t)
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "part-1", time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)

	require.NoError(t, unlock.Release(ctx))

	unlock2, err := locker.Acquire(ctx, "part-1", time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2.Release(ctx))
}

func TestRedisLocker_Contention(t *testing.T) {
	locker, _ := newRedisLocker(t)
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "part-1", time.Second)
	require.NoError(t, err)
	defer unlock.Release(ctx)

	_, err = locker.Acquire(ctx, "part-1", 100*time.Millisecond)
	require.ErrorIs(t, err, ports.ErrLockNotObtained)
}

func TestRedisLocker_IndependentKeys(t *testing.T) {
	locker, _ := newRedisLocker(t)
	ctx := context.Background()

	unlockA, err := locker.Acquire(ctx, "part-a", time.Second)
	require.NoError(t, err)
	defer unlockA.Release(ctx)

	unlockB, err := locker.Acquire(ctx, "part-b", 100*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, unlockB.Release(ctx))
}

func TestRedisLocker_ExpiredLockReleaseIsNoop(t *testing.T) {
	locker, server := newRedisLocker(t)
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "part-1", time.Second)
	require.NoError(t, err)

	// Simulate the holder outliving its TTL.
	server.FastForward(time.Minute)

	require.NoError(t, unlock.Release(ctx))
}

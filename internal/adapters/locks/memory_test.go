// internal/adapters/locks/memory_test.go
package locks_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngiletta/taller-be/internal/adapters/locks"
	"github.com/ngiletta/taller-be/internal/core/ports"
	"github.com/ngiletta/taller-be/test/helpers"
)

func TestMemoryLocker_AcquireRelease(t *testing.T) {
	locker := locks.NewMemoryLocker(helpers.TestLogger())
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "part-1", time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)

	require.NoError(t, unlock.Release(ctx))

	// The key is free again.
	unlock2, err := locker.Acquire(ctx, "part-1", 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, unlock2.Release(ctx))
}

func TestMemoryLocker_BoundedWait(t *testing.T) {
	locker := locks.NewMemoryLocker(helpers.TestLogger())
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "part-1", time.Second)
	require.NoError(t, err)
	defer unlock.Release(ctx)

	start := time.Now()
	_, err = locker.Acquire(ctx, "part-1", 30*time.Millisecond)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ports.ErrLockNotObtained)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestMemoryLocker_IndependentKeys(t *testing.T) {
	locker := locks.NewMemoryLocker(helpers.TestLogger())
	ctx := context.Background()

	unlockA, err := locker.Acquire(ctx, "part-a", time.Second)
	require.NoError(t, err)
	defer unlockA.Release(ctx)

	// A held lock on one key never blocks another key.
	unlockB, err := locker.Acquire(ctx, "part-b", 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, unlockB.Release(ctx))
}

func TestMemoryLocker_WaiterGetsLockOnRelease(t *testing.T) {
	locker := locks.NewMemoryLocker(helpers.TestLogger())
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "part-1", time.Second)
	require.NoError(t, err)

	acquired := make(chan error, 1)
	go func() {
		u, err := locker.Acquire(ctx, "part-1", 2*time.Second)
		if err == nil {
			u.Release(ctx)
		}
		acquired <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, unlock.Release(ctx))

	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter never obtained the released lock")
	}
}

func TestMemoryLocker_ContextCancellation(t *testing.T) {
	locker := locks.NewMemoryLocker(helpers.TestLogger())

	unlock, err := locker.Acquire(context.Background(), "part-1", time.Second)
	require.NoError(t, err)
	defer unlock.Release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = locker.Acquire(ctx, "part-1", 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemoryLocker_DoubleReleaseIsNoop(t *testing.T) {
	locker := locks.NewMemoryLocker(helpers.TestLogger())
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "part-1", time.Second)
	require.NoError(t, err)

	require.NoError(t, unlock.Release(ctx))
	require.NoError(t, unlock.Release(ctx))

	// A second release must not hand the lock to nobody: the key is still
	// acquirable exactly once.
	unlock2, err := locker.Acquire(ctx, "part-1", 50*time.Millisecond)
	require.NoError(t, err)
	_, err = locker.Acquire(ctx, "part-1", 20*time.Millisecond)
	require.ErrorIs(t, err, ports.ErrLockNotObtained)
	require.NoError(t, unlock2.Release(ctx))
}

func TestMemoryLocker_MutualExclusion(t *testing.T) {
	locker := locks.NewMemoryLocker(helpers.TestLogger())
	ctx := context.Background()

	const goroutines = 20
	const iterations = 25

	var counter int
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				unlock, err := locker.Acquire(ctx, "shared", 5*time.Second)
				if err != nil {
					t.Error(err)
					return
				}
				counter++
				unlock.Release(ctx)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, goroutines*iterations, counter,
		"lost increments mean two holders overlapped")
}

package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tower/pkg/adapters/memory"
	"github.com/aretw0/tower/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunResultStoreContract(t, store)
}

func TestMemoryLocker_Contract(t *testing.T) {
	ports.RunLockerContract(t, memory.NewLocker())
}

func TestMemoryLocker_Expires(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	_, err := locker.Lock(ctx, "column", 20*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	unlock, err := locker.Lock(ctx, "column", time.Second)
	require.NoError(t, err, "an abandoned lock frees itself after its ttl")
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	require.NoError(t, unlock(ctx))
}

func TestMemoryLocker_StaleUnlock(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	stale, err := locker.Lock(ctx, "column", 10*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	current, err := locker.Lock(ctx, "column", time.Second)
	require.NoError(t, err)
	require.NoError(t, stale(ctx), "releasing an expired lease is a no-op")

	blocked, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(blocked, "column", time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "the current holder keeps the lock")
	require.NoError(t, current(ctx))
}

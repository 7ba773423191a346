package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes work on a key across processes.
// The HTTP service uses it so that two replicas never solve the same named column at once.
type DistributedLocker interface {
	// Lock blocks until the lock for key is held or ctx ends.
	// The lock expires after ttl if the holder disappears.
	// The returned UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

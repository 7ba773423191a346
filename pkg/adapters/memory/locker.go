package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/tower/pkg/ports"
)

// Locker implements ports.DistributedLocker inside a single process.
// The ttl is honoured: a lock that is never released frees itself when it expires.
type Locker struct {
	mu    sync.Mutex
	held  map[string]lease
	retry time.Duration
}

type lease struct {
	token   uint64
	expires time.Time
}

// NewLocker creates a process-local locker.
func NewLocker() *Locker {
	return &Locker{
		held:  make(map[string]lease),
		retry: 10 * time.Millisecond,
	}
}

var tokens struct {
	sync.Mutex
	next uint64
}

func nextToken() uint64 {
	tokens.Lock()
	defer tokens.Unlock()
	tokens.next++
	return tokens.next
}

// Lock blocks until key is free or ctx ends.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	token := nextToken()
	for {
		if l.tryLock(key, token, ttl) {
			return func(context.Context) error {
				l.mu.Lock()
				defer l.mu.Unlock()
				if current, ok := l.held[key]; ok && current.token == token {
					delete(l.held, key)
				}
				return nil
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (l *Locker) tryLock(key string, token uint64, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if current, ok := l.held[key]; ok && (current.expires.IsZero() || now.Before(current.expires)) {
		return false
	}
	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
	}
	l.held[key] = lease{token: token, expires: expires}
	return true
}

package cron

import (
	"context"
	"fmt"
	"time"
)

// LockStore is the slice of the redis client the lock needs.
type LockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// Lock is a best-effort distributed mutex. The TTL bounds how long a crashed
// holder can block other workers.
type Lock struct {
	store LockStore
	ttl   time.Duration
}

// NewLock builds a redis-backed lock with the given hold TTL.
func NewLock(store LockStore, ttl time.Duration) (*Lock, error) {
	if store == nil {
		return nil, fmt.Errorf("lock store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lock ttl must be positive")
	}
	return &Lock{store: store, ttl: ttl}, nil
}

// Acquire claims the named lock; false means another worker holds it.
func (l *Lock) Acquire(ctx context.Context, name string) (bool, error) {
	return l.store.SetNX(ctx, l.store.LockKey(name), "1", l.ttl)
}

// Release frees the named lock.
func (l *Lock) Release(ctx context.Context, name string) error {
	return l.store.Del(ctx, l.store.LockKey(name))
}

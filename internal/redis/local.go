package redisclient

import (
	"context"
	"sync"
)

// localLocker is the in-process Locker used with the memory store, where
// every request runs in one process and Redis is not configured.
type localLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewLocalLocker() Locker {
	return &localLocker{held: make(map[string]chan struct{})}
}

func (l *localLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	for {
		l.mu.Lock()
		wait, busy := l.held[key]
		if !busy {
			l.held[key] = make(chan struct{})
			l.mu.Unlock()
			break
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ErrLockNotAcquired
		}
	}

	defer func() {
		l.mu.Lock()
		close(l.held[key])
		delete(l.held, key)
		l.mu.Unlock()
	}()

	return fn(ctx)
}

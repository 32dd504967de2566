package publish

import (
	"context"
	"sync"
)

// targetLocks serializes publishes to the same production artifact within the process.
type targetLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newTargetLocks() *targetLocks {
	return &targetLocks{locks: make(map[string]chan struct{})}
}

// acquire blocks until the key is free or ctx is done.
func (l *targetLocks) acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

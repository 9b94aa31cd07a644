package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrLocked is returned by TryLock when the key is already held.
var ErrLocked = errors.New("lock already held")

// Locker hands out non-blocking exclusive locks per key.
type Locker interface {
	// TryLock acquires key or fails immediately with ErrLocked. It never waits for the holder.
	// The returned unlock func is safe to call more than once.
	TryLock(ctx context.Context, key string) (func(), error)
}

// New returns a redis backed locker when cfg.URL is set and an in-process one otherwise.
// The returned close func releases the redis connection.
func New(cfg RedisConfig, ttl time.Duration, logger *zap.Logger) (Locker, func() error, error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return NewMemoryLocker(), func() error { return nil }, nil
	}
	return NewRedisLocker(client, ttl, logger), client.Close, nil
}

// MemoryLocker is a Locker for a single process.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryLocker creates an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

// TryLock implements Locker.
func (l *MemoryLocker) TryLock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, ErrLocked
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}

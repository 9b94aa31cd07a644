package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Locker = (*MemoryLocker)(nil)
	_ Locker = (*RedisLocker)(nil)
)

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	unlock, err := l.TryLock(ctx, "1|A大学")
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "1|A大学")
	assert.ErrorIs(t, err, ErrLocked)

	other, err := l.TryLock(ctx, "1|B大学")
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	again, err := l.TryLock(ctx, "1|A大学")
	require.NoError(t, err)
	again()
}

func TestMemoryLocker_AtMostOneHolder(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	var (
		wg       sync.WaitGroup
		acquired atomic.Int32
		start    = make(chan struct{})
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := l.TryLock(ctx, "key"); err == nil {
				acquired.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), acquired.Load())
}

func TestNew_WithoutRedis(t *testing.T) {
	locker, closeFn, err := New(RedisConfig{}, 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryLocker{}, locker)
	assert.NoError(t, closeFn())
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(RedisConfig{URL: "://nope"})
	assert.Error(t, err)
}

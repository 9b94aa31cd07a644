package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"roster-verifier/core/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterCache_IsExpired(t *testing.T) {
	now := time.Now()

	c := &RosterCache{Built: now, TTL: 0}
	assert.True(t, c.IsExpired(now), "zero TTL never caches")

	c = &RosterCache{Built: now, TTL: time.Minute}
	assert.False(t, c.IsExpired(now.Add(30*time.Second)))
	assert.True(t, c.IsExpired(now.Add(2*time.Minute)))
}

func TestRosterCacheKey(t *testing.T) {
	assert.Equal(t, rosterCacheKey(1, "Ａ大学", 2025), rosterCacheKey(1, "a大学", 2025))
	assert.NotEqual(t, rosterCacheKey(1, "A大学", 2025), rosterCacheKey(1, "A大学", 2024))
	assert.NotEqual(t, rosterCacheKey(1, "A大学", 2025), rosterCacheKey(2, "A大学", 2025))
}

func TestRosterCacheStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	roster := []registry.Record{{Name: "山田太郎"}}

	t.Run("Disabled", func(t *testing.T) {
		s := newRosterCacheStore(0, clock)
		calls := 0
		for i := 0; i < 2; i++ {
			_, hit, err := s.getOrFetch(ctx, "k", func(context.Context) ([]registry.Record, error) {
				calls++
				return roster, nil
			})
			require.NoError(t, err)
			assert.False(t, hit)
		}
		assert.Equal(t, 2, calls)
	})

	t.Run("Hit And Expiry", func(t *testing.T) {
		current := now
		s := newRosterCacheStore(time.Minute, func() time.Time { return current })
		calls := 0
		fetch := func(context.Context) ([]registry.Record, error) {
			calls++
			return roster, nil
		}

		records, hit, err := s.getOrFetch(ctx, "k", fetch)
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, roster, records)

		_, hit, err = s.getOrFetch(ctx, "k", fetch)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, 1, calls)

		current = now.Add(2 * time.Minute)
		_, hit, err = s.getOrFetch(ctx, "k", fetch)
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, 2, calls)
	})

	t.Run("Errors Are Not Cached", func(t *testing.T) {
		s := newRosterCacheStore(time.Minute, clock)
		_, _, err := s.getOrFetch(ctx, "k", func(context.Context) ([]registry.Record, error) {
			return nil, errors.New("boom")
		})
		require.Error(t, err)

		_, ok := s.lookup("k")
		assert.False(t, ok)
	})

	t.Run("Invalidate", func(t *testing.T) {
		s := newRosterCacheStore(time.Minute, clock)
		_, _, err := s.getOrFetch(ctx, "k", func(context.Context) ([]registry.Record, error) { return roster, nil })
		require.NoError(t, err)

		s.invalidate("k")
		_, ok := s.lookup("k")
		assert.False(t, ok)
	})

	t.Run("Concurrent Misses Share One Fetch", func(t *testing.T) {
		s := newRosterCacheStore(time.Minute, clock)
		var calls atomic.Int32
		release := make(chan struct{})

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := s.getOrFetch(ctx, "k", func(context.Context) ([]registry.Record, error) {
					calls.Add(1)
					<-release
					return roster, nil
				})
				assert.NoError(t, err)
			}()
		}
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
	})
}

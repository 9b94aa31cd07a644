package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"roster-verifier/core/normalize"
	"roster-verifier/core/registry"

	"golang.org/x/sync/singleflight"
)

// RosterCache holds a fetched registry roster.
type RosterCache struct {
	// Records is the roster as returned by the registry.
	Records []registry.Record

	// Built is the timestamp when this cache was built.
	Built time.Time

	// TTL is the time-to-live for this cache.
	TTL time.Duration
}

// IsExpired returns true if this cache has expired at now.
func (c *RosterCache) IsExpired(now time.Time) bool {
	if c.TTL == 0 {
		return true // No caching
	}
	return now.Sub(c.Built) > c.TTL
}

// rosterCacheStore holds rosters keyed by (tournament, team, year).
type rosterCacheStore struct {
	mu     sync.RWMutex
	caches map[string]*RosterCache
	sf     singleflight.Group
	ttl    time.Duration
	now    func() time.Time
}

func newRosterCacheStore(ttl time.Duration, now func() time.Time) *rosterCacheStore {
	return &rosterCacheStore{
		caches: make(map[string]*RosterCache),
		ttl:    ttl,
		now:    now,
	}
}

func rosterCacheKey(tournamentID uint, team string, year int) string {
	return fmt.Sprintf("%d|%s|%d", tournamentID, normalize.String(team), year)
}

// getOrFetch returns a fresh cached roster or calls fetch to build one.
// Concurrent misses for the same key share one fetch. Failed fetches are not cached.
func (s *rosterCacheStore) getOrFetch(ctx context.Context, key string, fetch func(context.Context) ([]registry.Record, error)) ([]registry.Record, bool, error) {
	if s.ttl <= 0 {
		records, err := fetch(ctx)
		return records, false, err
	}

	// Fast path: check if cache exists and is fresh
	if cache, ok := s.lookup(key); ok {
		return cache.Records, true, nil
	}

	hit := true
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		// Double-check after acquiring singleflight lock
		if cache, ok := s.lookup(key); ok {
			return cache, nil
		}

		hit = false
		records, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		cache := &RosterCache{Records: records, Built: s.now(), TTL: s.ttl}
		s.mu.Lock()
		s.caches[key] = cache
		s.mu.Unlock()
		return cache, nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.(*RosterCache).Records, hit, nil
}

func (s *rosterCacheStore) lookup(key string) (*RosterCache, bool) {
	s.mu.RLock()
	cache, exists := s.caches[key]
	s.mu.RUnlock()
	if !exists || cache.IsExpired(s.now()) {
		return nil, false
	}
	return cache, true
}

// invalidate removes the cached roster for key.
func (s *rosterCacheStore) invalidate(key string) {
	s.mu.Lock()
	delete(s.caches, key)
	s.mu.Unlock()
}

package metadata

import (
	"context"
	"sync"
	"time"

	"github.com/project-relgate/relgate/internal/clock"
)

// CachingStore wraps a Store with simple in-memory caching.
// Useful in front of stores whose lookups are not free, like the Lua store.
type CachingStore struct {
	source Store
	ttl    time.Duration
	clock  clock.Clock

	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

// cacheEntry stores a cached record with expiration
type cacheEntry struct {
	entity    *Entity
	expiresAt time.Time
}

// CachingStoreOption is a functional option for configuring CachingStore
type CachingStoreOption func(*CachingStore)

// WithClock sets the clock for the caching store
func WithClock(clk clock.Clock) CachingStoreOption {
	return func(s *CachingStore) {
		s.clock = clk
	}
}

// NewCachingStore wraps a store with in-memory caching.
// A ttl of zero means entries never expire.
func NewCachingStore(source Store, ttl time.Duration, opts ...CachingStoreOption) *CachingStore {
	s := &CachingStore{
		source:  source,
		ttl:     ttl,
		clock:   clock.NewSystemClock(),
		entries: make(map[string]*cacheEntry),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Lookup checks the cache first, then falls through to the source on miss.
// Only successful lookups are cached; ErrNotFound is not.
func (s *CachingStore) Lookup(ctx context.Context, entityID string) (*Entity, error) {
	s.mu.RLock()
	entry, found := s.entries[entityID]
	s.mu.RUnlock()

	if found {
		if entry.expiresAt.IsZero() || s.clock.Now().Before(entry.expiresAt) {
			return entry.entity, nil
		}
		// Entry expired, remove it
		s.mu.Lock()
		delete(s.entries, entityID)
		s.mu.Unlock()
	}

	entity, err := s.source.Lookup(ctx, entityID)
	if err != nil {
		return nil, err
	}

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.clock.Now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[entityID] = &cacheEntry{
		entity:    entity,
		expiresAt: expiresAt,
	}
	s.mu.Unlock()

	return entity, nil
}

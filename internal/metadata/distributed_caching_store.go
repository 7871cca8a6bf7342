package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/groupcache"
)

// DistributedCachingStore wraps a metadata store with groupcache for
// distributed caching across multiple servers. Lookups are keyed by entity ID;
// on a miss, the lookup may be executed on whichever peer owns the key.
type DistributedCachingStore struct {
	source Store
	group  *groupcache.Group
}

// DistributedCachingConfig configures the distributed caching store
type DistributedCachingConfig struct {
	// GroupName is the name for this groupcache group.
	// Should be unique per store.
	GroupName string

	// CacheSizeBytes is the maximum size of the cache in bytes.
	// Default: 16MB
	CacheSizeBytes int64
}

// NewDistributedCachingStore wraps a store with distributed caching.
//
// Note: groupcache requires the peer pool to be set up before creating
// caching stores. See groupcache documentation for peer configuration.
func NewDistributedCachingStore(source Store, config DistributedCachingConfig) *DistributedCachingStore {
	if config.GroupName == "" {
		config.GroupName = "metadata"
	}
	if config.CacheSizeBytes == 0 {
		config.CacheSizeBytes = 16 << 20 // 16MB default
	}

	getter := groupcache.GetterFunc(func(ctx context.Context, key string, dest groupcache.Sink) error {
		entity, err := source.Lookup(ctx, key)
		if err != nil {
			return fmt.Errorf("metadata lookup failed for %s: %w", key, err)
		}

		data, err := json.Marshal(entity)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata entry: %w", err)
		}

		return dest.SetBytes(data)
	})

	return &DistributedCachingStore{
		source: source,
		group:  groupcache.NewGroup(config.GroupName, config.CacheSizeBytes, getter),
	}
}

// Lookup implements Store.
// Not-found results are not cached: the getter's error propagates per call.
func (s *DistributedCachingStore) Lookup(ctx context.Context, entityID string) (*Entity, error) {
	var data []byte
	if err := s.group.Get(ctx, entityID, groupcache.AllocatingByteSliceSink(&data)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var entity Entity
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached metadata entry: %w", err)
	}
	return &entity, nil
}

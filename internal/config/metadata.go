package config

import (
	"fmt"
	"os"
	"time"

	"github.com/project-relgate/relgate/internal/metadata"
)

// NewMetadataStore creates the trust metadata store from configuration
func NewMetadataStore(cfg MetadataConfig) (metadata.Store, error) {
	store, err := newBaseStore(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Caching != nil {
		return wrapWithCaching(store, *cfg.Caching)
	}
	return store, nil
}

// newBaseStore creates the underlying store
func newBaseStore(cfg MetadataConfig) (metadata.Store, error) {
	switch cfg.Type {
	case "static", "":
		entities := make([]*metadata.Entity, 0, len(cfg.Entities))
		for _, entityCfg := range cfg.Entities {
			if entityCfg.EntityID == "" {
				return nil, fmt.Errorf("metadata entity requires entity_id")
			}
			entities = append(entities, &metadata.Entity{
				EntityID:    entityCfg.EntityID,
				DisplayName: entityCfg.DisplayName,
				Attributes:  entityCfg.Attributes,
			})
		}
		return metadata.NewStaticStore(entities), nil
	case "lua":
		script := cfg.Script
		if cfg.ScriptFile != "" {
			content, err := os.ReadFile(cfg.ScriptFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read script file %s: %w", cfg.ScriptFile, err)
			}
			script = string(content)
		}
		if script == "" {
			return nil, fmt.Errorf("lua metadata store requires either script or script_file")
		}
		return metadata.NewLuaStore(metadata.LuaStoreConfig{
			Name:   "lua",
			Script: script,
		})
	default:
		return nil, fmt.Errorf("unknown metadata store type: %s (supported: static, lua)", cfg.Type)
	}
}

// wrapWithCaching wraps a store with the configured caching layer
func wrapWithCaching(store metadata.Store, cfg CachingConfig) (metadata.Store, error) {
	switch cfg.Type {
	case "memory":
		var ttl time.Duration
		if cfg.TTL != "" {
			parsed, err := time.ParseDuration(cfg.TTL)
			if err != nil {
				return nil, fmt.Errorf("invalid caching ttl: %w", err)
			}
			ttl = parsed
		}
		return metadata.NewCachingStore(store, ttl), nil
	case "distributed":
		return metadata.NewDistributedCachingStore(store, metadata.DistributedCachingConfig{
			GroupName:      cfg.GroupName,
			CacheSizeBytes: cfg.CacheSizeBytes,
		}), nil
	default:
		return nil, fmt.Errorf("unknown caching type: %s (supported: memory, distributed)", cfg.Type)
	}
}

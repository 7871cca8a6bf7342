package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/project-relgate/relgate/internal/metadata"
)

func TestNewMetadataStore_Static(t *testing.T) {
	store, err := NewMetadataStore(MetadataConfig{
		Entities: []EntityConfig{
			{
				EntityID:    "https://sp.example.org",
				DisplayName: "Example SP",
				Attributes:  []string{"mail", "cn"},
			},
			{EntityID: "https://idp.example.edu"},
		},
	})
	if err != nil {
		t.Fatalf("NewMetadataStore failed: %v", err)
	}

	entity, err := store.Lookup(context.Background(), "https://sp.example.org")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !slices.Equal(entity.Attributes, []string{"mail", "cn"}) {
		t.Errorf("Attributes = %v", entity.Attributes)
	}

	bare, err := store.Lookup(context.Background(), "https://idp.example.edu")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if bare.HasAttributePolicy() {
		t.Error("entity declared without attributes should carry no policy")
	}

	if _, err := store.Lookup(context.Background(), "unknown"); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNewMetadataStore_Lua(t *testing.T) {
	script := `
function lookup(entity_id)
  if entity_id == "https://sp.example.org" then
    return { attributes = {"mail"} }
  end
  return nil
end
`

	t.Run("inline script", func(t *testing.T) {
		store, err := NewMetadataStore(MetadataConfig{Type: "lua", Script: script})
		if err != nil {
			t.Fatalf("NewMetadataStore failed: %v", err)
		}
		entity, err := store.Lookup(context.Background(), "https://sp.example.org")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if !slices.Equal(entity.Attributes, []string{"mail"}) {
			t.Errorf("Attributes = %v", entity.Attributes)
		}
	})

	t.Run("script file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lookup.lua")
		if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
			t.Fatal(err)
		}

		store, err := NewMetadataStore(MetadataConfig{Type: "lua", ScriptFile: path})
		if err != nil {
			t.Fatalf("NewMetadataStore failed: %v", err)
		}
		if _, err := store.Lookup(context.Background(), "https://sp.example.org"); err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
	})

	t.Run("missing script", func(t *testing.T) {
		if _, err := NewMetadataStore(MetadataConfig{Type: "lua"}); err == nil {
			t.Error("expected an error without script or script_file")
		}
	})

	t.Run("unreadable script file", func(t *testing.T) {
		if _, err := NewMetadataStore(MetadataConfig{Type: "lua", ScriptFile: "/nonexistent/lookup.lua"}); err == nil {
			t.Error("expected an error for a missing script file")
		}
	})
}

func TestNewMetadataStore_Caching(t *testing.T) {
	base := MetadataConfig{
		Entities: []EntityConfig{{EntityID: "e1"}},
	}

	t.Run("memory cache", func(t *testing.T) {
		cfg := base
		cfg.Caching = &CachingConfig{Type: "memory", TTL: "5m"}
		store, err := NewMetadataStore(cfg)
		if err != nil {
			t.Fatalf("NewMetadataStore failed: %v", err)
		}
		if _, err := store.Lookup(context.Background(), "e1"); err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		cfg := base
		cfg.Caching = &CachingConfig{Type: "memory", TTL: "soon"}
		if _, err := NewMetadataStore(cfg); err == nil {
			t.Error("expected an error for invalid ttl")
		}
	})

	t.Run("distributed cache", func(t *testing.T) {
		cfg := base
		cfg.Caching = &CachingConfig{Type: "distributed", GroupName: "metadata-config-test"}
		store, err := NewMetadataStore(cfg)
		if err != nil {
			t.Fatalf("NewMetadataStore failed: %v", err)
		}
		entity, err := store.Lookup(context.Background(), "e1")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if entity.EntityID != "e1" {
			t.Errorf("EntityID = %q", entity.EntityID)
		}
	})

	t.Run("unknown caching type", func(t *testing.T) {
		cfg := base
		cfg.Caching = &CachingConfig{Type: "redis"}
		if _, err := NewMetadataStore(cfg); err == nil {
			t.Error("expected an error for unknown caching type")
		}
	})
}

func TestNewMetadataStore_Errors(t *testing.T) {
	t.Run("entity without entity_id", func(t *testing.T) {
		if _, err := NewMetadataStore(MetadataConfig{
			Entities: []EntityConfig{{DisplayName: "nameless"}},
		}); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("unknown store type", func(t *testing.T) {
		if _, err := NewMetadataStore(MetadataConfig{Type: "ldap"}); err == nil {
			t.Error("expected an error")
		}
	})
}

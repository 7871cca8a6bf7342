package metadata

import (
	"context"
	"errors"
	"slices"
	"testing"
)

const lookupScript = `
function lookup(entity_id)
  if entity_id == "https://sp.example.org" then
    return {
      display_name = "Example SP",
      attributes = {"mail", "eduPersonPrincipalName"},
    }
  end
  if entity_id == "https://bare.example.org" then
    return { display_name = "No Policy" }
  end
  if entity_id == "https://empty.example.org" then
    return { attributes = {} }
  end
  return nil
end
`

func TestNewLuaStore(t *testing.T) {
	t.Run("valid script", func(t *testing.T) {
		store, err := NewLuaStore(LuaStoreConfig{Name: "test", Script: lookupScript})
		if err != nil {
			t.Fatalf("NewLuaStore failed: %v", err)
		}
		if store.Name() != "test" {
			t.Errorf("Name() = %q, want %q", store.Name(), "test")
		}
	})

	t.Run("empty script is rejected", func(t *testing.T) {
		if _, err := NewLuaStore(LuaStoreConfig{}); err == nil {
			t.Error("expected an error for empty script")
		}
	})

	t.Run("script without lookup function is rejected", func(t *testing.T) {
		if _, err := NewLuaStore(LuaStoreConfig{Script: `x = 1`}); err == nil {
			t.Error("expected an error when lookup is not defined")
		}
	})

	t.Run("script with syntax error is rejected", func(t *testing.T) {
		if _, err := NewLuaStore(LuaStoreConfig{Script: `function lookup(`}); err == nil {
			t.Error("expected a load error")
		}
	})

	t.Run("name defaults to lua", func(t *testing.T) {
		store, err := NewLuaStore(LuaStoreConfig{Script: lookupScript})
		if err != nil {
			t.Fatalf("NewLuaStore failed: %v", err)
		}
		if store.Name() != "lua" {
			t.Errorf("Name() = %q, want %q", store.Name(), "lua")
		}
	})
}

func TestLuaStoreLookup(t *testing.T) {
	store, err := NewLuaStore(LuaStoreConfig{Script: lookupScript})
	if err != nil {
		t.Fatalf("NewLuaStore failed: %v", err)
	}
	ctx := context.Background()

	t.Run("known entity with attributes", func(t *testing.T) {
		entity, err := store.Lookup(ctx, "https://sp.example.org")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if entity.EntityID != "https://sp.example.org" {
			t.Errorf("EntityID = %q", entity.EntityID)
		}
		if entity.DisplayName != "Example SP" {
			t.Errorf("DisplayName = %q", entity.DisplayName)
		}
		if want := []string{"mail", "eduPersonPrincipalName"}; !slices.Equal(entity.Attributes, want) {
			t.Errorf("Attributes = %v, want %v", entity.Attributes, want)
		}
	})

	t.Run("entity without attributes field", func(t *testing.T) {
		entity, err := store.Lookup(ctx, "https://bare.example.org")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if entity.Attributes != nil {
			t.Errorf("Attributes = %#v, want nil for an absent field", entity.Attributes)
		}
	})

	t.Run("entity with empty attributes field", func(t *testing.T) {
		entity, err := store.Lookup(ctx, "https://empty.example.org")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if entity.Attributes == nil || len(entity.Attributes) != 0 {
			t.Errorf("Attributes = %#v, want a present-but-empty list", entity.Attributes)
		}
	})

	t.Run("nil return means not found", func(t *testing.T) {
		_, err := store.Lookup(ctx, "https://unknown.example.org")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestLuaStoreLookup_BadReturnValues(t *testing.T) {
	ctx := context.Background()

	t.Run("non-table return", func(t *testing.T) {
		store, err := NewLuaStore(LuaStoreConfig{Script: `function lookup(id) return "oops" end`})
		if err != nil {
			t.Fatalf("NewLuaStore failed: %v", err)
		}
		if _, err := store.Lookup(ctx, "x"); err == nil {
			t.Error("expected an error for non-table return")
		}
	})

	t.Run("non-string attribute", func(t *testing.T) {
		store, err := NewLuaStore(LuaStoreConfig{Script: `function lookup(id) return { attributes = {1, 2} } end`})
		if err != nil {
			t.Fatalf("NewLuaStore failed: %v", err)
		}
		if _, err := store.Lookup(ctx, "x"); err == nil {
			t.Error("expected an error for non-string attributes")
		}
	})

	t.Run("runtime error in lookup", func(t *testing.T) {
		store, err := NewLuaStore(LuaStoreConfig{Script: `function lookup(id) error("boom") end`})
		if err != nil {
			t.Fatalf("NewLuaStore failed: %v", err)
		}
		if _, err := store.Lookup(ctx, "x"); err == nil {
			t.Error("expected a script execution error")
		}
	})
}

func TestLuaStoreLookup_EntityIDOverride(t *testing.T) {
	script := `
function lookup(entity_id)
  return { entity_id = "https://canonical.example.org" }
end
`
	store, err := NewLuaStore(LuaStoreConfig{Script: script})
	if err != nil {
		t.Fatalf("NewLuaStore failed: %v", err)
	}

	entity, err := store.Lookup(context.Background(), "https://alias.example.org")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if entity.EntityID != "https://canonical.example.org" {
		t.Errorf("EntityID = %q, want the script-provided ID", entity.EntityID)
	}
}

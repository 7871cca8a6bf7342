package config

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestNewAliasProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("builtin is the default", func(t *testing.T) {
		provider, err := NewAliasProvider(AliasesConfig{})
		if err != nil {
			t.Fatalf("NewAliasProvider failed: %v", err)
		}
		table, err := provider.Table(ctx)
		if err != nil {
			t.Fatalf("Table failed: %v", err)
		}
		if got := table.Resolve("urn:oid:2.5.4.3"); !slices.Equal(got, []string{"cn"}) {
			t.Errorf("Resolve = %v, want [cn]", got)
		}
	})

	t.Run("file source", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "oid2name.yaml"), []byte("a: x\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		provider, err := NewAliasProvider(AliasesConfig{
			Source: AliasSourceConfig{Type: "file", Dir: dir},
		})
		if err != nil {
			t.Fatalf("NewAliasProvider failed: %v", err)
		}
		table, err := provider.Table(ctx)
		if err != nil {
			t.Fatalf("Table failed: %v", err)
		}
		if got := table.Resolve("a"); !slices.Equal(got, []string{"x"}) {
			t.Errorf("Resolve = %v, want [x]", got)
		}
	})

	t.Run("inline source", func(t *testing.T) {
		provider, err := NewAliasProvider(AliasesConfig{
			Source: AliasSourceConfig{
				Type: "inline",
				Entries: map[string]map[string]any{
					"oid2name": {
						"urn:oid:2.5.4.3": "cn",
						"name":            []any{"givenName", "sn"},
					},
				},
			},
			Duplicate: true,
		})
		if err != nil {
			t.Fatalf("NewAliasProvider failed: %v", err)
		}
		table, err := provider.Table(ctx)
		if err != nil {
			t.Fatalf("Table failed: %v", err)
		}
		if !table.Duplicate() {
			t.Error("expected duplicate mode")
		}
		if got := table.Resolve("name"); !slices.Equal(got, []string{"givenName", "sn"}) {
			t.Errorf("Resolve = %v, want [givenName sn]", got)
		}
	})
}

func TestNewAliasProvider_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  AliasesConfig
	}{
		{
			name: "file source without dir",
			cfg:  AliasesConfig{Source: AliasSourceConfig{Type: "file"}},
		},
		{
			name: "sqlite source without path",
			cfg:  AliasesConfig{Source: AliasSourceConfig{Type: "sqlite"}},
		},
		{
			name: "unknown source type",
			cfg:  AliasesConfig{Source: AliasSourceConfig{Type: "ldap"}},
		},
		{
			name: "inline source with bad mapping",
			cfg: AliasesConfig{Source: AliasSourceConfig{
				Type:    "inline",
				Entries: map[string]map[string]any{"oid2name": {"a": 42}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAliasProvider(tt.cfg); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

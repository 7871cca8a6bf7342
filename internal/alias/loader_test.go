package alias

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestMapLoader(t *testing.T) {
	loader := NewMapLoader(map[string]map[string][]string{
		"oid2name": {"urn:oid:2.5.4.3": {"cn"}},
	})

	t.Run("loads a known resource", func(t *testing.T) {
		mapping, err := loader.Load(context.Background(), "oid2name")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got := mapping["urn:oid:2.5.4.3"]; !slices.Equal(got, []string{"cn"}) {
			t.Errorf("mapping = %v, want [cn]", got)
		}
	})

	t.Run("unknown resource is an error", func(t *testing.T) {
		if _, err := loader.Load(context.Background(), "nope"); err == nil {
			t.Error("expected an error for unknown resource")
		}
	})
}

func TestFileLoader(t *testing.T) {
	t.Run("loads a yaml resource", func(t *testing.T) {
		dir := t.TempDir()
		content := "urn:oid:2.5.4.3: cn\nname:\n  - givenName\n  - sn\n"
		if err := os.WriteFile(filepath.Join(dir, "oid2name.yaml"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		mapping, err := NewFileLoader(dir).Load(context.Background(), "oid2name")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got := mapping["urn:oid:2.5.4.3"]; !slices.Equal(got, []string{"cn"}) {
			t.Errorf("single-target entry = %v, want [cn]", got)
		}
		if got := mapping["name"]; !slices.Equal(got, []string{"givenName", "sn"}) {
			t.Errorf("multi-target entry = %v, want [givenName sn]", got)
		}
	})

	t.Run("loads a json resource", func(t *testing.T) {
		dir := t.TempDir()
		content := `{"urn:oid:2.5.4.4": "sn"}`
		if err := os.WriteFile(filepath.Join(dir, "oid2name.json"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		mapping, err := NewFileLoader(dir).Load(context.Background(), "oid2name")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got := mapping["urn:oid:2.5.4.4"]; !slices.Equal(got, []string{"sn"}) {
			t.Errorf("mapping = %v, want [sn]", got)
		}
	})

	t.Run("yaml wins over json for the same resource", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "oid2name.yaml"), []byte("a: fromYAML\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "oid2name.json"), []byte(`{"a": "fromJSON"}`), 0o644); err != nil {
			t.Fatal(err)
		}

		mapping, err := NewFileLoader(dir).Load(context.Background(), "oid2name")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got := mapping["a"]; !slices.Equal(got, []string{"fromYAML"}) {
			t.Errorf("mapping = %v, want [fromYAML]", got)
		}
	})

	t.Run("missing resource is an error", func(t *testing.T) {
		if _, err := NewFileLoader(t.TempDir()).Load(context.Background(), "oid2name"); err == nil {
			t.Error("expected an error for missing resource")
		}
	})

	t.Run("malformed document is an error", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "oid2name.json"), []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewFileLoader(dir).Load(context.Background(), "oid2name"); err == nil {
			t.Error("expected a parse error")
		}
	})

	t.Run("non-string mapping value is an error", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "oid2name.yaml"), []byte("a: 42\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewFileLoader(dir).Load(context.Background(), "oid2name"); err == nil {
			t.Error("expected a normalization error")
		}
	})
}

func TestBuiltinLoader(t *testing.T) {
	mapping, err := NewBuiltinLoader().Load(context.Background(), DefaultResource)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := mapping["urn:oid:0.9.2342.19200300.100.1.3"]; !slices.Equal(got, []string{"mail"}) {
		t.Errorf("mail OID = %v, want [mail]", got)
	}
	if got := mapping["urn:oid:1.3.6.1.4.1.5923.1.1.1.6"]; !slices.Equal(got, []string{"eduPersonPrincipalName"}) {
		t.Errorf("eduPersonPrincipalName OID = %v, want [eduPersonPrincipalName]", got)
	}
}

func TestNormalizeMapping(t *testing.T) {
	t.Run("string and list values", func(t *testing.T) {
		mapping, err := NormalizeMapping(map[string]any{
			"a": "x",
			"b": []any{"y", "z"},
			"c": []string{"w"},
		})
		if err != nil {
			t.Fatalf("NormalizeMapping failed: %v", err)
		}
		if got := mapping["a"]; !slices.Equal(got, []string{"x"}) {
			t.Errorf("a = %v", got)
		}
		if got := mapping["b"]; !slices.Equal(got, []string{"y", "z"}) {
			t.Errorf("b = %v", got)
		}
		if got := mapping["c"]; !slices.Equal(got, []string{"w"}) {
			t.Errorf("c = %v", got)
		}
	})

	t.Run("non-string list item is an error", func(t *testing.T) {
		if _, err := NormalizeMapping(map[string]any{"a": []any{"x", 1}}); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("unsupported value type is an error", func(t *testing.T) {
		if _, err := NormalizeMapping(map[string]any{"a": map[string]any{}}); err == nil {
			t.Error("expected an error")
		}
	})
}

package policy

import (
	"slices"
	"testing"
)

func TestParseStaticPolicy(t *testing.T) {
	t.Run("bare names", func(t *testing.T) {
		parsed, err := ParseStaticPolicy([]any{"cn", "mail"})
		if err != nil {
			t.Fatalf("ParseStaticPolicy failed: %v", err)
		}
		if want := []string{"cn", "mail"}; !slices.Equal(parsed.Names(), want) {
			t.Errorf("Names() = %v, want %v", parsed.Names(), want)
		}
		for _, entry := range parsed {
			if entry.Constraint != nil {
				t.Errorf("bare entry %q unexpectedly has a constraint", entry.Name)
			}
		}
	})

	t.Run("plain value list is an exact constraint", func(t *testing.T) {
		parsed, err := ParseStaticPolicy([]any{
			map[string]any{"mail": []any{"user@example.org", "admin@example.org"}},
		})
		if err != nil {
			t.Fatalf("ParseStaticPolicy failed: %v", err)
		}
		if len(parsed) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(parsed))
		}
		c := parsed[0].Constraint
		if c == nil {
			t.Fatal("expected a constraint")
		}
		if c.Mode != ModeExact {
			t.Errorf("Mode = %v, want exact", c.Mode)
		}
		if want := []string{"user@example.org", "admin@example.org"}; !slices.Equal(c.Values, want) {
			t.Errorf("Values = %v, want %v", c.Values, want)
		}
	})

	t.Run("regex marker", func(t *testing.T) {
		parsed, err := ParseStaticPolicy([]any{
			map[string]any{"memberOf": map[string]any{
				"regex":  true,
				"values": []any{"^cn=grp-.*"},
			}},
		})
		if err != nil {
			t.Fatalf("ParseStaticPolicy failed: %v", err)
		}
		c := parsed[0].Constraint
		if c.Mode != ModeRegex {
			t.Errorf("Mode = %v, want regex", c.Mode)
		}
		if want := []string{"^cn=grp-.*"}; !slices.Equal(c.Values, want) {
			t.Errorf("Values = %v, want %v", c.Values, want)
		}
	})

	t.Run("ignoreCase marker", func(t *testing.T) {
		parsed, err := ParseStaticPolicy([]any{
			map[string]any{"role": map[string]any{
				"ignoreCase": true,
				"values":     []any{"Admin"},
			}},
		})
		if err != nil {
			t.Fatalf("ParseStaticPolicy failed: %v", err)
		}
		if parsed[0].Constraint.Mode != ModeIgnoreCase {
			t.Errorf("Mode = %v, want ignoreCase", parsed[0].Constraint.Mode)
		}
	})

	t.Run("regex wins over ignoreCase when both are set", func(t *testing.T) {
		parsed, err := ParseStaticPolicy([]any{
			map[string]any{"role": map[string]any{
				"regex":      true,
				"ignoreCase": true,
				"values":     []any{"^adm"},
			}},
		})
		if err != nil {
			t.Fatalf("ParseStaticPolicy failed: %v", err)
		}
		if parsed[0].Constraint.Mode != ModeRegex {
			t.Errorf("Mode = %v, want regex", parsed[0].Constraint.Mode)
		}
	})

	t.Run("order and multiplicity are preserved", func(t *testing.T) {
		parsed, err := ParseStaticPolicy([]any{"cn", "mail", "cn"})
		if err != nil {
			t.Fatalf("ParseStaticPolicy failed: %v", err)
		}
		if want := []string{"cn", "mail", "cn"}; !slices.Equal(parsed.Names(), want) {
			t.Errorf("Names() = %v, want %v", parsed.Names(), want)
		}
	})
}

func TestParseStaticPolicy_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  []any
	}{
		{
			name: "non-string non-map entry",
			raw:  []any{42},
		},
		{
			name: "constrained entry with multiple keys",
			raw:  []any{map[string]any{"a": []any{"x"}, "b": []any{"y"}}},
		},
		{
			name: "marker map without values",
			raw:  []any{map[string]any{"role": map[string]any{"regex": true}}},
		},
		{
			name: "marker map without any marker",
			raw:  []any{map[string]any{"role": map[string]any{"values": []any{"x"}}}},
		},
		{
			name: "non-string value in list",
			raw:  []any{map[string]any{"mail": []any{"ok", 7}}},
		},
		{
			name: "values is not a list",
			raw:  []any{map[string]any{"role": map[string]any{"regex": true, "values": "x"}}},
		},
		{
			name: "payload is a scalar",
			raw:  []any{map[string]any{"mail": "user@example.org"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStaticPolicy(tt.raw)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !IsConfigurationError(err) {
				t.Errorf("expected a ConfigurationError, got %T: %v", err, err)
			}
		})
	}
}

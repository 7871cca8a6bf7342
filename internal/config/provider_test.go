package config

import (
	"testing"

	"github.com/project-relgate/relgate/internal/policy"
)

func TestProvider(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{HTTPPort: 8081},
		Policy: PolicyConfig{Static: []any{"cn"}},
	}

	t.Run("components are cached", func(t *testing.T) {
		provider := NewProvider(cfg)

		engine1, err := provider.Engine()
		if err != nil {
			t.Fatalf("Engine failed: %v", err)
		}
		engine2, err := provider.Engine()
		if err != nil {
			t.Fatalf("Engine failed: %v", err)
		}
		if engine1 != engine2 {
			t.Error("expected the same engine instance")
		}

		store1, err := provider.MetadataStore()
		if err != nil {
			t.Fatalf("MetadataStore failed: %v", err)
		}
		store2, err := provider.MetadataStore()
		if err != nil {
			t.Fatalf("MetadataStore failed: %v", err)
		}
		if store1 != store2 {
			t.Error("expected the same store instance")
		}

		if provider.Registry() != provider.Registry() {
			t.Error("expected the same registry instance")
		}
	})

	t.Run("injected observer is used", func(t *testing.T) {
		provider := NewProvider(cfg)
		injected := policy.NoOpFilterObserver{}
		provider.SetObserver(injected)

		observer, err := provider.Observer()
		if err != nil {
			t.Fatalf("Observer failed: %v", err)
		}
		if observer != policy.FilterObserver(injected) {
			t.Error("expected the injected observer")
		}
	})

	t.Run("decoder is nil when assertion decoding is unconfigured", func(t *testing.T) {
		provider := NewProvider(cfg)
		decoder, err := provider.AssertionDecoder()
		if err != nil {
			t.Fatalf("AssertionDecoder failed: %v", err)
		}
		if decoder != nil {
			t.Errorf("expected nil decoder, got %v", decoder)
		}
	})

	t.Run("invalid refresh interval is an error", func(t *testing.T) {
		provider := NewProvider(&Config{
			Assertion: &AssertionConfig{
				Issuer:          "https://issuer.example.org",
				JWKSURL:         "https://issuer.example.org/jwks.json",
				RefreshInterval: "often",
			},
		})
		if _, err := provider.AssertionDecoder(); err == nil {
			t.Error("expected an error for invalid refresh_interval")
		}
	})

	t.Run("server config carries the port", func(t *testing.T) {
		provider := NewProvider(cfg)
		if got := provider.ServerConfig().HTTPPort; got != 8081 {
			t.Errorf("HTTPPort = %d, want 8081", got)
		}
	})
}

package config

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/project-relgate/relgate/internal/alias"
	"github.com/project-relgate/relgate/internal/assertion"
	"github.com/project-relgate/relgate/internal/metadata"
	"github.com/project-relgate/relgate/internal/policy"
	"github.com/project-relgate/relgate/internal/server"
)

// Provider constructs all application components from configuration
// This is the main entry point for building a configured relgate instance
type Provider struct {
	config *Config

	// Lazily constructed components (cached after first call)
	registry      *prometheus.Registry
	aliasProvider alias.Provider
	metadataStore metadata.Store
	engine        *policy.Engine
	decoder       *assertion.Decoder
	decoderBuilt  bool
	observer      policy.FilterObserver
}

// NewProvider creates a new provider from configuration
func NewProvider(config *Config) *Provider {
	return &Provider{
		config: config,
	}
}

// SetObserver sets the filter observer for all components built by this provider.
// Must be called before Engine() or any method that depends on the observer.
func (p *Provider) SetObserver(observer policy.FilterObserver) {
	p.observer = observer
}

// Observer returns the configured filter observer.
// If SetObserver was called, returns that observer.
// Otherwise, creates a default observer from config.
func (p *Provider) Observer() (policy.FilterObserver, error) {
	if p.observer != nil {
		return p.observer, nil
	}

	// Build from config (fallback when SetObserver was not called)
	observer, err := NewObserver(p.config.Observability, p.Registry())
	if err != nil {
		return nil, fmt.Errorf("failed to create observer: %w", err)
	}

	p.observer = observer
	return observer, nil
}

// Registry returns the Prometheus registry shared by all components
func (p *Provider) Registry() *prometheus.Registry {
	if p.registry == nil {
		p.registry = prometheus.NewRegistry()
	}
	return p.registry
}

// AliasProvider returns the configured alias table provider
func (p *Provider) AliasProvider() (alias.Provider, error) {
	if p.aliasProvider != nil {
		return p.aliasProvider, nil
	}

	provider, err := NewAliasProvider(p.config.Aliases)
	if err != nil {
		return nil, fmt.Errorf("failed to create alias provider: %w", err)
	}

	p.aliasProvider = provider
	return provider, nil
}

// MetadataStore returns the configured trust metadata store
func (p *Provider) MetadataStore() (metadata.Store, error) {
	if p.metadataStore != nil {
		return p.metadataStore, nil
	}

	store, err := NewMetadataStore(p.config.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata store: %w", err)
	}

	p.metadataStore = store
	return store, nil
}

// Engine returns the configured filtering engine
func (p *Provider) Engine() (*policy.Engine, error) {
	if p.engine != nil {
		return p.engine, nil
	}

	aliasProvider, err := p.AliasProvider()
	if err != nil {
		return nil, err
	}

	observer, err := p.Observer()
	if err != nil {
		return nil, err
	}

	engine, err := NewEngine(p.config, aliasProvider, observer)
	if err != nil {
		return nil, err
	}

	p.engine = engine
	return engine, nil
}

// AssertionDecoder returns the configured assertion decoder, or nil when
// assertion decoding is not configured
func (p *Provider) AssertionDecoder() (*assertion.Decoder, error) {
	if p.decoderBuilt {
		return p.decoder, nil
	}

	if p.config.Assertion == nil {
		p.decoderBuilt = true
		return nil, nil
	}

	decoderCfg := assertion.DecoderConfig{
		Issuer:            p.config.Assertion.Issuer,
		JWKSURL:           p.config.Assertion.JWKSURL,
		IncludeRegistered: p.config.Assertion.IncludeRegistered,
	}

	if p.config.Assertion.RefreshInterval != "" {
		duration, err := time.ParseDuration(p.config.Assertion.RefreshInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid assertion refresh_interval: %w", err)
		}
		decoderCfg.RefreshInterval = duration
	}

	decoder, err := assertion.NewDecoder(decoderCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create assertion decoder: %w", err)
	}

	p.decoder = decoder
	p.decoderBuilt = true
	return decoder, nil
}

// ServerConfig returns the server configuration
func (p *Provider) ServerConfig() server.Config {
	return server.Config{
		HTTPPort: p.config.Server.HTTPPort,
	}
}

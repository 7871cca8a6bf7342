package alias

import (
	"context"
	"fmt"
	"sync"
)

// Provider yields the alias table used during filtering.
//
// The table is loaded on first use and reused for every subsequent invocation;
// construction happens once at startup and the provider is shared by reference
// across concurrent filtering passes. Hot-reload means building a new provider
// and swapping it in, never mutating a loaded table.
type Provider interface {
	Table(ctx context.Context) (*Table, error)
}

// loadOnceProvider loads the configured resources through a Loader exactly
// once, merging them into a single table.
type loadOnceProvider struct {
	loader    Loader
	resources []string
	duplicate bool

	once  sync.Once
	table *Table
	err   error
}

// NewProvider creates a load-once provider over the given loader.
// Resources are loaded in order and merged per the duplicate mode; an empty
// resource list defaults to the "oid2name" resource.
func NewProvider(loader Loader, resources []string, duplicate bool) Provider {
	if len(resources) == 0 {
		resources = []string{DefaultResource}
	}
	return &loadOnceProvider{
		loader:    loader,
		resources: resources,
		duplicate: duplicate,
	}
}

// Table implements Provider
func (p *loadOnceProvider) Table(ctx context.Context) (*Table, error) {
	p.once.Do(func() {
		merged := make(map[string][]string)
		for _, resource := range p.resources {
			mapping, err := p.loader.Load(ctx, resource)
			if err != nil {
				p.err = fmt.Errorf("failed to load alias resource %q: %w", resource, err)
				return
			}
			merge(merged, mapping, p.duplicate)
		}
		p.table = NewTable(merged, p.duplicate)
	})
	return p.table, p.err
}

// StaticProvider wraps an already-built table
type StaticProvider struct {
	table *Table
}

// NewStaticProvider creates a provider returning a fixed table
func NewStaticProvider(table *Table) *StaticProvider {
	return &StaticProvider{table: table}
}

// Table implements Provider
func (p *StaticProvider) Table(context.Context) (*Table, error) {
	return p.table, nil
}

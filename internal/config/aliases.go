package config

import (
	"fmt"

	"github.com/project-relgate/relgate/internal/alias"
)

// NewAliasProvider creates the alias table provider from configuration
func NewAliasProvider(cfg AliasesConfig) (alias.Provider, error) {
	loader, err := newAliasLoader(cfg.Source)
	if err != nil {
		return nil, err
	}
	return alias.NewProvider(loader, cfg.Resources, cfg.Duplicate), nil
}

// newAliasLoader creates an alias loader from configuration
func newAliasLoader(cfg AliasSourceConfig) (alias.Loader, error) {
	switch cfg.Type {
	case "builtin", "":
		return alias.NewBuiltinLoader(), nil
	case "file":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("file alias source requires dir")
		}
		return alias.NewFileLoader(cfg.Dir), nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite alias source requires path")
		}
		return alias.OpenSQLiteLoader(cfg.Path)
	case "inline":
		resources := make(map[string]map[string][]string, len(cfg.Entries))
		for resource, raw := range cfg.Entries {
			mapping, err := alias.NormalizeMapping(raw)
			if err != nil {
				return nil, fmt.Errorf("inline alias resource %q: %w", resource, err)
			}
			resources[resource] = mapping
		}
		return alias.NewMapLoader(resources), nil
	default:
		return nil, fmt.Errorf("unknown alias source type: %s (supported: builtin, file, sqlite, inline)", cfg.Type)
	}
}

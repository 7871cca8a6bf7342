package alias

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
)

// DefaultResource is the conventional name of the attribute-name mapping
// consulted during filtering.
const DefaultResource = "oid2name"

// Loader loads a named alias mapping resource.
//
// A resource is a flat mapping from alias name to either one canonical name or
// an ordered list of canonical names. Returning an error means the resource
// could not be located or is not a well-formed mapping; the engine treats that
// as fatal configuration for the invocation that triggered the load.
type Loader interface {
	Load(ctx context.Context, resource string) (map[string][]string, error)
}

// MapLoader serves alias resources from an in-memory map.
// Used for inline config-declared mappings and in tests.
type MapLoader struct {
	resources map[string]map[string][]string
}

// NewMapLoader creates a loader over the given resources
func NewMapLoader(resources map[string]map[string][]string) *MapLoader {
	return &MapLoader{resources: resources}
}

// Load implements Loader
func (l *MapLoader) Load(_ context.Context, resource string) (map[string][]string, error) {
	mapping, ok := l.resources[resource]
	if !ok {
		return nil, fmt.Errorf("alias resource %q not found", resource)
	}
	return mapping, nil
}

// FileLoader loads alias resources from files in a directory.
// A resource named "oid2name" is looked up as oid2name.yaml, oid2name.yml,
// oid2name.json, or oid2name.toml, in that order.
type FileLoader struct {
	dir string
}

// NewFileLoader creates a loader reading from the given directory
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{dir: dir}
}

// Load implements Loader
func (l *FileLoader) Load(_ context.Context, resource string) (map[string][]string, error) {
	for _, ext := range []string{".yaml", ".yml", ".json", ".toml"} {
		path := filepath.Join(l.dir, resource+ext)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read alias resource %s: %w", path, err)
		}

		parser, err := parserForExt(ext)
		if err != nil {
			return nil, err
		}

		raw, err := parser.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse alias resource %s: %w", path, err)
		}

		mapping, err := NormalizeMapping(raw)
		if err != nil {
			return nil, fmt.Errorf("alias resource %s: %w", path, err)
		}
		return mapping, nil
	}

	return nil, fmt.Errorf("alias resource %q not found in %s", resource, l.dir)
}

// parserForExt returns the koanf parser for a file extension
func parserForExt(ext string) (koanf.Parser, error) {
	switch ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported alias resource format: %s", ext)
	}
}

// NormalizeMapping converts a freshly parsed document into an alias mapping.
// Each value must be a string or a list of strings.
func NormalizeMapping(raw map[string]any) (map[string][]string, error) {
	mapping := make(map[string][]string, len(raw))
	for aliasName, value := range raw {
		switch v := value.(type) {
		case string:
			mapping[aliasName] = []string{v}
		case []any:
			targets := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("entry %q maps to non-string value %v", aliasName, item)
				}
				targets = append(targets, s)
			}
			mapping[aliasName] = targets
		case []string:
			mapping[aliasName] = v
		default:
			return nil, fmt.Errorf("entry %q has unsupported mapping type %T", aliasName, value)
		}
	}
	return mapping, nil
}

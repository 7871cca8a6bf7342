package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "RELGATE_"

// configParsers maps config file extensions to their koanf parsers
var configParsers = map[string]koanf.Parser{
	".yaml": yaml.Parser(),
	".yml":  yaml.Parser(),
	".json": json.Parser(),
	".toml": toml.Parser(),
}

// Loader assembles the effective configuration from layered sources.
//
// Precedence, highest first: command-line flags, RELGATE_* environment
// variables, the config file, built-in defaults. Nested keys are addressed
// with double underscores in the environment (RELGATE_SERVER__HTTP_PORT maps
// to server.http_port); a single underscore stays part of the field name.
type Loader struct {
	k          *koanf.Koanf
	configPath string
	flags      *pflag.FlagSet
}

// NewLoader reads configuration from the given file plus environment
// overrides. An empty configPath skips the file layer entirely.
func NewLoader(configPath string) (*Loader, error) {
	return newLoader(configPath, nil)
}

// NewLoaderWithFlags additionally overlays explicitly-set command-line flags
// on top of the file and environment layers.
func NewLoaderWithFlags(configPath string, flags *pflag.FlagSet) (*Loader, error) {
	return newLoader(configPath, flags)
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.http_port":    8080,
		"aliases.source.type": "builtin",
		"metadata.type":       "static",
	}
}

func newLoader(configPath string, flags *pflag.FlagSet) (*Loader, error) {
	l := &Loader{configPath: configPath, flags: flags}

	k, err := l.assemble()
	if err != nil {
		return nil, err
	}
	l.k = k
	return l, nil
}

// assemble builds a fresh koanf instance with all layers applied in
// precedence order. Watch reuses it so a reload sees the same layering as
// startup.
func (l *Loader) assemble() (*koanf.Koanf, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if l.configPath != "" {
		parser, err := parserFor(l.configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(l.configPath), parser); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", l.configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if l.flags != nil {
		if err := k.Load(l.flagProvider(k), nil); err != nil {
			return nil, fmt.Errorf("failed to load command-line flags: %w", err)
		}
	}

	return k, nil
}

// flagProvider wraps the flag set so only explicitly-set flags with a known
// config-key mapping override lower layers
func (l *Loader) flagProvider(k *koanf.Koanf) *posflag.Posflag {
	mapping := GetFlagMapping()
	return posflag.ProviderWithFlag(l.flags, ".", k, func(f *pflag.Flag) (string, any) {
		key, ok := mapping[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(l.flags, f)
	})
}

// Get unmarshals the assembled configuration into a Config
func (l *Loader) Get() (*Config, error) {
	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Watch blocks until ctx is cancelled, invoking onChange with a freshly
// assembled Config whenever the config file changes on disk.
//
// A reload is copy-and-swap: the caller builds a whole new component graph
// from the new Config while in-flight filtering passes keep the snapshot
// they started with. Reload failures are logged and the previous
// configuration stays in effect. With no config file there is nothing to
// watch, so Watch just blocks.
func (l *Loader) Watch(ctx context.Context, onChange func(*Config) error) error {
	if l.configPath == "" {
		<-ctx.Done()
		return ctx.Err()
	}

	fp := file.Provider(l.configPath)
	if err := fp.Watch(func(event interface{}, err error) {
		if err != nil {
			slog.Warn("config watch event error", "path", l.configPath, "error", err)
			return
		}
		l.reload(onChange)
	}); err != nil {
		return fmt.Errorf("failed to watch config file: %w", err)
	}

	<-ctx.Done()
	return ctx.Err()
}

func (l *Loader) reload(onChange func(*Config) error) {
	k, err := l.assemble()
	if err != nil {
		slog.Warn("config reload failed, keeping previous configuration", "path", l.configPath, "error", err)
		return
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		slog.Warn("config reload unmarshal failed, keeping previous configuration", "path", l.configPath, "error", err)
		return
	}

	l.k = k
	if err := onChange(&cfg); err != nil {
		slog.Warn("config change handler failed", "error", err)
	}
}

func parserFor(path string) (koanf.Parser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	parser, ok := configParsers[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json, .toml)", ext)
	}
	return parser, nil
}

// envTransform maps RELGATE_SERVER__HTTP_PORT to server.http_port
func envTransform(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

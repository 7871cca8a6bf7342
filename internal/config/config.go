package config

// Config is the root configuration for relgate
type Config struct {
	// Server configures the HTTP API
	Server ServerConfig `koanf:"server"`

	// Policy configures the static allow set and conditional release rules
	Policy PolicyConfig `koanf:"policy"`

	// Aliases configures the attribute-name alias table
	Aliases AliasesConfig `koanf:"aliases"`

	// Metadata configures the trust metadata store
	Metadata MetadataConfig `koanf:"metadata"`

	// Assertion configures signed-assertion decoding. Optional: when absent,
	// the API only accepts inline attribute bags.
	Assertion *AssertionConfig `koanf:"assertion"`

	// Observability configures logging and metrics
	Observability *ObservabilityConfig `koanf:"observability"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	HTTPPort int `koanf:"http_port"`
}

// PolicyConfig contains the filtering policy
type PolicyConfig struct {
	// Static is the raw static policy document: an ordered list where a plain
	// string is a bare allow-all name and a single-key map pairs a name with
	// a value constraint payload. Parsed once at startup.
	Static []any `koanf:"static"`

	// Rules are the conditional release rules, evaluated in order
	Rules []ReleaseRuleConfig `koanf:"rules"`
}

// ReleaseRuleConfig configures one conditional release rule
type ReleaseRuleConfig struct {
	// Type selects the rule kind: "membership" (default) or "cel"
	Type string `koanf:"type"`

	// Attribute is the attribute name the rule re-admits
	Attribute string `koanf:"attribute"`

	// RelyingParties and IdentitySources are the membership rule's sets
	RelyingParties  []string `koanf:"relying_parties"`
	IdentitySources []string `koanf:"identity_sources"`

	// Expression is the CEL rule's boolean expression
	Expression string `koanf:"expression"`
}

// AliasesConfig configures the name-alias table
type AliasesConfig struct {
	// Source selects where alias resources are loaded from
	Source AliasSourceConfig `koanf:"source"`

	// Resources are the resource names to load and merge, in order.
	// Defaults to ["oid2name"].
	Resources []string `koanf:"resources"`

	// Duplicate turns on retain-original mode: expanded aliases keep their
	// own entry, and colliding keys from later resources concatenate instead
	// of overwriting
	Duplicate bool `koanf:"duplicate"`
}

// AliasSourceConfig selects an alias loader
type AliasSourceConfig struct {
	// Type is one of: "builtin" (default), "file", "sqlite", "inline"
	Type string `koanf:"type"`

	// Dir is the directory holding resource files (file loader)
	Dir string `koanf:"dir"`

	// Path is the SQLite database path (sqlite loader)
	Path string `koanf:"path"`

	// Entries holds inline resources: resource name to alias mapping, where
	// each alias maps to a canonical name or list of names (inline loader)
	Entries map[string]map[string]any `koanf:"entries"`
}

// MetadataConfig configures the trust metadata store
type MetadataConfig struct {
	// Type is one of: "static" (default), "lua"
	Type string `koanf:"type"`

	// Entities are the config-declared metadata records (static store)
	Entities []EntityConfig `koanf:"entities"`

	// Script / ScriptFile hold the Lua lookup script (lua store)
	Script     string `koanf:"script"`
	ScriptFile string `koanf:"script_file"`

	// Caching optionally wraps the store with a caching layer
	Caching *CachingConfig `koanf:"caching"`
}

// EntityConfig declares one metadata record
type EntityConfig struct {
	EntityID    string   `koanf:"entity_id"`
	DisplayName string   `koanf:"display_name"`
	Attributes  []string `koanf:"attributes"`
}

// CachingConfig configures a metadata caching layer
type CachingConfig struct {
	// Type is one of: "memory", "distributed"
	Type string `koanf:"type"`

	// TTL is the cache entry lifetime for the memory cache (e.g. "5m").
	// Empty or "0" means entries never expire.
	TTL string `koanf:"ttl"`

	// GroupName names the groupcache group (distributed cache)
	GroupName string `koanf:"group_name"`

	// CacheSizeBytes bounds the distributed cache size
	CacheSizeBytes int64 `koanf:"cache_size_bytes"`
}

// AssertionConfig configures signed-assertion decoding
type AssertionConfig struct {
	Issuer            string `koanf:"issuer"`
	JWKSURL           string `koanf:"jwks_url"`
	RefreshInterval   string `koanf:"refresh_interval"`
	IncludeRegistered bool   `koanf:"include_registered"`
}

// ObservabilityConfig configures logging and metrics
type ObservabilityConfig struct {
	// Type is one of: "logging", "metrics", "noop", "composite"
	Type string `koanf:"type"`

	// LogLevel is the default log level (debug, info, warn, error)
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler (json, text)
	LogFormat string `koanf:"log_format"`

	// Observers are the sub-observers of a composite observer
	Observers []ObservabilityConfig `koanf:"observers"`

	// AttributeFilter tunes the attribute_filter log event
	AttributeFilter *EventConfig `koanf:"attribute_filter"`
}

// EventConfig tunes one log event
type EventConfig struct {
	Enabled  *bool  `koanf:"enabled"`
	LogLevel string `koanf:"log_level"`
}

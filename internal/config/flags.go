package config

import "github.com/spf13/pflag"

// RegisterFlags registers the command-line flags that can override
// configuration values
func RegisterFlags(flags *pflag.FlagSet) {
	flags.Int("server-http-port", 8080, "HTTP port for the filter API")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "json", "Log format (json, text)")
	flags.String("aliases-dir", "", "Directory holding alias resource files")
}

// GetFlagMapping maps flag names to config keys
func GetFlagMapping() map[string]string {
	return map[string]string{
		"server-http-port": "server.http_port",
		"log-level":        "observability.log_level",
		"log-format":       "observability.log_format",
		"aliases-dir":      "aliases.source.dir",
	}
}

// Package cli wires the relgate commands.
package cli

import (
	"github.com/spf13/cobra"
)

// configFile is the --config flag value, shared by all commands
var configFile string

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relgate",
		Short: "Attribute release gate for authentication exchanges",
		Long: `relgate decides, per authentication exchange, which identity attributes
are forwarded to a relying application and which values of each attribute
survive. It combines a static allow list with per-attribute value constraints,
a metadata-derived allow list, a name-alias table, and conditional release
rules.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file (YAML, JSON, or TOML)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewFilterCmd())

	return cmd
}

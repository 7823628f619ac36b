// Package commands defines all Cobra CLI commands for the vdex binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/vdex/vdex/internal/config"
	"github.com/vdex/vdex/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vdex",
		Short: "vdex — document ingestion and semantic indexing service",
		Long: `vdex parses, chunks, embeds, and indexes documents for semantic search.

It exposes a REST/SSE API backed by a relational catalog of documents and
collections and a pluggable set of embedding and vector-store providers.
Configuration is layered: defaults, then a YAML file, then environment
variables, which always win.

See 'vdex --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.vdex/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewMigrateCmd(),
		NewVersionCmd(),
	)

	return root
}

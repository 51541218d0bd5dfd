// Package commands defines all Cobra CLI commands for the docq binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/docq-ai/docq-go/internal/audit"
	"github.com/docq-ai/docq-go/internal/config"
	"github.com/docq-ai/docq-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// cfg is the effective configuration, resolved once in PersistentPreRunE.
var cfg *config.Config

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docq",
		Short: "docq answers questions over your PDF documents",
		Long: `docq is a local-first question-answering system for PDF documents.

It extracts and cleans document text, indexes it in a Qdrant vector store,
and answers natural language questions grounded in the retrieved passages.

Embedding and answer models are selected via a YAML config file
(~/.docq/config.yaml) or environment variables (env always wins).
See 'docq --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			loaded, path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			cfg = loaded
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.docq/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewIngestCmd(),
		NewStatusCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return root
}

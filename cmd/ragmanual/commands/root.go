// Package commands defines all Cobra CLI commands for the ragmanual binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/54b3r/ragmanual-go/internal/audit"
	"github.com/54b3r/ragmanual-go/internal/config"
	"github.com/54b3r/ragmanual-go/internal/logging"
)

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "ragmanual",
		Short: "Ask questions about a PDF manual",
		Long: `ragmanual loads PDF manuals into a vector store and answers questions
about them with a chat model, citing the page the answer came from.

The chat backend is selected with MODEL_PROVIDER (ollama, openai, azure,
ark, gemini); the vector store with VECTOR_STORE (qdrant, chromem).
Settings may also come from a YAML file (~/.ragmanual/config.yaml) or a
.env file; real environment variables always win.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.Load(configPath, logging.New())
			if err != nil {
				return err
			}

			// Rebuilt so LOG_LEVEL/LOG_FORMAT from the config file apply.
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)
			cmd.SetContext(ctx)

			audit.LogCommandStart(ctx, log, cmd.Name(), path)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.ragmanual/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAskCmd(),
		NewDocumentsCmd(),
		NewVersionCmd(),
	)

	return root
}

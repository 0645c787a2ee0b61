package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragmanual-go/internal/assistant"
	"github.com/54b3r/ragmanual-go/internal/logging"
	"github.com/54b3r/ragmanual-go/internal/tracing"
)

// NewAskCmd constructs the `ragmanual ask` command, which answers a single
// question from the ingested manuals and prints the answer.
func NewAskCmd() *cobra.Command {
	var advised bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the ingested manuals",
		Long: `Retrieve the passages most similar to the question and let the chat
model answer from them. The answer ends with the page of the best match.
When nothing similar enough is found the model is not called.

--advised appends the passages to the question instead of using the fixed
instruction template, always calls the model and cites no page.

Examples:
  ragmanual ask "How many activation cards does each player get?"
  ragmanual ask --advised "What happens when a unit routs?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			flush := tracing.Setup(tracing.SettingsFromEnv(), log)
			defer flush()

			chatModel, _, err := buildChatModel(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			emb, err := buildEmbedder(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			vs, _, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer vs.Close() //nolint:errcheck

			asst, err := buildAssistant(ctx, chatModel, emb, vs)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			mode := assistant.ModeDirect
			if advised {
				mode = assistant.ModeAdvised
			}

			ans, err := asst.Ask(ctx, strings.Join(args, " "), mode)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ans.Text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&advised, "advised", false, "Append retrieved context to the question instead of using the instruction template")

	return cmd
}

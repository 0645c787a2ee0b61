package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragmanual-go/internal/logging"
)

// NewIngestCmd constructs the `ragmanual ingest` command, which loads local
// PDF files into the vector store.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file.pdf> [file.pdf...]",
		Short: "Ingest PDF manuals into the vector store",
		Long: `Read each PDF page by page, split the text into chunks, embed them and
add them to the vector store. Every chunk remembers the page it came from.

Ingesting the same file twice stores its chunks twice.

Relevant environment variables:
  VECTOR_STORE         qdrant (default) or chromem
  QDRANT_HOST/PORT     Qdrant gRPC endpoint (default localhost:6334)
  QDRANT_COLLECTION    Collection name (default: ragmanual)
  CHROMEM_PATH         Directory for a persistent chromem store
  EMBEDDING_PROVIDER   ollama, openai, azure, gemini (default: MODEL_PROVIDER)
  SPLITTER_MODE        token (default) or recursive

Examples:
  ragmanual ingest ./runewars-rules.pdf
  ragmanual ingest ./rules.pdf ./faq.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			emb, err := buildEmbedder(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			vs, _, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer vs.Close() //nolint:errcheck

			ledger, closeLedger := openLedger(log)
			defer closeLedger()

			pipeline, err := buildPipeline(emb, vs, ledger, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			log.Info("starting ingestion", slog.Int("files", len(args)))
			for _, path := range args {
				res, err := pipeline.IngestFile(ctx, path)
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %d chunks\n", res.Source, res.Pages, res.Chunks)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Done!")
			return nil
		},
	}

	return cmd
}

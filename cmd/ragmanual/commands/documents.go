package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragmanual-go/internal/logging"
	"github.com/54b3r/ragmanual-go/internal/store"
)

// NewDocumentsCmd constructs the `ragmanual documents` command, which lists
// the ingestion ledger.
func NewDocumentsCmd() *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List ingested PDFs from the ledger",
		Long: `List the PDFs recorded in the ingestion ledger, newest first.

The ledger lives at RAGMANUAL_LEDGER_DB (default ~/.ragmanual/ledger.db).

Examples:
  ragmanual documents
  ragmanual documents --limit 5 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			ledger, closeLedger := openLedger(log)
			defer closeLedger()
			if ledger == nil {
				return fmt.Errorf("documents: ledger is not available")
			}

			rows, err := ledger.List(ctx, limit)
			if err != nil {
				return fmt.Errorf("documents: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			return printIngestions(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of rows (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

func printIngestions(w io.Writer, rows []store.Ingestion) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no ingestions recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INGESTED\tSOURCE\tPAGES\tCHUNKS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.CreatedAt.Local().Format(time.DateTime), r.Source, r.Pages, r.Chunks)
	}
	return tw.Flush()
}

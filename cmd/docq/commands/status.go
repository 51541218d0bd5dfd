package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewStatusCmd constructs the `docq status` command, which prints the recent
// ingestion runs recorded in the local manifest database.
func NewStatusCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent ingestion runs for the configured collection",
		Long: `List the most recent ingestion runs recorded in the local manifest
database, newest first.

The manifest is bookkeeping only; the vector store remains the source of
truth for what is searchable.

Examples:
  docq status
  docq status --limit 20`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := newLogger()

			ms := openManifest(log)
			if ms == nil {
				return fmt.Errorf("status: manifest database is disabled or unavailable")
			}
			defer func() { _ = ms.Close() }()

			runs, err := ms.Recent(ctx, cfg.Qdrant.Collection, limit)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			if len(runs) == 0 {
				fmt.Printf("No ingestion runs recorded for collection %q.\n", cfg.Qdrant.Collection)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FINISHED\tSTATUS\tSOURCES\tDOCUMENTS\tCHUNKS\tDETAIL")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
					r.FinishedAt.Format(time.RFC3339), r.Status,
					r.Sources, r.Documents, r.Chunks, r.Detail)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to show")

	return cmd
}

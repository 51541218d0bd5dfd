package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docq-ai/docq-go/internal/query"
)

// NewAskCmd constructs the `docq ask` command, which answers a single
// natural language question from the indexed documents.
func NewAskCmd() *cobra.Command {
	var topK int
	var showSources bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question over the ingested documents",
		Long: `Answer a natural language question using the indexed document chunks.

The question is embedded, the most similar chunks are retrieved from the
vector store, and the configured LLM synthesizes an answer grounded in them.
Answers are never persisted.

Examples:
  docq ask "what architecture does the paper propose?"
  docq ask --top-k 10 "how were the models evaluated?"
  docq ask --sources "what datasets were used for pretraining?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := newLogger()

			if err := cfg.LLM.Validate(); err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			store, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer store.Close()

			if topK > 0 {
				cfg.Query.TopK = topK
			}

			pipeline, err := buildQueryPipeline(ctx, emb, store, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			ans, err := pipeline.Ask(ctx, args[0])
			if err != nil {
				var qerr *query.Error
				if errors.As(err, &qerr) && qerr.Kind == query.KindRetrievalEmpty {
					return fmt.Errorf("ask: no relevant documents found, run 'docq ingest' first")
				}
				return fmt.Errorf("ask: %w", err)
			}

			fmt.Println(ans.Text)
			if showSources && len(ans.Sources) > 0 {
				fmt.Println("\nSources:")
				for _, id := range ans.Sources {
					fmt.Printf("  %s\n", id)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of chunks to retrieve (default from config)")
	cmd.Flags().BoolVarP(&showSources, "sources", "s", false, "Print the supporting chunk ids after the answer")

	return cmd
}

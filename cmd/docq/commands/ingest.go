package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/docq-ai/docq-go/internal/extract"
	"github.com/docq-ai/docq-go/internal/ingest"
	"github.com/docq-ai/docq-go/internal/manifest"
)

// NewIngestCmd constructs the `docq ingest` command, which runs the document
// ingestion pipeline over the configured PDF sources.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest the configured PDF documents into the vector store",
		Long: `Extract, clean, chunk, embed, and index the PDF documents listed under
"sources" in the config file.

All derived ids are deterministic, so re-running ingestion over the same
sources replaces existing entries instead of duplicating them. Each run is
recorded in the local manifest database (see 'docq status').

Required configuration:
  sources              List of PDF documents to ingest (config file only)
  qdrant.*             Qdrant connection (or QDRANT_HOST, QDRANT_PORT, ...)
  embedding.*          Embedding backend (or EMBEDDING_PROVIDER, ...)

Examples:
  docq ingest
  docq --config ./papers.yaml ingest
  EMBEDDING_PROVIDER=cohere COHERE_API_KEY=... docq ingest`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := newLogger()

			if len(cfg.Sources) == 0 {
				return fmt.Errorf("ingest: no sources configured, add a \"sources\" section to the config file")
			}

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			store, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer store.Close()

			pipeline, err := ingest.New(extract.New(), emb, store, log, ingestConfig())
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			ms := openManifest(log)
			if ms != nil {
				defer func() { _ = ms.Close() }()
			}

			log.Info("starting ingestion", slog.Int("sources", len(cfg.Sources)))
			started := time.Now()

			res, runErr := pipeline.Run(ctx, cfg.Sources)

			if ms != nil {
				run := manifest.Run{
					Collection: cfg.Qdrant.Collection,
					Status:     manifest.StatusCompleted,
					StartedAt:  started,
					FinishedAt: time.Now(),
				}
				if res != nil {
					run.Sources = res.Sources
					run.Documents = res.Documents
					run.Chunks = res.Chunks
				}
				if runErr != nil {
					run.Status = manifest.StatusFailed
					run.Detail = runErr.Error()
				}
				if _, err := ms.Record(ctx, run); err != nil {
					log.Warn("manifest: failed to record run", slog.Any("error", err))
				}
			}

			if runErr != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", runErr)
			}

			log.Info("ingestion complete",
				slog.Int("sources", res.Sources),
				slog.Int("documents", res.Documents),
				slog.Int("empty_pages", res.EmptyPages),
				slog.Int("chunks", res.Chunks),
				slog.Duration("elapsed", time.Since(started)),
			)

			fmt.Printf("Ingested %d sources: %d documents, %d chunks (%d empty pages skipped)\n",
				res.Sources, res.Documents, res.Chunks, res.EmptyPages)
			return nil
		},
	}

	return cmd
}

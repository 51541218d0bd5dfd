package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docq-ai/docq-go/internal/embedder"
	"github.com/docq-ai/docq-go/internal/ingest"
	"github.com/docq-ai/docq-go/internal/logging"
	"github.com/docq-ai/docq-go/internal/manifest"
	"github.com/docq-ai/docq-go/internal/provider"
	"github.com/docq-ai/docq-go/internal/query"
	"github.com/docq-ai/docq-go/internal/rag"
	"github.com/docq-ai/docq-go/internal/textclean"
)

// newLogger builds the runtime logger from the loaded config's logging
// section.
func newLogger() *slog.Logger {
	return logging.NewWith(cfg.Logging.Level, cfg.Logging.Format)
}

// buildEmbedder constructs and validates the configured embedding backend.
func buildEmbedder(log *slog.Logger) (rag.Embedder, error) {
	if err := cfg.Embedding.Validate(log); err != nil {
		return nil, err
	}
	emb, err := embedder.New(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Info("embedder initialised",
		slog.String("provider", cfg.Embedding.Provider),
		slog.Int("dimensions", cfg.Embedding.Dim()),
	)
	return emb, nil
}

// buildStore connects to Qdrant and ensures the configured collection exists
// with the embedder's vector size.
func buildStore(ctx context.Context, log *slog.Logger) (*rag.QdrantStore, error) {
	store, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		Collection: cfg.Qdrant.Collection,
		VectorSize: uint64(cfg.Embedding.Dim()), //nolint:gosec // dimensions are bounded
		APIKey:     cfg.Qdrant.APIKey,
		UseTLS:     cfg.Qdrant.TLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", cfg.Qdrant.Host, cfg.Qdrant.Port, err)
	}
	log.Info("qdrant store ready",
		slog.String("host", cfg.Qdrant.Host),
		slog.Int("port", cfg.Qdrant.Port),
		slog.String("collection", cfg.Qdrant.Collection),
	)
	return store, nil
}

// ingestConfig maps the loaded config onto the ingestion pipeline's config.
func ingestConfig() *ingest.Config {
	return &ingest.Config{
		ChunkSize:      cfg.Chunking.MaxSize,
		ChunkOverlap:   cfg.Chunking.Overlap,
		Workers:        cfg.Ingest.Workers,
		EmbedBatchSize: cfg.Ingest.BatchSize,
		MaxRetries:     cfg.Ingest.MaxRetries,
		DocstorePath:   cfg.Docstore.Path,
		Clean:          textclean.DefaultOptions(),
	}
}

// buildQueryPipeline wires the retriever and generator into a query pipeline.
func buildQueryPipeline(ctx context.Context, emb rag.Embedder, store rag.VectorStore, log *slog.Logger) (*query.Pipeline, error) {
	index, err := rag.NewIndex(store, cfg.Qdrant.Collection)
	if err != nil {
		return nil, err
	}
	retriever, err := rag.NewRetriever(emb, index, cfg.Query.TopK)
	if err != nil {
		return nil, err
	}

	generator, err := provider.New(ctx, &cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised",
		slog.String("backend", string(cfg.LLM.Backend)),
		slog.String("model", cfg.LLM.EffectiveModel()),
	)

	return query.New(retriever, generator, log, &query.Config{
		TopK:             cfg.Query.TopK,
		Timeout:          cfg.QueryTimeout(),
		MaxContextTokens: cfg.Query.MaxContextTokens,
	})
}

// openManifest opens the ingestion-run manifest store. DOCQ_MANIFEST_DB (or
// manifest.db_path) set to "disabled" turns the manifest off; failures to
// open are non-fatal and return nil.
func openManifest(log *slog.Logger) *manifest.Store {
	path := cfg.Manifest.DBPath
	if path == "disabled" {
		log.Info("manifest: disabled via config")
		return nil
	}
	if path == "" {
		var err error
		path, err = manifest.DefaultDBPath()
		if err != nil {
			log.Warn("manifest: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil
		}
	}
	ms, err := manifest.Open(path)
	if err != nil {
		log.Warn("manifest: failed to open store, disabling", slog.Any("error", err))
		return nil
	}
	log.Info("manifest: store opened", slog.String("path", path))
	return ms
}

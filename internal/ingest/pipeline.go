// Package ingest implements the document ingestion pipeline. It extracts
// pages from configured PDF sources, trims headers and footers, cleans the
// text, persists the page documents, chunks them, embeds each chunk, and
// upserts the results into the vector store. All derived ids are
// deterministic, so re-running ingestion over the same sources replaces
// instead of duplicating.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/docq-ai/docq-go/internal/chunker"
	"github.com/docq-ai/docq-go/internal/docstore"
	"github.com/docq-ai/docq-go/internal/extract"
	"github.com/docq-ai/docq-go/internal/rag"
	"github.com/docq-ai/docq-go/internal/textclean"
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of runes per chunk.
	// Defaults to 1024 if zero.
	ChunkSize int

	// ChunkOverlap is the number of runes shared between consecutive chunks.
	// Zero disables overlap; a value >= ChunkSize is rejected by New.
	ChunkOverlap int

	// Workers is the number of concurrent embed+upsert workers.
	// Defaults to 4 if zero.
	Workers int

	// EmbedBatchSize is the number of chunks sent per embedding request.
	// Defaults to 16 if zero.
	EmbedBatchSize int

	// MaxRetries is the number of retry attempts for transient embed and
	// upsert failures. Defaults to 3 if zero.
	MaxRetries int

	// DocstorePath is where the page-document snapshot is persisted.
	// Empty disables persistence.
	DocstorePath string

	// Clean selects the text normalization stages applied to each page.
	Clean textclean.Options
}

// Result summarizes a completed ingestion run.
type Result struct {
	// Sources is the number of source files processed.
	Sources int
	// Documents is the number of page documents produced.
	Documents int
	// EmptyPages is the number of pages dropped because no text survived
	// trimming and cleaning.
	EmptyPages int
	// Chunks is the number of chunks embedded and upserted.
	Chunks int
}

// Pipeline orchestrates the extract, trim, clean, persist, chunk, embed,
// upsert flow for a set of PDF sources.
type Pipeline struct {
	extractor *extract.Extractor
	embedder  rag.Embedder
	store     rag.VectorStore
	log       *slog.Logger
	cfg       *Config
}

// New constructs a Pipeline from the provided dependencies and config.
func New(extractor *extract.Extractor, embedder rag.Embedder, store rag.VectorStore, log *slog.Logger, cfg *Config) (*Pipeline, error) {
	if extractor == nil {
		return nil, fmt.Errorf("ingest: extractor must not be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("ingest: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingest: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1024
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("ingest: chunk overlap %d must be smaller than chunk size %d: %w",
			cfg.ChunkOverlap, cfg.ChunkSize, chunker.ErrInvalidConfig)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 16
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Pipeline{
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		log:       log,
		cfg:       cfg,
	}, nil
}

// Run ingests all sources. Page documents are collected and persisted first;
// chunk embedding and upserting then proceeds concurrently. On failure the
// pipeline stops and reports the failing chunk, leaving already-upserted
// chunks in place.
func (p *Pipeline) Run(ctx context.Context, sources []extract.SourceSpec) (*Result, error) {
	docs := docstore.NewStore()
	res := &Result{}

	for _, src := range sources {
		if err := src.Validate(); err != nil {
			return res, fmt.Errorf("ingest: invalid source %s: %w", src.FilePath, err)
		}

		pages, err := p.extractor.Extract(src)
		if err != nil {
			return res, fmt.Errorf("ingest: extracting %s: %w", src.FilePath, err)
		}
		res.Sources++

		for _, page := range pages {
			trimmed := extract.Trim(page.Lines, src.Trim)
			cleaned := textclean.Clean(trimmed, p.cfg.Clean)
			if cleaned == "" {
				res.EmptyPages++
				continue
			}
			docs.Add(docstore.Document{
				ID:   docstore.DocumentID(src.FilePath, page.Number),
				Text: cleaned,
				Metadata: docstore.Metadata{
					PageNumber: page.Number,
					FileName:   filepath.Base(src.FilePath),
					Title:      src.Title,
					Author:     src.Author,
				},
			})
		}
		p.log.Info("source extracted",
			slog.String("file", src.FilePath),
			slog.Int("pages", len(pages)),
		)
	}
	res.Documents = docs.Len()

	if p.cfg.DocstorePath != "" {
		if err := docs.Persist(p.cfg.DocstorePath); err != nil {
			return res, fmt.Errorf("ingest: persisting docstore: %w", err)
		}
	}

	var chunks []chunker.Chunk
	for _, doc := range docs.All() {
		cs, err := chunker.Split(doc, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
		if err != nil {
			return res, fmt.Errorf("ingest: chunking %s: %w", doc.ID, err)
		}
		chunks = append(chunks, cs...)
	}

	if err := p.embedAndUpsert(ctx, chunks); err != nil {
		return res, err
	}
	res.Chunks = len(chunks)

	p.log.Info("ingestion complete",
		slog.Int("sources", res.Sources),
		slog.Int("documents", res.Documents),
		slog.Int("chunks", res.Chunks),
		slog.Int("empty_pages", res.EmptyPages),
	)
	return res, nil
}

// embedAndUpsert fans chunk batches out to a fixed pool of workers. The first
// failure cancels the remaining work; batches already upserted stay in the
// store.
func (p *Pipeline) embedAndUpsert(ctx context.Context, chunks []chunker.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	batches := make(chan []chunker.Chunk)
	errs := make(chan error, p.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batches {
				if err := p.processBatch(ctx, batch); err != nil {
					errs <- err
					cancel()
					return
				}
			}
		}()
	}

feed:
	for start := 0; start < len(chunks); start += p.cfg.EmbedBatchSize {
		end := start + p.cfg.EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		select {
		case batches <- chunks[start:end]:
		case <-ctx.Done():
			break feed
		}
	}
	close(batches)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// processBatch embeds one batch and upserts it, retrying transient provider
// and store failures with exponential backoff.
func (p *Pipeline) processBatch(ctx context.Context, batch []chunker.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	var embeddings [][]float32
	err := p.retry(ctx, func() error {
		var embedErr error
		embeddings, embedErr = p.embedder.Embed(ctx, texts)
		return embedErr
	})
	if err != nil {
		return &Error{Kind: KindEmbeddingFailed, ChunkID: batch[0].ID, Err: err}
	}

	docs := make([]rag.Document, len(batch))
	for i, c := range batch {
		docs[i] = rag.Document{
			ID:       c.ID,
			Text:     c.Text,
			ParentID: c.ParentID,
			Ordinal:  c.Ordinal,
			Metadata: map[string]string{
				"page_number": strconv.Itoa(c.Meta.PageNumber),
				"file_name":   c.Meta.FileName,
				"title":       c.Meta.Title,
				"author":      c.Meta.Author,
			},
		}
	}

	err = p.retry(ctx, func() error {
		return p.store.Upsert(ctx, docs, embeddings)
	})
	if err != nil {
		return &Error{Kind: KindStoreUnavailable, ChunkID: batch[0].ID, Err: err}
	}

	p.log.Debug("batch upserted", slog.String("first_chunk", batch[0].ID), slog.Int("size", len(batch)))
	return nil
}

// retry runs op with exponential backoff, giving up immediately on
// non-transient failures.
func (p *Pipeline) retry(ctx context.Context, op func() error) error {
	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !rag.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.cfg.MaxRetries)), ctx)
	return backoff.Retry(wrapped, policy)
}

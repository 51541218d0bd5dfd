package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/docq-ai/docq-go/internal/chunker"
	"github.com/docq-ai/docq-go/internal/docstore"
	"github.com/docq-ai/docq-go/internal/extract"
	"github.com/docq-ai/docq-go/internal/rag"
	"github.com/docq-ai/docq-go/internal/textclean"
)

// fakeSource serves canned page lines.
type fakeSource struct {
	pages [][]string
}

func (f *fakeSource) NumPages() int { return len(f.pages) }
func (f *fakeSource) PageLines(page int) ([]string, error) {
	return f.pages[page], nil
}
func (f *fakeSource) Close() error { return nil }

// countingEmbedder returns unit vectors and can be told to fail the first
// failFirst calls with a transient or permanent provider error.
type countingEmbedder struct {
	mu        sync.Mutex
	calls     int
	failFirst int
	transient bool
}

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.calls++
	n := c.calls
	c.mu.Unlock()
	if n <= c.failFirst {
		code := http.StatusBadRequest
		if c.transient {
			code = http.StatusServiceUnavailable
		}
		return nil, &rag.ProviderError{Backend: "fake", StatusCode: code, Message: "induced failure"}
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPipeline(t *testing.T, emb rag.Embedder, store rag.VectorStore, cfg *Config) *Pipeline {
	t.Helper()
	ext := extract.NewWithOpener(func(string) (extract.PageSource, error) {
		return &fakeSource{pages: [][]string{
			{"Chapter 3: Attention", "The model relies entirely on attention.", "Each head projects the input.", "Page 12"},
			{"", "   ", ""},
		}}, nil
	})
	p, err := New(ext, emb, store, testLogger(), cfg)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func sampleSources() []extract.SourceSpec {
	return []extract.SourceSpec{{
		FilePath: "paper.pdf",
		Title:    "Attention Is All You Need",
		Author:   "Vaswani et al.",
		Trim:     extract.TrimRemoveFirstLast,
	}}
}

func Test_Pipeline_RunEndToEnd(t *testing.T) {
	t.Parallel()

	store := rag.NewMemoryStore()
	snapshot := filepath.Join(t.TempDir(), "docstore.json")
	p := testPipeline(t, &countingEmbedder{}, store, &Config{
		DocstorePath: snapshot,
		Clean:        textclean.DefaultOptions(),
	})

	res, err := p.Run(context.Background(), sampleSources())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Sources != 1 {
		t.Errorf("sources = %d, want 1", res.Sources)
	}
	if res.Documents != 1 {
		t.Errorf("documents = %d, want 1 (whitespace-only page must be dropped)", res.Documents)
	}
	if res.EmptyPages != 1 {
		t.Errorf("empty pages = %d, want 1", res.EmptyPages)
	}
	if store.Len() == 0 {
		t.Error("no chunks reached the vector store")
	}

	loaded, err := docstore.Load(snapshot)
	if err != nil {
		t.Fatalf("loading persisted docstore: %v", err)
	}
	if loaded.Len() != 1 {
		t.Errorf("persisted documents = %d, want 1", loaded.Len())
	}
	doc := loaded.All()[0]
	if doc.Metadata.Title != "Attention Is All You Need" {
		t.Errorf("metadata not carried: %+v", doc.Metadata)
	}
	// The first and last lines are header/footer and must not survive.
	if doc.Text == "" || len(doc.Text) > 200 {
		t.Errorf("unexpected cleaned text %q", doc.Text)
	}
}

func Test_Pipeline_RerunConverges(t *testing.T) {
	t.Parallel()

	store := rag.NewMemoryStore()
	p := testPipeline(t, &countingEmbedder{}, store, &Config{Clean: textclean.DefaultOptions()})

	if _, err := p.Run(context.Background(), sampleSources()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := store.Len()
	if _, err := p.Run(context.Background(), sampleSources()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if store.Len() != first {
		t.Errorf("re-ingestion duplicated chunks: %d -> %d", first, store.Len())
	}
}

func Test_Pipeline_TransientFailureRetried(t *testing.T) {
	t.Parallel()

	store := rag.NewMemoryStore()
	emb := &countingEmbedder{failFirst: 1, transient: true}
	p := testPipeline(t, emb, store, &Config{Clean: textclean.DefaultOptions()})

	if _, err := p.Run(context.Background(), sampleSources()); err != nil {
		t.Fatalf("run should survive one transient failure: %v", err)
	}
	if store.Len() == 0 {
		t.Error("chunks missing after retried run")
	}
}

func Test_Pipeline_PermanentFailureNotRetried(t *testing.T) {
	t.Parallel()

	store := rag.NewMemoryStore()
	emb := &countingEmbedder{failFirst: 100}
	p := testPipeline(t, emb, store, &Config{Clean: textclean.DefaultOptions()})

	_, err := p.Run(context.Background(), sampleSources())
	var ierr *Error
	if !errors.As(err, &ierr) {
		t.Fatalf("want *ingest.Error, got %v", err)
	}
	if ierr.Kind != KindEmbeddingFailed {
		t.Errorf("kind = %s, want %s", ierr.Kind, KindEmbeddingFailed)
	}
	if ierr.ChunkID == "" {
		t.Error("failing chunk id must be reported")
	}
	if emb.calls != 1 {
		t.Errorf("permanent failure retried: %d calls", emb.calls)
	}
}

func Test_Pipeline_RetryExhaustionReportsChunk(t *testing.T) {
	t.Parallel()

	store := rag.NewMemoryStore()
	emb := &countingEmbedder{failFirst: 100, transient: true}
	p := testPipeline(t, emb, store, &Config{MaxRetries: 2, Clean: textclean.DefaultOptions()})

	_, err := p.Run(context.Background(), sampleSources())
	var ierr *Error
	if !errors.As(err, &ierr) {
		t.Fatalf("want *ingest.Error, got %v", err)
	}
	if ierr.Kind != KindEmbeddingFailed || ierr.ChunkID == "" {
		t.Errorf("unexpected error: %+v", ierr)
	}
	if !strings.Contains(err.Error(), "batch starting at chunk "+ierr.ChunkID) {
		t.Errorf("message should attribute the failure to the batch, got %q", err)
	}
	// 1 initial attempt + 2 retries.
	if emb.calls != 3 {
		t.Errorf("want 3 attempts, got %d", emb.calls)
	}
}

func Test_Pipeline_OverlapAtLeastChunkSizeRejected(t *testing.T) {
	t.Parallel()

	ext := extract.NewWithOpener(func(string) (extract.PageSource, error) {
		return &fakeSource{}, nil
	})
	_, err := New(ext, &countingEmbedder{}, rag.NewMemoryStore(), testLogger(), &Config{
		ChunkSize:    256,
		ChunkOverlap: 256,
	})
	if !errors.Is(err, chunker.ErrInvalidConfig) {
		t.Errorf("want chunker.ErrInvalidConfig, got %v", err)
	}
}

func Test_Pipeline_InvalidSourceRejected(t *testing.T) {
	t.Parallel()

	p := testPipeline(t, &countingEmbedder{}, rag.NewMemoryStore(), nil)
	_, err := p.Run(context.Background(), []extract.SourceSpec{{FilePath: "x.pdf", Trim: "remove_everything"}})
	if err == nil {
		t.Error("unknown trim policy must be rejected before extraction")
	}
}

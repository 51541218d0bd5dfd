package ingest

import "fmt"

// Kind classifies a pipeline failure.
type Kind string

const (
	// KindEmbeddingFailed means a chunk batch could not be embedded after
	// retries were exhausted.
	KindEmbeddingFailed Kind = "embedding_failed"
	// KindStoreUnavailable means the vector store rejected an upsert after
	// retries were exhausted.
	KindStoreUnavailable Kind = "store_unavailable"
)

// Error is the failure surface of the ingestion pipeline. Already-persisted
// work is never rolled back on failure: chunk ids are deterministic, so
// re-running ingestion converges on the same state.
//
// Embedding and upserting happen per batch, so a failure is attributed at
// batch granularity: ChunkID names the first chunk of the failing batch, not
// necessarily the chunk whose text caused the provider to fail.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// ChunkID identifies the first chunk of the failing batch.
	ChunkID string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ChunkID != "" {
		return fmt.Sprintf("ingest: %s (batch starting at chunk %s): %v", e.Kind, e.ChunkID, e.Err)
	}
	return fmt.Sprintf("ingest: %s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Package rag defines the interfaces for retrieval-augmented generation
// components: embedding, vector storage, and top-K retrieval. Concrete
// implementations (Qdrant, in-memory) satisfy these interfaces so the query
// pipeline never depends on a specific backend.
package rag

import "context"

// Document is a unit of stored or retrieved knowledge: one embedded chunk.
type Document struct {
	// ID is the unique chunk identifier (32 hex chars, deterministic).
	ID string

	// Text is the chunk's text content.
	Text string

	// ParentID is the id of the page-level document the chunk came from.
	ParentID string

	// Ordinal is the chunk's 0-based position within its parent.
	Ordinal int

	// Metadata holds page number, file name, title, author.
	Metadata map[string]string

	// Score is the similarity score assigned during retrieval.
	// Zero value means the score was not computed.
	Score float32
}

// VectorStore persists and searches chunk embeddings. A store instance is
// bound to a single collection at construction time. Implementations must be
// safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores or updates a batch of documents with their pre-computed
	// embeddings. The embeddings slice is parallel to docs. Upserting an
	// existing id replaces the stored vector and payload, never duplicates.
	Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search returns the topK documents most similar to the query embedding,
	// ordered by descending similarity.
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Document, error)

	// Delete removes documents by their ids.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder converts text into dense vector embeddings. Implementations must
// be safe to call from multiple goroutines and must produce vectors of a
// fixed dimension for the lifetime of the instance.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// QueryEmbedder is an optional upgrade interface for embedders whose backend
// distinguishes document embeddings from query embeddings (e.g. Cohere's
// input_type). Retrieval uses it when available and falls back to Embed.
type QueryEmbedder interface {
	// EmbedQuery embeds a single retrieval query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces an answer from a fully-assembled prompt. It is the
// boundary to the LLM provider; implementations live in internal/provider.
type Generator interface {
	// Generate returns the model's completion for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

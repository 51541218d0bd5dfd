package rag

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/docq-ai/docq-go/internal/vecmath"
)

// MemoryStore is a brute-force in-memory VectorStore using cosine similarity.
// It backs local runs without a Qdrant instance and keeps tests hermetic.
type MemoryStore struct {
	// mu guards entries.
	mu sync.RWMutex
	// entries maps document id to its stored state.
	entries map[string]memoryEntry
	// dimension is fixed by the first upserted vector.
	dimension int
}

// memoryEntry pairs a stored document with its embedding.
type memoryEntry struct {
	doc    Document
	vector []float32
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Get returns the stored document and vector for id.
func (s *MemoryStore) Get(id string) (Document, []float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e.doc, e.vector, ok
}

// Upsert stores or replaces docs keyed by id. All vectors must share the
// collection's dimension, fixed by the first vector ever stored.
func (s *MemoryStore) Upsert(_ context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("rag: memory store: %d docs but %d embeddings", len(docs), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, doc := range docs {
		vec := embeddings[i]
		if s.dimension == 0 {
			s.dimension = len(vec)
		}
		if len(vec) != s.dimension {
			return fmt.Errorf("rag: memory store: vector for %s has dimension %d, collection uses %d", doc.ID, len(vec), s.dimension)
		}
		s.entries[doc.ID] = memoryEntry{doc: doc, vector: vec}
	}
	return nil
}

// Search ranks all stored vectors by cosine similarity to the query and
// returns the topK best. Ties are broken by ascending document id so results
// are deterministic.
func (s *MemoryStore) Search(_ context.Context, queryEmbedding []float32, topK int) ([]Document, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	scored := make([]Document, 0, len(s.entries))
	for _, e := range s.entries {
		doc := e.doc
		doc.Score = float32(vecmath.Cosine(queryEmbedding, e.vector))
		scored = append(scored, doc)
	}
	s.mu.RUnlock()

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

// Delete removes documents by id. Unknown ids are ignored.
func (s *MemoryStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

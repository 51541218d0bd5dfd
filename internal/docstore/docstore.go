// Package docstore holds the cleaned per-page documents produced by
// extraction and exposes an atomically-persisted snapshot of them. A
// Document is immutable once created; re-extracting the same page produces a
// new Document with the same id, which the store treats as a replace.
package docstore

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
)

// Metadata is the structural metadata carried by every Document and inherited
// by its chunks.
type Metadata struct {
	// PageNumber is the 0-based page index within the source file.
	PageNumber int `json:"page_number"`
	// FileName is the base name of the source file.
	FileName string `json:"file_name"`
	// Title is the source document title.
	Title string `json:"title"`
	// Author is the source document author.
	Author string `json:"author"`
}

// Document is one cleaned page of a source document.
type Document struct {
	// ID is deterministic, derived from the source path and page number.
	ID string `json:"id"`
	// Text is the trimmed and cleaned page text.
	Text string `json:"text"`
	// Metadata describes where the text came from.
	Metadata Metadata `json:"metadata"`
}

// DocumentID derives the deterministic id for a page of a source file.
// The same (path, page) pair always maps to the same id, so re-ingestion
// replaces rather than duplicates.
func DocumentID(filePath string, pageNumber int) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s#%d", filePath, pageNumber))
	return fmt.Sprintf("%x", h[:16])
}

// Store is an in-memory collection of Documents keyed by id. It is safe for
// concurrent use; persistence is snapshot-based (see persist.go).
type Store struct {
	// mu guards docs.
	mu sync.RWMutex
	// docs maps Document.ID to the document.
	docs map[string]Document
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{docs: make(map[string]Document)}
}

// Add upserts doc by id: an existing document with the same id is replaced,
// never duplicated.
func (s *Store) Add(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
}

// Get returns the document with the given id.
func (s *Store) Get(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

// Len returns the number of documents in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// All returns every document ordered by ascending id. Map iteration order is
// not stable, so the sort keeps consumers (chunking, tests) deterministic.
func (s *Store) All() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Package chunker splits a cleaned document into bounded, metadata-inheriting
// segments, the unit of embedding and retrieval.
//
// Sizing policy: MaxSize and Overlap are measured in runes, not bytes or
// model tokens. Rune counts are stable across providers and keep chunk
// boundaries deterministic regardless of the embedding model in use.
package chunker

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/docq-ai/docq-go/internal/docstore"
)

// ErrInvalidConfig is returned when the chunking parameters cannot produce
// forward progress (overlap >= max size, or a non-positive max size).
var ErrInvalidConfig = errors.New("chunker: overlap must be smaller than max size, and max size positive")

// Chunk is a bounded segment of a parent document.
type Chunk struct {
	// ID is deterministic, derived from the parent document id and ordinal.
	ID string
	// ParentID is the id of the document this chunk was cut from.
	ParentID string
	// Ordinal is the 0-based position of the chunk within its parent.
	Ordinal int
	// Text is the chunk's text, at most MaxSize runes.
	Text string
	// Meta is copied from the parent document.
	Meta docstore.Metadata
}

// ChunkID derives the deterministic id for the ordinal-th chunk of a parent
// document. Re-chunking a document reproduces the same ids, so vector-store
// upserts replace instead of duplicating.
func ChunkID(parentID string, ordinal int) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s#%d", parentID, ordinal))
	return fmt.Sprintf("%x", h[:16])
}

// Split cuts doc.Text into chunks of at most maxSize runes, preferring to
// break at the sentence or whitespace boundary nearest the limit rather than
// mid-word. When overlap > 0 consecutive chunks share that many trailing and
// leading runes of context. Ordinals are 0-based and strictly increasing.
func Split(doc docstore.Document, maxSize, overlap int) ([]Chunk, error) {
	if maxSize <= 0 || overlap < 0 || overlap >= maxSize {
		return nil, ErrInvalidConfig
	}

	text := []rune(strings.TrimSpace(doc.Text))
	if len(text) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	ordinal := 0
	start := 0
	for start < len(text) {
		end := start + maxSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = breakPoint(text, start, end)
		}

		segment := strings.TrimSpace(string(text[start:end]))
		if segment != "" {
			chunks = append(chunks, Chunk{
				ID:       ChunkID(doc.ID, ordinal),
				ParentID: doc.ID,
				Ordinal:  ordinal,
				Text:     segment,
				Meta:     doc.Metadata,
			})
			ordinal++
		}

		if end == len(text) {
			break
		}
		next := end - overlap
		if next <= start {
			// Overlap would stall the scan; step past the cut instead.
			next = end
		}
		start = next
	}

	return chunks, nil
}

// breakPoint finds the best cut position at or before limit. It scans
// backwards through the second half of the window for a sentence end, then
// for any whitespace, and falls back to a hard cut at the limit when the
// window is a single unbroken word.
func breakPoint(text []rune, start, limit int) int {
	floor := start + (limit-start)/2

	for i := limit - 1; i > floor; i-- {
		if isSentenceEnd(text, i) {
			return i + 1
		}
	}
	for i := limit - 1; i > floor; i-- {
		if unicode.IsSpace(text[i]) {
			return i + 1
		}
	}
	return limit
}

// isSentenceEnd reports whether the rune at i terminates a sentence: terminal
// punctuation followed by whitespace or end of text.
func isSentenceEnd(text []rune, i int) bool {
	switch text[i] {
	case '.', '!', '?':
	default:
		return false
	}
	return i+1 >= len(text) || unicode.IsSpace(text[i+1])
}

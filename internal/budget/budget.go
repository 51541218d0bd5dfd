// Package budget provides token budget estimation and context trimming for
// answer synthesis. Because the system supports multiple LLM backends with
// different tokenizers, this package uses a conservative character-based
// heuristic: 1 token ≈ 4 characters (English prose). This deliberately
// under-estimates token counts to leave headroom for model-specific overhead.
package budget

import (
	"github.com/docq-ai/docq-go/internal/rag"
)

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English prose; using 3
	// would be more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// Conservative enough to fit within 8k-context models while leaving room
	// for the output.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateDocuments returns the estimated total token count for a slice of
// retrieved documents, including a small per-document overhead for the
// separators and source labels added during prompt assembly.
func EstimateDocuments(docs []rag.Document) int {
	total := 0
	for _, d := range docs {
		total += 4
		total += Estimate(d.Text)
	}
	return total
}

// TrimDocuments removes the lowest-ranked documents from docs until the total
// estimated token count of the fixed prompt text plus the documents fits
// within maxTokens. docs must be in rank order (best first); trimming drops
// from the tail so the strongest matches survive.
//
// Returns the trimmed slice. If even a single document exceeds the budget,
// the empty slice is returned; the fixed prompt text is never trimmed here.
func TrimDocuments(fixed string, docs []rag.Document, maxTokens int) []rag.Document {
	if len(docs) == 0 {
		return docs
	}

	fixedTokens := Estimate(fixed)

	// Retrieval rarely returns more than a handful of documents; a linear
	// scan dropping the weakest match is clear and correct.
	for len(docs) > 0 {
		if fixedTokens+EstimateDocuments(docs) <= maxTokens {
			break
		}
		docs = docs[:len(docs)-1]
	}
	return docs
}

package rag

import (
	"context"
	"fmt"
	"sort"
)

// Index is a queryable view over a populated VectorStore collection. It holds
// no state beyond the binding and re-sorts backend results so that equal
// scores always rank by ascending chunk id, keeping retrieval deterministic
// across backends.
type Index struct {
	// store is the bound vector store (itself bound to one collection).
	store VectorStore
	// collection is the logical collection name, for error context.
	collection string
}

// NewIndex binds an Index to a VectorStore collection.
func NewIndex(store VectorStore, collection string) (*Index, error) {
	if store == nil {
		return nil, fmt.Errorf("rag: index requires a vector store")
	}
	return &Index{store: store, collection: collection}, nil
}

// Collection returns the bound collection name.
func (ix *Index) Collection() string { return ix.collection }

// Retrieve returns the k documents nearest the query vector, sorted by
// descending score with ties broken by ascending chunk id.
func (ix *Index) Retrieve(ctx context.Context, queryEmbedding []float32, k int) ([]Document, error) {
	docs, err := ix.store.Search(ctx, queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("rag: search in %q failed: %w", ix.collection, err)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Score != docs[j].Score {
			return docs[i].Score > docs[j].Score
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// Retriever combines an Embedder and an Index: it embeds the question text at
// retrieval time and delegates the similarity search.
type Retriever struct {
	// embedder converts query text to a dense vector.
	embedder Embedder
	// index performs the ranked search.
	index *Index
	// defaultTopK is used when the caller passes k <= 0.
	defaultTopK int
}

// NewRetriever constructs a Retriever from the given Embedder and Index.
func NewRetriever(embedder Embedder, index *Index, defaultTopK int) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: retriever requires an embedder")
	}
	if index == nil {
		return nil, fmt.Errorf("rag: retriever requires an index")
	}
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &Retriever{embedder: embedder, index: index, defaultTopK: defaultTopK}, nil
}

// Index returns the Index this retriever searches.
func (r *Retriever) Index() *Index { return r.index }

// EmbedQuery embeds the question, using the embedder's query-specific path
// when the backend distinguishes query from document embeddings.
func (r *Retriever) EmbedQuery(ctx context.Context, question string) ([]float32, error) {
	if qe, ok := r.embedder.(QueryEmbedder); ok {
		vec, err := qe.EmbedQuery(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("rag: embedding query failed: %w", err)
		}
		return vec, nil
	}

	embeddings, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query failed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("rag: embedder returned empty result for query")
	}
	return embeddings[0], nil
}

// Retrieve embeds the question and returns the top-k most relevant documents.
// If topK <= 0 the default configured at construction time is used.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]Document, error) {
	if topK <= 0 {
		topK = r.defaultTopK
	}

	vec, err := r.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}
	return r.index.Retrieve(ctx, vec, topK)
}

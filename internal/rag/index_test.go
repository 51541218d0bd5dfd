package rag

import (
	"context"
	"testing"
)

// fixedEmbedder returns a canned vector for any input.
type fixedEmbedder struct {
	vec []float32
}

func (f *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

// queryAwareEmbedder records whether the query-specific path was taken.
type queryAwareEmbedder struct {
	fixedEmbedder
	queryCalled bool
}

func (q *queryAwareEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	q.queryCalled = true
	return q.vec, nil
}

func Test_Index_RetrieveOrderedAndTieBroken(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	upsertThree(t, store)

	ix, err := NewIndex(store, "sample")
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	docs, err := ix.Retrieve(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "chunk_a" || docs[1].ID != "chunk_c" {
		t.Errorf("want [chunk_a chunk_c], got %+v", docs)
	}
	if docs[0].Score < docs[1].Score {
		t.Error("results not sorted by descending score")
	}
}

func Test_Retriever_EmbedsQuestionAndSearches(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	upsertThree(t, store)
	ix, _ := NewIndex(store, "sample")

	r, err := NewRetriever(&fixedEmbedder{vec: []float32{1, 0}}, ix, 5)
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}

	docs, err := r.Retrieve(context.Background(), "what is chunk a about?", 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "chunk_a" {
		t.Errorf("want chunk_a first, got %+v", docs)
	}
}

func Test_Retriever_UsesQueryEmbedderWhenAvailable(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	upsertThree(t, store)
	ix, _ := NewIndex(store, "sample")

	emb := &queryAwareEmbedder{fixedEmbedder: fixedEmbedder{vec: []float32{0, 1}}}
	r, _ := NewRetriever(emb, ix, 5)

	docs, err := r.Retrieve(context.Background(), "question", 1)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if !emb.queryCalled {
		t.Error("query-specific embedding path was not used")
	}
	if docs[0].ID != "chunk_b" {
		t.Errorf("want chunk_b for query [0 1], got %s", docs[0].ID)
	}
}

func Test_Retriever_DefaultTopK(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	upsertThree(t, store)
	ix, _ := NewIndex(store, "sample")
	r, _ := NewRetriever(&fixedEmbedder{vec: []float32{1, 0}}, ix, 2)

	docs, err := r.Retrieve(context.Background(), "q", 0)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("want defaultTopK=2 results, got %d", len(docs))
	}
}

package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docq-ai/docq-go/internal/rag"
)

func Test_OpenAIEmbedder_ParallelOrder(t *testing.T) {
	t.Parallel()

	// Respond with the entries deliberately out of order to exercise the
	// index-based placement.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", got)
		}
		io.Copy(io.Discard, r.Body)
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0, 1}},
				{"index": 0, "embedding": []float32{1, 0}},
			},
		})
	}))
	defer srv.Close()

	emb := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "text-embedding-3-small"})
	vecs, err := emb.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Errorf("embeddings not placed by index: %v", vecs)
	}
}

func Test_OpenAIEmbedder_ErrorStatusIsProviderError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "rate limited"}})
	}))
	defer srv.Close()

	emb := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	_, err := emb.Embed(context.Background(), []string{"x"})
	if err == nil {
		t.Fatal("want error on 429")
	}
	var perr *rag.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("want *rag.ProviderError, got %T", err)
	}
	if perr.StatusCode != http.StatusTooManyRequests || perr.Message != "rate limited" {
		t.Errorf("unexpected provider error: %+v", perr)
	}
	if !perr.Transient() {
		t.Error("429 must classify as transient")
	}
}

func Test_OllamaEmbedder_BatchEmbed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "nomic-embed-text" {
			t.Errorf("model not forwarded, got %q", req.Model)
		}
		out := make([][]float32, len(req.Input))
		for i := range out {
			out[i] = []float32{float32(i), 0}
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
	}))
	defer srv.Close()

	emb := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "nomic-embed-text"})
	vecs, err := emb.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("want 3 vectors, got %d", len(vecs))
	}
}

func Test_OllamaEmbedder_CountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{1}}})
	}))
	defer srv.Close()

	emb := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "m"})
	_, err := emb.Embed(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Error("want count mismatch error")
	}
}

func Test_CohereEmbedder_InputTypes(t *testing.T) {
	t.Parallel()

	var inputTypes []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req cohereEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		inputTypes = append(inputTypes, req.InputType)
		out := make([][]float32, len(req.Texts))
		for i := range out {
			out[i] = []float32{1, 2}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": map[string]any{"float": out},
		})
	}))
	defer srv.Close()

	emb := NewCohereEmbedder(&CohereConfig{BaseURL: srv.URL, APIKey: "k"})

	if _, err := emb.Embed(context.Background(), []string{"passage"}); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if _, err := emb.EmbedQuery(context.Background(), "question"); err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}

	if len(inputTypes) != 2 || inputTypes[0] != "search_document" || inputTypes[1] != "search_query" {
		t.Errorf("want [search_document search_query], got %v", inputTypes)
	}
}

func Test_CohereEmbedder_ImplementsQueryEmbedder(t *testing.T) {
	t.Parallel()
	var e rag.Embedder = NewCohereEmbedder(&CohereConfig{APIKey: "k"})
	if _, ok := e.(rag.QueryEmbedder); !ok {
		t.Error("CohereEmbedder must implement rag.QueryEmbedder")
	}
}

func Test_Factory_ProviderSelection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      Settings
		wantErr bool
	}{
		{name: "default is ollama", in: Settings{}},
		{name: "openai", in: Settings{Provider: "openai", APIKey: "k"}},
		{name: "cohere", in: Settings{Provider: "cohere", APIKey: "k"}},
		{name: "azure without endpoint", in: Settings{Provider: "azure", APIKey: "k"}, wantErr: true},
		{name: "unknown provider", in: Settings{Provider: "bedrock"}, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(&tc.in)
			if (err != nil) != tc.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func Test_Settings_DimDefaults(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   Settings
		want int
	}{
		{Settings{Provider: "ollama"}, 768},
		{Settings{Provider: "openai"}, 1536},
		{Settings{Provider: "cohere"}, 1024},
		{Settings{Provider: "openai", Dimensions: 256}, 256},
	}
	for _, tc := range cases {
		if got := tc.in.Dim(); got != tc.want {
			t.Errorf("Dim(%+v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func Test_Settings_ValidateChatModelWarning(t *testing.T) {
	t.Parallel()

	s := Settings{Provider: "cohere", APIKey: "k", Model: "command-r-plus"}
	if err := s.Validate(slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Errorf("chat model name should warn, not error: %v", err)
	}

	missing := Settings{Provider: "openai"}
	if err := missing.Validate(slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Error("missing openai key must error")
	}
}

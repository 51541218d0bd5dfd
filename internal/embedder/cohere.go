package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/docq-ai/docq-go/internal/rag"
)

// Cohere input types. Cohere embeddings are asymmetric: passages indexed for
// retrieval and the questions searching them must be embedded with different
// input types or recall suffers.
const (
	cohereInputDocument = "search_document"
	cohereInputQuery    = "search_query"
)

// CohereEmbedder implements rag.Embedder and rag.QueryEmbedder using the
// Cohere v2 embed REST API. It is safe for concurrent use.
type CohereEmbedder struct {
	// baseURL is the API base (e.g. "https://api.cohere.com/v2").
	baseURL string
	// apiKey is the Bearer token.
	apiKey string
	// model is the embedding model name (e.g. "embed-english-v3.0").
	model string
	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// CohereConfig holds the settings for constructing a CohereEmbedder.
type CohereConfig struct {
	// BaseURL is the API base URL. Defaults to "https://api.cohere.com/v2".
	BaseURL string
	// APIKey is the authentication key.
	APIKey string
	// Model is the embedding model name. Defaults to "embed-english-v3.0".
	Model string
}

// NewCohereEmbedder constructs a CohereEmbedder from the given config.
func NewCohereEmbedder(cfg *CohereConfig) *CohereEmbedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.cohere.com/v2"
	}
	model := cfg.Model
	if model == "" {
		model = "embed-english-v3.0"
	}
	return &CohereEmbedder{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// cohereEmbedRequest is the JSON body sent to the Cohere v2 embed endpoint.
type cohereEmbedRequest struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

// cohereEmbedResponse is the JSON body returned from the Cohere v2 embed endpoint.
type cohereEmbedResponse struct {
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
	Message string `json:"message,omitempty"`
}

// Embed converts a batch of passages into their corresponding embeddings
// using the search_document input type. The returned slice is parallel to
// the input slice.
func (e *CohereEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts, cohereInputDocument)
}

// EmbedQuery converts a question into its embedding using the search_query
// input type.
func (e *CohereEmbedder) EmbedQuery(ctx context.Context, question string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{question}, cohereInputQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *CohereEmbedder) embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	payload, err := json.Marshal(cohereEmbedRequest{
		Model:          e.model,
		Texts:          texts,
		InputType:      inputType,
		EmbeddingTypes: []string{"float"},
	})
	if err != nil {
		return nil, &rag.ProviderError{Backend: "cohere embedder", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, &rag.ProviderError{Backend: "cohere embedder", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &rag.ProviderError{Backend: "cohere embedder", Err: err}
	}
	defer resp.Body.Close()

	var result cohereEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &rag.ProviderError{Backend: "cohere embedder", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &rag.ProviderError{Backend: "cohere embedder", StatusCode: resp.StatusCode, Message: result.Message}
	}

	if len(result.Embeddings.Float) != len(texts) {
		return nil, &rag.ProviderError{Backend: "cohere embedder", Message: "embedding count does not match input count"}
	}

	return result.Embeddings.Float, nil
}

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/docq-ai/docq-go/internal/rag"
)

// CohereGenerator implements rag.Generator using the Cohere v2 chat REST API.
// It is safe for concurrent use.
type CohereGenerator struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float32
	client      *http.Client
}

// CohereGeneratorConfig holds the settings for constructing a CohereGenerator.
type CohereGeneratorConfig struct {
	// BaseURL is the API base URL. Defaults to "https://api.cohere.com/v2".
	BaseURL string
	// APIKey is the authentication key.
	APIKey string
	// Model is the chat model name (e.g. "command-r-plus").
	Model string
	// MaxTokens caps the response length (0 = provider default).
	MaxTokens int
	// Temperature controls response randomness.
	Temperature float32
}

// NewCohereGenerator constructs a CohereGenerator from the given config.
func NewCohereGenerator(cfg *CohereGeneratorConfig) *CohereGenerator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.cohere.com/v2"
	}
	model := cfg.Model
	if model == "" {
		model = "command-r-plus"
	}
	return &CohereGenerator{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: 120 * time.Second},
	}
}

// cohereChatMessage is a single message in a Cohere v2 chat request.
type cohereChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// cohereChatRequest is the JSON body sent to the Cohere v2 chat endpoint.
type cohereChatRequest struct {
	Model       string              `json:"model"`
	Messages    []cohereChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float32             `json:"temperature,omitempty"`
}

// cohereChatResponse is the JSON body returned from the Cohere v2 chat endpoint.
type cohereChatResponse struct {
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

// Generate sends the prompt as a single user message and returns the model's
// response text.
func (g *CohereGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(cohereChatRequest{
		Model:       g.model,
		Messages:    []cohereChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", &rag.ProviderError{Backend: "cohere", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return "", &rag.ProviderError{Backend: "cohere", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &rag.ProviderError{Backend: "cohere", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return "", &rag.ProviderError{Backend: "cohere", StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	var result cohereChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &rag.ProviderError{Backend: "cohere", StatusCode: resp.StatusCode, Err: err}
	}

	for _, part := range result.Message.Content {
		if part.Type == "text" && part.Text != "" {
			return part.Text, nil
		}
	}
	return "", &rag.ProviderError{Backend: "cohere", Message: "model returned an empty response"}
}

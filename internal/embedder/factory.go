package embedder

import (
	"fmt"
	"strings"

	"github.com/docq-ai/docq-go/internal/rag"
)

// Default embedding models and their vector dimensions per provider.
const (
	DefaultOllamaModel = "nomic-embed-text"
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultCohereModel = "embed-english-v3.0"
	DefaultOllamaDim   = 768
	DefaultOpenAIDim   = 1536
	DefaultCohereDim   = 1024
)

// Settings selects and configures an embedding backend.
type Settings struct {
	// Provider is one of "ollama", "openai", "azure", "cohere".
	Provider string `yaml:"provider"`
	// Model is the embedding model name. Empty selects the provider default.
	Model string `yaml:"model"`
	// BaseURL overrides the provider's API base URL. Required for azure.
	BaseURL string `yaml:"base_url"`
	// APIKey is the provider API key. Unused for ollama.
	APIKey string `yaml:"api_key"`
	// Dimensions is the vector length the store collection is created with.
	// Empty selects the provider default.
	Dimensions int `yaml:"dimensions"`
}

// Dim returns the configured vector length, falling back to the provider
// default.
func (s *Settings) Dim() int {
	if s.Dimensions > 0 {
		return s.Dimensions
	}
	switch strings.ToLower(s.Provider) {
	case "openai", "azure":
		return DefaultOpenAIDim
	case "cohere":
		return DefaultCohereDim
	default:
		return DefaultOllamaDim
	}
}

// New constructs the rag.Embedder selected by the settings.
func New(s *Settings) (rag.Embedder, error) {
	switch strings.ToLower(s.Provider) {
	case "", "ollama":
		model := s.Model
		if model == "" {
			model = DefaultOllamaModel
		}
		return NewOllamaEmbedder(&OllamaConfig{Host: s.BaseURL, Model: model}), nil
	case "openai":
		model := s.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    s.BaseURL,
			APIKey:     s.APIKey,
			Model:      model,
			Dimensions: s.Dimensions,
		}), nil
	case "azure":
		if s.BaseURL == "" {
			return nil, fmt.Errorf("azure embedding provider requires base_url")
		}
		model := s.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    s.BaseURL,
			APIKey:     s.APIKey,
			Model:      model,
			Dimensions: s.Dimensions,
		}), nil
	case "cohere":
		return NewCohereEmbedder(&CohereConfig{
			BaseURL: s.BaseURL,
			APIKey:  s.APIKey,
			Model:   s.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", s.Provider)
	}
}

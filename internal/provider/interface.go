// Package provider selects and constructs the LLM backend used for answer
// synthesis. Hosted and local chat models are reached through eino ChatModel
// components; Cohere is reached through a small plain-HTTP client. Every
// backend is surfaced to the rest of the system as a rag.Generator.
package provider

import (
	"fmt"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
	// BackendCohere selects the Cohere chat API.
	BackendCohere Backend = "cohere"
)

// Settings holds provider-level configuration resolved from the config file
// and environment overrides.
type Settings struct {
	// Backend identifies which inference provider to use.
	Backend Backend `yaml:"backend"`

	// Model is the model name or deployment ID (e.g. "command-r-plus", "llama3").
	// Empty selects the backend default.
	Model string `yaml:"model"`

	// BaseURL overrides the default API endpoint (required for Azure).
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication credential for the selected provider.
	// Unused for Ollama.
	APIKey string `yaml:"api_key"`

	// AzureDeployment is the Azure OpenAI deployment name (Azure only).
	AzureDeployment string `yaml:"azure_deployment"`

	// AzureAPIVersion is the Azure OpenAI REST API version (Azure only,
	// e.g. "2024-02-01").
	AzureAPIVersion string `yaml:"azure_api_version"`

	// MaxTokens caps the number of tokens the model may generate per response.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature controls response randomness (0.0-1.0).
	Temperature float32 `yaml:"temperature"`
}

// defaultModels maps each backend to the model used when none is configured.
var defaultModels = map[Backend]string{
	BackendOllama: "llama3",
	BackendOpenAI: "gpt-4o",
	BackendGemini: "gemini-1.5-pro",
	BackendCohere: "command-r-plus",
}

// EffectiveModel returns the configured model name, falling back to the
// backend default.
func (s *Settings) EffectiveModel() string {
	if s.Model != "" {
		return s.Model
	}
	return defaultModels[s.Backend]
}

// Validate reports configuration errors that would otherwise surface as
// cryptic failures on the first request.
func (s *Settings) Validate() error {
	switch s.Backend {
	case "", BackendOllama:
		return nil
	case BackendOpenAI, BackendGemini, BackendCohere:
		if s.APIKey == "" {
			return fmt.Errorf("provider: %s backend requires an API key", s.Backend)
		}
	case BackendAzure:
		if s.APIKey == "" {
			return fmt.Errorf("provider: azure backend requires an API key")
		}
		if s.BaseURL == "" {
			return fmt.Errorf("provider: azure backend requires base_url (the Azure endpoint)")
		}
		if s.AzureDeployment == "" {
			return fmt.Errorf("provider: azure backend requires azure_deployment")
		}
	default:
		return fmt.Errorf("provider: unknown backend %q, valid values: ollama, openai, azure, gemini, cohere", s.Backend)
	}
	return nil
}

package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/docq-ai/docq-go/internal/rag"
)

// ChatModelGenerator adapts an eino ChatModel to the rag.Generator interface.
type ChatModelGenerator struct {
	backend Backend
	model   model.ToolCallingChatModel
}

// NewChatModelGenerator wraps an eino ChatModel as a rag.Generator.
func NewChatModelGenerator(backend Backend, m model.ToolCallingChatModel) *ChatModelGenerator {
	return &ChatModelGenerator{backend: backend, model: m}
}

// Generate sends the prompt as a single user message and returns the model's
// response text. Failures are reported as rag.ProviderError so the caller can
// classify them for retry.
func (g *ChatModelGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := g.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", &rag.ProviderError{Backend: string(g.backend), Err: err}
	}
	if msg == nil || msg.Content == "" {
		return "", &rag.ProviderError{Backend: string(g.backend), Message: "model returned an empty response"}
	}
	return msg.Content, nil
}

// New constructs the rag.Generator selected by the settings. Cohere is served
// by a dedicated HTTP client; every other backend goes through an eino
// ChatModel.
func New(ctx context.Context, s *Settings) (rag.Generator, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	backend := s.Backend
	if backend == "" {
		backend = BackendOllama
	}

	if backend == BackendCohere {
		return NewCohereGenerator(&CohereGeneratorConfig{
			BaseURL:     s.BaseURL,
			APIKey:      s.APIKey,
			Model:       s.EffectiveModel(),
			MaxTokens:   s.MaxTokens,
			Temperature: s.Temperature,
		}), nil
	}

	var (
		m   model.ToolCallingChatModel
		err error
	)
	switch backend {
	case BackendOllama:
		m, err = newOllama(ctx, s)
	case BackendOpenAI:
		m, err = newOpenAI(ctx, s)
	case BackendAzure:
		m, err = newAzure(ctx, s)
	case BackendGemini:
		m, err = newGemini(ctx, s)
	default:
		return nil, fmt.Errorf("provider: unknown backend %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("provider: constructing %s chat model: %w", backend, err)
	}
	return NewChatModelGenerator(backend, m), nil
}

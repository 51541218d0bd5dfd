package embedder

import (
	"fmt"
	"log/slog"
	"strings"
)

// knownChatModelPrefixes contains name fragments that identify chat/completion
// models which are NOT suitable for embedding. If the configured embedding
// model matches any of these, a warning is emitted so the operator knows they
// may have misconfigured the pipeline.
var knownChatModelPrefixes = []string{
	"gpt-4",
	"gpt-3.5",
	"gpt-35",
	"o1",
	"o3",
	"llama3",
	"llama2",
	"llama-3",
	"llama-2",
	"mistral",
	"mixtral",
	"gemma",
	"phi-",
	"phi3",
	"claude",
	"command-r",
	"command-a",
	"deepseek",
	"qwen",
	"solar",
	"vicuna",
	"falcon",
	"yi-",
}

// looksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range knownChatModelPrefixes {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

// Validate checks that the embedding settings are safe to use. It returns an
// error when the configuration is clearly broken (a hosted backend with no
// API key), and logs a warning when the model name looks like a chat model.
//
// This is a pre-flight check. Call it before constructing the embedder or the
// vector store so operators get a clear error at startup rather than a
// cryptic failure during the first embed call.
func (s *Settings) Validate(log *slog.Logger) error {
	switch strings.ToLower(s.Provider) {
	case "", "ollama":
		// Local backend, no credentials required.
	case "openai":
		if s.APIKey == "" {
			return fmt.Errorf("embedder: openai provider selected but no API key configured")
		}
	case "azure":
		if s.APIKey == "" {
			return fmt.Errorf("embedder: azure provider selected but no API key configured")
		}
		if s.BaseURL == "" {
			return fmt.Errorf("embedder: azure provider selected but no endpoint configured")
		}
	case "cohere":
		if s.APIKey == "" {
			return fmt.Errorf("embedder: cohere provider selected but no API key configured")
		}
	default:
		return fmt.Errorf("embedder: unknown provider %q", s.Provider)
	}

	if s.Model != "" && looksLikeChatModel(s.Model) {
		log.Warn("embedder: configured model looks like a chat model, not an embedding model; "+
			"this will likely produce poor or broken embeddings",
			slog.String("model", s.Model),
			slog.String("hint", "use a dedicated embedding model e.g. nomic-embed-text, text-embedding-3-small, embed-english-v3.0"),
		)
	}

	return nil
}

// Package config provides YAML-based configuration for docq.
// Configuration is loaded with a layered precedence: defaults → YAML file →
// env vars. Environment variables always win, so container workflows can
// override a baked-in config file.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. DOCQ_CONFIG environment variable
//  3. ~/.docq/config.yaml
//  4. ./docq.yaml
//
// If no file is found the system runs from defaults and env vars alone.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/docq-ai/docq-go/internal/embedder"
	"github.com/docq-ai/docq-go/internal/extract"
	"github.com/docq-ai/docq-go/internal/provider"
)

// Config is the top-level YAML configuration structure.
type Config struct {
	// Sources lists the PDF documents to ingest.
	Sources []extract.SourceSpec `yaml:"sources"`

	// LLM configures the answer-synthesis model provider.
	LLM provider.Settings `yaml:"llm"`

	// Embedding configures the embedding provider.
	Embedding embedder.Settings `yaml:"embedding"`

	// Qdrant configures the Qdrant vector store connection.
	Qdrant QdrantConfig `yaml:"qdrant"`

	// Docstore configures page-document snapshot persistence.
	Docstore DocstoreConfig `yaml:"docstore"`

	// Manifest configures the ingestion-run manifest database.
	Manifest ManifestConfig `yaml:"manifest"`

	// Chunking configures document splitting.
	Chunking ChunkingConfig `yaml:"chunking"`

	// Ingest configures the ingestion pipeline's concurrency and retries.
	Ingest IngestConfig `yaml:"ingest"`

	// Query configures the question-answering pipeline.
	Query QueryConfig `yaml:"query"`

	// Server configures the HTTP server.
	Server ServerConfig `yaml:"server"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`
}

// QdrantConfig holds Qdrant vector store settings.
type QdrantConfig struct {
	// Host is the Qdrant server hostname.
	Host string `yaml:"host"`
	// Port is the Qdrant gRPC port.
	Port int `yaml:"port"`
	// Collection is the Qdrant collection name.
	Collection string `yaml:"collection"`
	// APIKey is the Qdrant API key. Prefer env var QDRANT_API_KEY.
	APIKey string `yaml:"api_key"`
	// TLS enables TLS for the Qdrant connection.
	TLS bool `yaml:"tls"`
}

// DocstoreConfig holds snapshot persistence settings.
type DocstoreConfig struct {
	// Path is where the document snapshot is written. Empty disables
	// persistence.
	Path string `yaml:"path"`
}

// ManifestConfig holds ingestion-run manifest settings.
type ManifestConfig struct {
	// DBPath is the SQLite database path. Set to "disabled" to disable.
	DBPath string `yaml:"db_path"`
}

// ChunkingConfig holds document splitting settings.
type ChunkingConfig struct {
	// MaxSize is the maximum chunk length in runes.
	MaxSize int `yaml:"max_size"`
	// Overlap is the number of runes shared between consecutive chunks.
	Overlap int `yaml:"overlap"`
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	// Workers is the number of concurrent embed+upsert workers.
	Workers int `yaml:"workers"`
	// BatchSize is the number of chunks per embedding request.
	BatchSize int `yaml:"batch_size"`
	// MaxRetries bounds retries of transient provider failures.
	MaxRetries int `yaml:"max_retries"`
}

// QueryConfig holds question-answering settings.
type QueryConfig struct {
	// TopK is the retrieval width.
	TopK int `yaml:"top_k"`
	// TimeoutSeconds is the per-request deadline.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// MaxContextTokens caps the assembled context size.
	MaxContextTokens int `yaml:"max_context_tokens"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host"`
	// Port is the TCP port.
	Port int `yaml:"port"`
	// APIKey is the Bearer token for API authentication. Prefer env var DOCQ_API_KEY.
	APIKey string `yaml:"api_key"`
	// RateLimitRPS is the per-client request rate limit.
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
	// RateLimitBurst is the per-client burst allowance.
	RateLimitBurst int `yaml:"rate_limit_burst"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "docq",
		},
		Docstore: DocstoreConfig{Path: "docstore.json"},
		Chunking: ChunkingConfig{MaxSize: 1024, Overlap: 128},
		Ingest:   IngestConfig{Workers: 4, BatchSize: 16, MaxRetries: 3},
		Query:    QueryConfig{TopK: 5, TimeoutSeconds: 60},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			RateLimitRPS:   5,
			RateLimitBurst: 10,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// QueryTimeout returns the configured query deadline as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Query.TimeoutSeconds) * time.Second
}

// Load builds the effective configuration: defaults, then the first YAML file
// found, then env var overrides. Returns the config and the path that was
// loaded (empty when no file was found).
func Load(explicitPath string, log *slog.Logger) (*Config, string, error) {
	cfg := Default()

	path := resolveConfigPath(explicitPath)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, "", fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
		log.Info("config: loaded YAML config", slog.String("path", path))
	} else {
		log.Debug("config: no YAML config file found, using defaults and env vars")
	}

	cfg.applyEnv()
	return cfg, path, nil
}

// applyEnv overrides config values from environment variables. Env always
// wins over YAML and defaults.
func (c *Config) applyEnv() {
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setBackend(&c.LLM.Backend, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	if c.LLM.Backend == "" || c.LLM.Backend == provider.BackendOllama {
		setString(&c.LLM.BaseURL, "OLLAMA_HOST")
	}
	if c.LLM.Backend == provider.BackendOpenAI {
		setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	}
	if c.LLM.Backend == provider.BackendCohere {
		setString(&c.LLM.APIKey, "COHERE_API_KEY")
	}
	if c.LLM.Backend == provider.BackendGemini {
		setString(&c.LLM.APIKey, "GOOGLE_API_KEY")
	}

	setString(&c.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&c.Embedding.Model, "EMBEDDING_MODEL")
	setString(&c.Embedding.APIKey, "EMBEDDING_API_KEY")
	setString(&c.Embedding.BaseURL, "EMBEDDING_ENDPOINT")
	setInt(&c.Embedding.Dimensions, "EMBEDDING_DIMENSIONS")

	setString(&c.Qdrant.Host, "QDRANT_HOST")
	setInt(&c.Qdrant.Port, "QDRANT_PORT")
	setString(&c.Qdrant.Collection, "QDRANT_COLLECTION")
	setString(&c.Qdrant.APIKey, "QDRANT_API_KEY")
	setBool(&c.Qdrant.TLS, "QDRANT_TLS")

	setString(&c.Docstore.Path, "DOCQ_DOCSTORE")
	setString(&c.Manifest.DBPath, "DOCQ_MANIFEST_DB")
	setString(&c.Server.APIKey, "DOCQ_API_KEY")

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("DOCQ_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".docq", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("docq.yaml"); err == nil {
		return "docq.yaml"
	}

	return ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBackend(dst *provider.Backend, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = provider.Backend(v)
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/docq-ai/docq-go/internal/extract"
	"github.com/docq-ai/docq-go/internal/ingest"
	"github.com/docq-ai/docq-go/internal/query"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. Must be
	// long enough for a full synthesis round-trip.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics and backs /metrics.
	// If nil a fresh registry is created.
	Registry *prometheus.Registry
	// Sources is the configured ingestion source list used by POST /api/ingest.
	Sources []extract.SourceSpec
}

// asker is the interface handleQuery calls to answer a question.
// *query.Pipeline satisfies it; tests inject a fake.
type asker interface {
	Ask(ctx context.Context, question string) (*query.Answer, error)
}

// ingestor is the interface handleIngest calls to run an ingestion pass.
// *ingest.Pipeline satisfies it; tests inject a fake.
type ingestor interface {
	Run(ctx context.Context, sources []extract.SourceSpec) (*ingest.Result, error)
}

// Server is the HTTP server exposing the ingestion and query pipelines.
type Server struct {
	// asker answers questions; set to the query pipeline in production.
	asker asker
	// ingestor runs ingestion passes; set to the ingest pipeline in production.
	ingestor ingestor
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds this instance's Prometheus metrics.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// queryRequest is the JSON body for POST /api/query.
type queryRequest struct {
	// Question is the user's natural language question.
	Question string `json:"question"`
}

// queryResponse is the JSON response for POST /api/query.
type queryResponse struct {
	// Answer is the synthesized answer text.
	Answer string `json:"answer"`
	// Sources are the supporting chunk ids in rank order.
	Sources []string `json:"sources"`
}

// ingestResponse is the JSON response for POST /api/ingest.
type ingestResponse struct {
	// Sources is the number of source files processed.
	Sources int `json:"sources"`
	// Documents is the number of page documents produced.
	Documents int `json:"documents"`
	// Chunks is the number of chunks embedded and upserted.
	Chunks int `json:"chunks"`
	// EmptyPages is the number of pages dropped as empty.
	EmptyPages int `json:"empty_pages"`
}

// similarityRequest is the JSON body for POST /api/similarity.
type similarityRequest struct {
	// A and B are the two vectors to compare. They must have equal length.
	A []float32 `json:"embedding1"`
	B []float32 `json:"embedding2"`
}

// similarityResponse is the JSON response for POST /api/similarity.
type similarityResponse struct {
	// Cosine is the cosine similarity of the two vectors.
	Cosine float64 `json:"cosine"`
	// Euclidean is the Euclidean distance between the two vectors.
	Euclidean float64 `json:"euclidean"`
}

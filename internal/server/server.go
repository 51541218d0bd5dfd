// Package server implements the HTTP server that exposes the ingestion and
// query pipelines via a small REST API, plus Prometheus metrics.
// The server is started by the `docq serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docq-ai/docq-go/internal/logging"
	"github.com/docq-ai/docq-go/internal/query"
	"github.com/docq-ai/docq-go/internal/vecmath"
)

// New constructs a Server from the provided pipelines and config.
func New(ask asker, ing ingestor, cfg *Config) (*Server, error) {
	if ask == nil {
		return nil, fmt.Errorf("server: query pipeline must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must cover a full retrieval + synthesis round-trip.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		asker:    ask,
		ingestor: ing,
		cfg:      cfg,
		log:      log,
		pingers:  cfg.Pingers,
		metrics:  newServerMetrics(reg),
	}

	if cfg.APIKey == "" {
		log.Warn("server: DOCQ_API_KEY not set, API authentication is disabled")
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	protect := func(name string, h http.HandlerFunc) http.Handler {
		return s.requestLogger(name, authMiddleware(cfg.APIKey, rl.middleware(h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/query", protect("query", s.handleQuery))
	mux.Handle("POST /api/ingest", protect("ingest", s.handleIngest))
	mux.Handle("POST /api/similarity", protect("similarity", s.handleSimilarity))
	mux.Handle("GET /api/health", s.requestLogger("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.requestLogger("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleQuery handles POST /api/query. It runs the question through the
// query pipeline and returns the answer with its supporting chunk ids.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	ans, err := s.asker.Ask(r.Context(), req.Question)
	outcome := "ok"
	if err != nil {
		var qerr *query.Error
		status := http.StatusInternalServerError
		outcome = "error"
		if errors.As(err, &qerr) {
			switch qerr.Kind {
			case query.KindTimeout:
				status = http.StatusGatewayTimeout
				outcome = "timeout"
			case query.KindRetrievalEmpty:
				status = http.StatusNotFound
				outcome = "empty"
			case query.KindSynthesisFailed:
				status = http.StatusBadGateway
			}
		}
		s.metrics.queryRequestsTotal.WithLabelValues(outcome).Inc()
		s.metrics.queryDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		log.Error("query failed", slog.Any("error", err))
		http.Error(w, err.Error(), status)
		return
	}

	s.metrics.queryRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.queryDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(queryResponse{Answer: ans.Text, Sources: ans.Sources}); err != nil {
		log.Error("query encode error", slog.Any("error", err))
	}
}

// handleIngest handles POST /api/ingest. It runs a full ingestion pass over
// the configured sources. Ingestion is synchronous: the response reports the
// completed run.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if s.ingestor == nil {
		http.Error(w, "ingestion is not configured", http.StatusServiceUnavailable)
		return
	}
	if len(s.cfg.Sources) == 0 {
		http.Error(w, "no sources configured", http.StatusUnprocessableEntity)
		return
	}

	res, err := s.ingestor.Run(r.Context(), s.cfg.Sources)
	if err != nil {
		log.Error("ingestion failed", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.metrics.ingestChunksTotal.Add(float64(res.Chunks))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ingestResponse{
		Sources:    res.Sources,
		Documents:  res.Documents,
		Chunks:     res.Chunks,
		EmptyPages: res.EmptyPages,
	}); err != nil {
		log.Error("ingest encode error", slog.Any("error", err))
	}
}

// handleSimilarity handles POST /api/similarity, a small debugging endpoint
// that compares two raw vectors.
func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	var req similarityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.A) == 0 || len(req.A) != len(req.B) {
		http.Error(w, "vectors must be non-empty and of equal length", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(similarityResponse{
		Cosine:    vecmath.Cosine(req.A, req.B),
		Euclidean: vecmath.Euclidean(req.A, req.B),
	})
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

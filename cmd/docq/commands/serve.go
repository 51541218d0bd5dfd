package commands

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/docq-ai/docq-go/internal/extract"
	"github.com/docq-ai/docq-go/internal/ingest"
	"github.com/docq-ai/docq-go/internal/logging"
	"github.com/docq-ai/docq-go/internal/server"
)

// NewServeCmd constructs the `docq serve` command, which starts the HTTP
// server exposing the query and ingestion pipelines.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the docq HTTP server",
		Long: `Start the docq HTTP server.

The server exposes a REST API for querying the indexed documents, triggering
ingestion runs, and probing health and readiness, plus Prometheus metrics on
/metrics.

Examples:
  docq serve
  docq serve --port 9090
  DOCQ_API_KEY=secret docq serve --host 0.0.0.0`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := newLogger()
			ctx = logging.WithLogger(ctx, log)

			if err := cfg.LLM.Validate(); err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			store, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer store.Close()

			queryPipeline, err := buildQueryPipeline(ctx, emb, store, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			ingestPipeline, err := ingest.New(extract.New(), emb, store, log, ingestConfig())
			if err != nil {
				return fmt.Errorf("serve: failed to create ingestion pipeline: %w", err)
			}

			embName := cfg.Embedding.Provider
			if embName == "" {
				embName = "ollama"
			}
			pingers := []server.Pinger{
				server.NewQdrantPinger(store.Client()),
				server.NewEmbedderPinger(emb, embName),
			}

			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			srv, err := server.New(queryPipeline, ingestPipeline, &server.Config{
				Host:      cfg.Server.Host,
				Port:      cfg.Server.Port,
				Logger:    log,
				Pingers:   pingers,
				RateLimit: cfg.Server.RateLimitRPS,
				RateBurst: cfg.Server.RateLimitBurst,
				APIKey:    cfg.Server.APIKey,
				Registry:  prometheus.NewRegistry(),
				Sources:   cfg.Sources,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			log.Info("serve starting",
				slog.String("backend", string(cfg.LLM.Backend)),
				slog.String("embedding", cfg.Embedding.Provider),
			)

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host address to bind to (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "TCP port to listen on (default from config)")

	return cmd
}

package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/54b3r/coursematch/internal/config"
	"github.com/54b3r/coursematch/internal/history"
	"github.com/54b3r/coursematch/internal/logging"
	"github.com/54b3r/coursematch/internal/provider"
	"github.com/54b3r/coursematch/internal/recommend"
	"github.com/54b3r/coursematch/internal/server"
	"github.com/54b3r/coursematch/internal/tracing"
)

// NewServeCmd constructs the `coursematch serve` command, which starts the
// HTTP recommendation API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the coursematch HTTP API",
		Long: `Start the HTTP recommendation API.

Endpoints:
  POST /api/recommend   {"question": "..."} -> {"answer": "...", "sources": [...]}
  GET  /api/history     recent questions and answers
  GET  /api/health      liveness
  GET  /api/ready       readiness (index and model probes)
  GET  /metrics         Prometheus metrics

Set COURSEMATCH_API_KEY to require a Bearer token on the /api/recommend and
/api/history routes.

Examples:
  coursematch serve
  coursematch serve --port 9090
  MODEL_PROVIDER=ollama coursematch serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.FromContext(ctx)
			if !cmd.Flags().Changed("host") {
				host = config.String("SERVER_HOST", host)
			}
			if !cmd.Flags().Changed("port") {
				port = config.Int("SERVER_PORT", port)
			}

			// Langfuse tracing is opt-in and a no-op when keys are absent.
			handler, flush, ok := tracing.Setup(tracing.ConfigFromEnv())
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			// COURSEMATCH_HISTORY_DB overrides the default path
			// (~/.coursematch/history.db); "disabled" turns history off.
			var (
				recorder recommend.Recorder
				reader   server.HistoryReader
			)
			if hs := openHistory(log); hs != nil {
				defer func() { _ = hs.Close() }()
				recorder, reader = hs, hs
			}

			rec, cleanup, err := buildRecommender(ctx, log, recorder)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer cleanup()

			pingers := []server.Pinger{
				server.NewIndexPinger(rec.index, rec.indexName),
				server.NewLLMPinger(rec.chatModel, provider.NewHealthChecker(rec.providerCfg), string(rec.providerCfg.Backend)),
			}

			srv, err := server.New(rec.service, &server.Config{
				Host:           host,
				Port:           port,
				Logger:         log,
				Pingers:        pingers,
				History:        reader,
				RequestTimeout: config.Duration("SERVER_REQUEST_TIMEOUT", server.DefaultRequestTimeout),
				APIKey:         os.Getenv("COURSEMATCH_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to (env: SERVER_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on (env: SERVER_PORT)")

	return cmd
}

// openHistory opens the recommendation log, or returns nil when it is
// disabled or cannot be opened. History is never required to serve.
func openHistory(log *slog.Logger) *history.Store {
	dbPath := os.Getenv("COURSEMATCH_HISTORY_DB")
	if dbPath == "disabled" {
		log.Info("history: disabled via COURSEMATCH_HISTORY_DB=disabled")
		return nil
	}
	if dbPath == "" {
		p, err := history.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil
		}
		dbPath = p
	}
	hs, err := history.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil
	}
	log.Info("history: store opened", slog.String("path", dbPath))
	return hs
}

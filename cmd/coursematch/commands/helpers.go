package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/54b3r/coursematch/internal/budget"
	"github.com/54b3r/coursematch/internal/config"
	"github.com/54b3r/coursematch/internal/embedder"
	"github.com/54b3r/coursematch/internal/provider"
	"github.com/54b3r/coursematch/internal/rag"
	"github.com/54b3r/coursematch/internal/recommend"
)

const (
	defaultCatalogDB  = "course_recommender.db"
	defaultIndexDir   = "./index"
	defaultCollection = "courses"
)

// catalogPath resolves the catalog database: the --db flag, then CATALOG_DB.
func catalogPath(flag string) string {
	if flag != "" {
		return flag
	}
	return config.String("CATALOG_DB", defaultCatalogDB)
}

// openIndex opens the vector index selected by INDEX_BACKEND (local or
// qdrant). In rag.ModeRead the index must already exist and answer a ping,
// so ask and serve fail fast before a build has run.
func openIndex(ctx context.Context, mode rag.OpenMode, log *slog.Logger) (rag.VectorStore, string, error) {
	collection := config.String("INDEX_COLLECTION", defaultCollection)
	backend := strings.ToLower(config.String("INDEX_BACKEND", "local"))

	switch backend {
	case "local":
		store, err := rag.OpenLocalStore(config.String("INDEX_DIR", defaultIndexDir), collection, mode)
		if err != nil {
			return nil, "", err
		}
		log.Info("local index opened", slog.String("path", store.Path()))
		return store, "index", nil

	case "qdrant":
		host := config.String("QDRANT_HOST", "localhost")
		port := config.Int("QDRANT_PORT", 6334)
		store, err := rag.NewQdrantStore(ctx, rag.QdrantConfig{
			Host:       host,
			Port:       port,
			Collection: collection,
			VectorSize: uint64(max(config.Int("EMBEDDING_DIMENSIONS", 0), 0)), //nolint:gosec // clamped to >= 0
			APIKey:     config.String("QDRANT_API_KEY", ""),
			UseTLS:     config.Bool("QDRANT_TLS"),
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
		}
		if mode == rag.ModeRead {
			if err := store.Ping(ctx); err != nil {
				_ = store.Close()
				return nil, "", err
			}
		}
		log.Info("qdrant index ready",
			slog.String("host", host),
			slog.Int("port", port),
			slog.String("collection", collection),
		)
		return store, "qdrant", nil

	default:
		return nil, "", fmt.Errorf("unsupported INDEX_BACKEND %q (valid: local, qdrant)", backend)
	}
}

// recommender is everything a query-side command needs, built once and
// passed down explicitly.
type recommender struct {
	service     *recommend.Service
	chatModel   model.BaseChatModel
	providerCfg *provider.Config
	index       rag.VectorStore
	indexName   string
}

// buildRecommender wires embedder, index, retriever, chat model and
// generator into a recommend.Service. rec may be nil. The returned cleanup
// closes the index.
func buildRecommender(ctx context.Context, log *slog.Logger, rec recommend.Recorder) (*recommender, func(), error) {
	embedder.WarnMisconfiguration(log)
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}

	index, indexName, err := openIndex(ctx, rag.ModeRead, log)
	if err != nil {
		return nil, nil, fmt.Errorf("index unavailable, run `coursematch index` first: %w", err)
	}
	cleanup := func() { _ = index.Close() }

	retriever, err := rag.NewRetriever(emb, index, rag.RetrieverConfig{
		Results:          config.Int("SEARCH_RESULTS", rag.DefaultResults),
		OverFetch:        config.Int("SEARCH_OVERFETCH", rag.DefaultOverFetch),
		StrictThreshold:  config.Float32("SEARCH_STRICT_THRESHOLD", rag.DefaultStrictThreshold),
		RelaxedThreshold: config.Float32("SEARCH_RELAXED_THRESHOLD", rag.DefaultRelaxedThreshold),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	providerCfg := provider.ConfigFromEnv()
	chatModel, err := provider.New(ctx, providerCfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised",
		slog.String("provider", string(providerCfg.Backend)),
		slog.String("model", providerCfg.ModelName()),
	)

	gen, err := recommend.NewGenerator(chatModel, recommend.GeneratorConfig{
		ContextBudget: config.Int("MODEL_CONTEXT_BUDGET", budget.DefaultMaxContextTokens),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	opts := []recommend.ServiceOption{recommend.WithResults(retriever.Config().Results)}
	if rec != nil {
		opts = append(opts, recommend.WithRecorder(rec))
	}
	svc, err := recommend.NewService(retriever, gen, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &recommender{
		service:     svc,
		chatModel:   chatModel,
		providerCfg: providerCfg,
		index:       index,
		indexName:   indexName,
	}, cleanup, nil
}

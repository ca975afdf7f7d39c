package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/coursematch/internal/catalog"
	"github.com/54b3r/coursematch/internal/config"
	"github.com/54b3r/coursematch/internal/embedder"
	"github.com/54b3r/coursematch/internal/ingestion"
	"github.com/54b3r/coursematch/internal/logging"
	"github.com/54b3r/coursematch/internal/rag"
)

// NewIndexCmd constructs the `coursematch index` command, which rebuilds the
// vector index from the whole catalog.
func NewIndexCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the course vector index from the catalog",
		Long: `Render every catalog course to text, split it into chunks, embed the chunks
and replace the vector index with the result.

All chunks are embedded first and the index is then swapped in one step
(a single transaction locally, an alias switch on Qdrant), so any failure
leaves the previous index serving queries.

Relevant environment variables:
  INDEX_BACKEND        local (default) or qdrant
  INDEX_DIR            directory for the local index (default: ./index)
  INDEX_COLLECTION     collection name (default: courses)
  QDRANT_HOST/PORT     Qdrant server (default: localhost:6334)
  EMBEDDING_DIMENSIONS vector size, needed on Qdrant to index an empty catalog
                       when no collection exists yet
  EMBEDDING_PROVIDER   openai, azure, ollama
  CHUNK_SIZE           max characters per chunk (default: 500)
  CHUNK_OVERLAP        characters shared by adjacent chunks (default: 100)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			embedder.WarnMisconfiguration(log)
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("index: failed to initialise embedder: %w", err)
			}
			log.Info("embedder initialised",
				slog.String("model", emb.Model()),
				slog.Int("batch_size", emb.BatchSize()),
			)

			courses, err := catalog.Open(catalogPath(dbPath))
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			defer courses.Close()

			store, _, err := openIndex(ctx, rag.ModeCreate, log)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			defer store.Close()

			pipeline, err := ingestion.NewPipeline(courses, emb, store, &ingestion.Config{
				ChunkSize:    config.Int("CHUNK_SIZE", ingestion.DefaultChunkSize),
				ChunkOverlap: config.Int("CHUNK_OVERLAP", ingestion.DefaultChunkOverlap),
			})
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			var bar *progress
			start := time.Now()
			stats, err := pipeline.Build(ctx, &ingestion.Progress{
				Chunked:  func(_, chunks int) { bar = newProgress(chunks, "embedding") },
				Embedded: func(done int) { bar.Set(done) },
			})
			bar.Finish()
			if err != nil {
				return fmt.Errorf("index: build failed: %w", err)
			}

			log.Info("index rebuilt",
				slog.Int("courses", stats.Courses),
				slog.Int("skipped", stats.Skipped),
				slog.Int("chunks", stats.Chunks),
				slog.Duration("duration", time.Since(start)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d courses as %d chunks\n", stats.Courses, stats.Chunks)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Catalog database path (default: CATALOG_DB or course_recommender.db)")

	return cmd
}

// Package ingestion builds the course vector index. It reads every course
// from the catalog, renders and chunks its syllabus, embeds the chunks and
// atomically replaces the collection's contents. Builds are full; the
// `coursematch index` command runs them offline.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/54b3r/coursematch/internal/catalog"
	"github.com/54b3r/coursematch/internal/chunker"
	"github.com/54b3r/coursematch/internal/document"
	"github.com/54b3r/coursematch/internal/logging"
	"github.com/54b3r/coursematch/internal/rag"
)

const (
	// DefaultChunkSize is the maximum chunk length in runes.
	DefaultChunkSize = 500
	// DefaultChunkOverlap is the rune overlap between consecutive chunks.
	DefaultChunkOverlap = 100
)

// CourseSource lists the courses to index.
type CourseSource interface {
	List(ctx context.Context, limit int) ([]catalog.CourseRecord, error)
}

// BatchEmbedder embeds texts in order and reports progress after each batch.
type BatchEmbedder interface {
	EmbedEach(ctx context.Context, texts []string, progress func(done int)) ([][]float32, error)
}

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of runes per chunk. Zero or negative
	// values use DefaultChunkSize.
	ChunkSize int

	// ChunkOverlap is the rune overlap between consecutive chunks. Negative
	// values use DefaultChunkOverlap, as does zero when ChunkSize is also
	// defaulted, so a zero Config means both defaults.
	ChunkOverlap int
}

// Progress receives build events. Any field may be nil.
type Progress struct {
	// Chunked is called once all courses are split, with the chunk total.
	Chunked func(courses, chunks int)
	// Embedded is called after every embedding batch.
	Embedded func(done int)
}

// Stats summarises a completed build.
type Stats struct {
	Courses int
	Skipped int
	Chunks  int
}

// Pipeline orchestrates the catalog → render → chunk → embed → store flow.
type Pipeline struct {
	courses  CourseSource
	embedder BatchEmbedder
	store    rag.VectorStore
	splitter *chunker.Splitter
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(courses CourseSource, embedder BatchEmbedder, store rag.VectorStore, cfg *Config) (*Pipeline, error) {
	if courses == nil {
		return nil, errors.New("ingestion: course source must not be nil")
	}
	if embedder == nil {
		return nil, errors.New("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, errors.New("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	size, overlap := cfg.ChunkSize, cfg.ChunkOverlap
	if size <= 0 {
		size = DefaultChunkSize
		if overlap == 0 {
			overlap = DefaultChunkOverlap
		}
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}

	splitter, err := chunker.New(size, overlap)
	if err != nil {
		return nil, fmt.Errorf("ingestion: %w", err)
	}

	return &Pipeline{
		courses:  courses,
		embedder: embedder,
		store:    store,
		splitter: splitter,
	}, nil
}

// Build regenerates the index from the whole catalog. Every chunk is embedded
// before the store is touched and the store swaps its contents in one
// Replace, so any failure leaves the previous index searchable. An empty
// catalog yields an empty, queryable index.
func (p *Pipeline) Build(ctx context.Context, progress *Progress) (Stats, error) {
	logger := logging.FromContext(ctx)
	if progress == nil {
		progress = &Progress{}
	}

	records, err := p.courses.List(ctx, 0)
	if err != nil {
		return Stats{}, fmt.Errorf("ingestion: list courses: %w", err)
	}

	var (
		stats   = Stats{Courses: len(records)}
		entries []rag.Entry
		texts   []string
	)
	for _, rec := range records {
		doc := document.Render(rec)
		chunks := p.splitter.Split(doc.Text)
		if len(chunks) == 0 {
			stats.Skipped++
			logger.Warn("course rendered no text", "course_id", rec.ID)
			continue
		}
		key := courseKey(rec)
		for i, c := range chunks {
			entries = append(entries, rag.Entry{
				ID:       rag.ChunkID(key, i),
				Text:     c,
				Metadata: doc.Metadata,
			})
			texts = append(texts, c)
		}
	}
	stats.Chunks = len(entries)
	if progress.Chunked != nil {
		progress.Chunked(stats.Courses, stats.Chunks)
	}
	logger.Info("catalog chunked",
		"courses", stats.Courses,
		"skipped", stats.Skipped,
		"chunks", stats.Chunks,
		"chunk_size", p.splitter.MaxSize(),
		"chunk_overlap", p.splitter.Overlap(),
	)

	vectors, err := p.embedder.EmbedEach(ctx, texts, progress.Embedded)
	if err != nil {
		return stats, fmt.Errorf("ingestion: embedding failed: %w", err)
	}
	if len(vectors) != len(entries) {
		return stats, fmt.Errorf("ingestion: expected %d vectors, got %d: %w",
			len(entries), len(vectors), rag.ErrEmbeddingService)
	}
	for i := range entries {
		entries[i].Vector = vectors[i]
	}

	if err := p.store.Replace(ctx, entries); err != nil {
		return stats, fmt.Errorf("ingestion: replace index: %w", err)
	}
	return stats, nil
}

// courseKey identifies a course for chunk IDs. Stored records use their row
// id; records without one fall back to code and class number.
func courseKey(rec catalog.CourseRecord) string {
	if rec.ID != 0 {
		return "course:" + strconv.FormatInt(rec.ID, 10)
	}
	return "course:" + rec.SubjectCode + "-" + rec.ClassNumber
}

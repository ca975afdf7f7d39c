package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/54b3r/coursematch/internal/logging"
)

// Retrieval defaults.
const (
	DefaultResults          = 10
	DefaultOverFetch        = 2
	DefaultStrictThreshold  = 0.5
	DefaultRelaxedThreshold = 0.3

	subjectNameKey = "subject_name"
)

// RetrieverConfig tunes FindSimilar. Start from DefaultRetrieverConfig; a
// non-positive Results or OverFetch takes its default, while thresholds are
// used as given, zero included.
type RetrieverConfig struct {
	// Results is the number of courses returned when the caller asks for <= 0.
	Results int

	// OverFetch multiplies the requested count to size the index query, so
	// duplicates and sub-threshold hits can be discarded without starving
	// the result.
	OverFetch int

	// StrictThreshold is the minimum score of the first pass.
	StrictThreshold float32

	// RelaxedThreshold is used only when the strict pass accepts nothing. It
	// must not exceed StrictThreshold.
	RelaxedThreshold float32
}

// DefaultRetrieverConfig returns the stock retrieval settings.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		Results:          DefaultResults,
		OverFetch:        DefaultOverFetch,
		StrictThreshold:  DefaultStrictThreshold,
		RelaxedThreshold: DefaultRelaxedThreshold,
	}
}

func (c RetrieverConfig) withDefaults() RetrieverConfig {
	if c.Results <= 0 {
		c.Results = DefaultResults
	}
	if c.OverFetch <= 0 {
		c.OverFetch = DefaultOverFetch
	}
	return c
}

func (c RetrieverConfig) validate() error {
	for _, th := range []float32{c.StrictThreshold, c.RelaxedThreshold} {
		if th < -1 || th > 1 {
			return fmt.Errorf("rag: threshold %v outside cosine range [-1, 1]", th)
		}
	}
	if c.RelaxedThreshold > c.StrictThreshold {
		return fmt.Errorf("rag: relaxed threshold %v exceeds strict threshold %v",
			c.RelaxedThreshold, c.StrictThreshold)
	}
	return nil
}

// Retriever answers "which courses match this question" by embedding the
// question, over-fetching from the index, and keeping at most one chunk per
// course above a similarity threshold.
type Retriever struct {
	embedder Embedder
	store    VectorStore
	cfg      RetrieverConfig
}

// NewRetriever constructs a Retriever from the given Embedder and VectorStore.
func NewRetriever(embedder Embedder, store VectorStore, cfg RetrieverConfig) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Retriever{embedder: embedder, store: store, cfg: cfg.withDefaults()}, nil
}

// Config returns the effective configuration.
func (r *Retriever) Config() RetrieverConfig { return r.cfg }

// FindSimilar returns up to desired chunks for query, one per subject name,
// in relevance order. When no candidate clears the strict threshold the
// candidates are filtered again with the relaxed threshold. No match at all
// is an empty slice, not an error.
func (r *Retriever) FindSimilar(ctx context.Context, query string, desired int) ([]SearchResult, error) {
	logger := logging.FromContext(ctx)
	if desired <= 0 {
		desired = r.cfg.Results
	}

	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query: %w", wrapEmbedding(err))
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("rag: embedder returned no vector for query: %w", ErrEmbeddingService)
	}

	k := desired * r.cfg.OverFetch
	candidates, err := r.store.Search(ctx, vecs[0], k)
	if err != nil {
		return nil, fmt.Errorf("rag: vector search: %w", wrapIndex(err))
	}

	results := selectResults(candidates, desired, r.cfg.StrictThreshold)
	pass := "strict"
	if len(results) == 0 {
		results = selectResults(candidates, desired, r.cfg.RelaxedThreshold)
		pass = "relaxed"
	}

	logger.Debug("similarity search",
		"candidates", len(candidates),
		"k", k,
		"results", len(results),
		"pass", pass,
	)
	return results, nil
}

// selectResults walks candidates in order, skipping subjects already taken
// and scores below threshold, until desired results are accepted.
func selectResults(candidates []Candidate, desired int, threshold float32) []SearchResult {
	out := make([]SearchResult, 0, min(desired, len(candidates)))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if len(out) >= desired {
			break
		}
		name := c.Metadata[subjectNameKey]
		if _, dup := seen[name]; dup {
			continue
		}
		if c.Score < threshold {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, SearchResult{Content: c.Content, Metadata: c.Metadata, Score: c.Score})
	}
	return out
}

func wrapEmbedding(err error) error {
	if errors.Is(err, ErrEmbeddingService) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrEmbeddingService, err)
}

func wrapIndex(err error) error {
	if errors.Is(err, ErrIndexUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
}

package embedder

import (
	"context"
	"fmt"

	"github.com/54b3r/coursematch/internal/rag"
)

// DefaultBatchSize is the number of texts sent per backend request.
const DefaultBatchSize = 20

// Client wraps a backend embedder with batching and strict result checks.
// Every failure it returns wraps rag.ErrEmbeddingService. It is safe for
// concurrent use when the backend is.
type Client struct {
	backend   rag.Embedder
	batchSize int
	model     string
}

// NewClient wraps backend. A batchSize <= 0 uses DefaultBatchSize.
func NewClient(backend rag.Embedder, batchSize int) *Client {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Client{backend: backend, batchSize: batchSize}
}

// BatchSize returns the number of texts per backend request.
func (c *Client) BatchSize() int { return c.batchSize }

// Model returns the embedding model name when the client was built by
// NewFromEnv, or "" otherwise.
func (c *Client) Model() string { return c.model }

// EmbedOne embeds a single text.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Embed embeds texts in order, batching requests. It satisfies rag.Embedder.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return c.EmbedEach(ctx, texts, nil)
}

// EmbedEach is Embed with a callback invoked after every batch with the
// number of texts embedded so far.
func (c *Client) EmbedEach(ctx context.Context, texts []string, progress func(done int)) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		batch := texts[start:end]

		vecs, err := c.backend.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embedder: batch %d-%d: %w: %w", start, end, rag.ErrEmbeddingService, err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("embedder: batch %d-%d: expected %d vectors, got %d: %w",
				start, end, len(batch), len(vecs), rag.ErrEmbeddingService)
		}
		for i, v := range vecs {
			if len(v) == 0 {
				return nil, fmt.Errorf("embedder: text %d: empty vector: %w", start+i, rag.ErrEmbeddingService)
			}
		}
		out = append(out, vecs...)
		if progress != nil {
			progress(len(out))
		}
	}
	return out, nil
}

// Package rag holds the retrieval side of course recommendation: the vector
// index contract, its SQLite and Qdrant backends, and the Retriever that
// turns a student question into a deduplicated, thresholded list of course
// chunks.
package rag

import (
	"context"
)

// Entry is one indexed chunk: its embedding plus the text and course
// metadata returned on a hit.
type Entry struct {
	// ID uniquely identifies the chunk within a collection.
	ID string

	// Vector is the chunk embedding.
	Vector []float32

	// Text is the chunk content.
	Text string

	// Metadata is the owning course's flat metadata, shared by all its chunks.
	Metadata map[string]string
}

// Candidate is a raw index hit before deduplication and thresholding.
type Candidate struct {
	ID       string
	Content  string
	Metadata map[string]string

	// Score is cosine similarity in [-1, 1]. Higher is more relevant.
	Score float32
}

// SearchResult is a chunk accepted by the Retriever.
type SearchResult struct {
	Content  string
	Metadata map[string]string
	Score    float32
}

// VectorStore is a named, persistent collection of embedded chunks.
// Implementations must be safe for concurrent Search calls.
type VectorStore interface {
	// Add appends entries to the collection.
	Add(ctx context.Context, entries []Entry) error

	// Search returns at most k candidates, best first. Equal scores keep
	// insertion order.
	Search(ctx context.Context, query []float32, k int) ([]Candidate, error)

	// Replace atomically swaps the collection's contents for entries. On
	// error the previous contents stay searchable. An empty slice leaves an
	// empty but queryable collection.
	Replace(ctx context.Context, entries []Entry) error

	// Reset empties the collection.
	Reset(ctx context.Context) error

	// Ping reports whether the collection can serve queries.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

package rag

import "errors"

var (
	// ErrEmbeddingService is wrapped by every failure to obtain an embedding.
	ErrEmbeddingService = errors.New("embedding service unavailable")

	// ErrIndexUnavailable is wrapped when the vector index is missing,
	// unreadable or unreachable. Running the index command fixes it.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)

package recommend

import "errors"

var (
	// ErrMetadataParse marks a search result whose metadata cannot produce a
	// Source. It is logged and the source dropped; the answer still returns.
	ErrMetadataParse = errors.New("source metadata unparseable")

	// ErrGeneration wraps failures of the chat model call.
	ErrGeneration = errors.New("answer generation failed")

	// ErrEmptyQuestion is returned when the question is blank.
	ErrEmptyQuestion = errors.New("question must not be empty")
)

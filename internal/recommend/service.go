package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/54b3r/coursematch/internal/logging"
	"github.com/54b3r/coursematch/internal/rag"
)

// Retriever finds course chunks relevant to a question.
type Retriever interface {
	FindSimilar(ctx context.Context, query string, desired int) ([]rag.SearchResult, error)
}

// Recorder persists a completed exchange. Failures are logged, never
// returned to the caller.
type Recorder interface {
	Record(ctx context.Context, question, answer string, sources int) error
}

// Service answers student questions end to end: retrieve, then generate.
type Service struct {
	retriever Retriever
	generator *Generator
	recorder  Recorder
	results   int
}

// ServiceOption configures optional Service behaviour.
type ServiceOption func(*Service)

// WithRecorder logs each answered question to r.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// WithResults sets how many courses are requested per question. Zero or
// less leaves the retriever's default.
func WithResults(n int) ServiceOption {
	return func(s *Service) { s.results = n }
}

// NewService wires a retriever and generator into a Service.
func NewService(r Retriever, g *Generator, opts ...ServiceOption) (*Service, error) {
	if r == nil || g == nil {
		return nil, errors.New("recommend: retriever and generator are required")
	}
	s := &Service{retriever: r, generator: g}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Recommend answers question. Retrieval errors keep their rag sentinel so
// callers can tell an unavailable dependency from a generation failure.
func (s *Service) Recommend(ctx context.Context, question string) (*Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	results, err := s.retriever.FindSimilar(ctx, question, s.results)
	if err != nil {
		return nil, fmt.Errorf("recommend: retrieve: %w", err)
	}

	resp, err := s.generator.Answer(ctx, question, results)
	if err != nil {
		return nil, err
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, question, resp.Answer, len(resp.Sources)); err != nil {
			logging.FromContext(ctx).Warn("failed to record recommendation", "error", err)
		}
	}
	return resp, nil
}

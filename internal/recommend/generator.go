// Package recommend turns retrieved course chunks into a recommendation: a
// natural-language answer from the chat model plus structured course
// sources taken from the chunks' metadata.
package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/coursematch/internal/budget"
	"github.com/54b3r/coursematch/internal/logging"
	"github.com/54b3r/coursematch/internal/rag"
)

// Response is a recommendation answer and the courses it drew on.
type Response struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// GeneratorConfig tunes prompt-size reporting.
type GeneratorConfig struct {
	// ContextBudget is the token budget prompts are checked against. Zero
	// uses budget.DefaultMaxContextTokens.
	ContextBudget int
}

// Generator produces answers with a single chat model call per question.
type Generator struct {
	model model.BaseChatModel
	cfg   GeneratorConfig
}

// NewGenerator returns a Generator backed by m.
func NewGenerator(m model.BaseChatModel, cfg GeneratorConfig) (*Generator, error) {
	if m == nil {
		return nil, errors.New("recommend: chat model must not be nil")
	}
	return &Generator{model: m, cfg: cfg}, nil
}

// Answer builds the recommendation for question from results, which must be
// in relevance order. With no results the fixed no-match answer is returned
// and the model is not called.
func (g *Generator) Answer(ctx context.Context, question string, results []rag.SearchResult) (*Response, error) {
	logger := logging.FromContext(ctx)

	if len(results) == 0 {
		return &Response{Answer: NoMatchAnswer, Sources: []Source{}}, nil
	}

	msgs := []*schema.Message{
		schema.UserMessage(buildPrompt(buildContext(results), question)),
	}
	report := budget.Check(msgs, g.cfg.ContextBudget)
	if report.Over() {
		logger.Warn("prompt exceeds context budget",
			"estimated_tokens", report.Tokens,
			"budget", report.Limit,
			"chunks", len(results),
		)
	} else {
		logger.Debug("prompt size", "estimated_tokens", report.Tokens, "budget", report.Limit)
	}

	ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      "course_recommendation",
		Component: components.ComponentOfChatModel,
	})
	out, err := g.model.Generate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("recommend: generate: %w: %w", ErrGeneration, err)
	}
	if out == nil {
		return nil, fmt.Errorf("recommend: generate: empty response: %w", ErrGeneration)
	}

	sources := make([]Source, 0, len(results))
	for i, r := range results {
		src, err := sourceFromResult(r.Metadata, r.Content)
		if err != nil {
			logger.Warn("dropping source", "index", i, "error", err)
			continue
		}
		sources = append(sources, src)
	}

	return &Response{Answer: out.Content, Sources: sources}, nil
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/coursematch/internal/provider"
)

// IndexPinger probes the vector index backing recommendations.
type IndexPinger struct {
	index interface {
		Ping(ctx context.Context) error
	}
	name string
}

// NewIndexPinger wraps any store with a Ping method, such as rag.VectorStore.
// name labels it in readiness output ("index", "qdrant").
func NewIndexPinger(index interface{ Ping(ctx context.Context) error }, name string) *IndexPinger {
	return &IndexPinger{index: index, name: name}
}

func (p *IndexPinger) Name() string { return p.name }

func (p *IndexPinger) Ping(ctx context.Context) error {
	if err := p.index.Ping(ctx); err != nil {
		return fmt.Errorf("index ping failed: %w", err)
	}
	return nil
}

// LLMPinger probes the chat model backend. A provider.HealthChecker is used
// when the backend has one; otherwise a single-token Generate call is made,
// which costs tokens.
type LLMPinger struct {
	model       model.BaseChatModel
	healthCheck provider.HealthChecker
	name        string
}

// NewLLMPinger constructs an LLMPinger. hc may be nil.
func NewLLMPinger(m model.BaseChatModel, hc provider.HealthChecker, name string) *LLMPinger {
	return &LLMPinger{model: m, healthCheck: hc, name: name}
}

func (p *LLMPinger) Name() string { return p.name }

func (p *LLMPinger) Ping(ctx context.Context) error {
	if p.healthCheck != nil {
		if err := p.healthCheck.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s health check failed: %w", p.name, err)
		}
		return nil
	}
	if p.model == nil {
		return errors.New("no chat model configured")
	}

	slog.Warn("pinger: falling back to Generate-based health check, tokens will be consumed",
		slog.String("backend", p.name),
	)
	resp, err := p.model.Generate(ctx, []*schema.Message{schema.UserMessage("ping")})
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}
	if resp == nil {
		return errors.New("generate returned nil response")
	}
	return nil
}

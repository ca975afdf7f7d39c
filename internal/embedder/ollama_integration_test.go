//go:build integration

package embedder

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestOllamaEmbedder_Integration calls a locally running Ollama instance.
//
//	ollama pull bge-m3
//	go test -tags=integration -run TestOllamaEmbedder_Integration ./internal/embedder/
//
// Set OLLAMA_HOST if Ollama is not on localhost:11434.
func TestOllamaEmbedder_Integration(t *testing.T) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	model := os.Getenv("EMBEDDING_MODEL")
	if model == "" {
		model = defaultOllamaModel
	}

	client := NewClient(NewOllamaEmbedder(&OllamaConfig{Host: host, Model: model}), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	texts := []string{
		"인공지능개론: 머신러닝과 딥러닝의 기초를 배운다.",
		"영어회화: 일상 영어 표현을 연습한다.",
	}
	embeddings, err := client.Embed(ctx, texts)
	if err != nil {
		t.Fatalf("Embed() failed: %v\n\nEnsure Ollama is running and %q is pulled:\n  ollama pull %s", err, model, model)
	}
	if len(embeddings) != len(texts) {
		t.Fatalf("expected %d embeddings, got %d", len(texts), len(embeddings))
	}

	identical := len(embeddings[0]) == len(embeddings[1])
	for j := 0; identical && j < len(embeddings[0]); j++ {
		identical = embeddings[0][j] == embeddings[1][j]
	}
	if identical {
		t.Error("distinct texts produced identical vectors")
	}
	t.Logf("model=%s dim=%d", model, len(embeddings[0]))
}

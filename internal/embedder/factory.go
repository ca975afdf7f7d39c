package embedder

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Default embedding models per backend.
const (
	defaultOllamaModel = "bge-m3"
	defaultOpenAIModel = "text-embedding-ada-002"
)

// backendFromEnv resolves the embedding backend: EMBEDDING_PROVIDER, then
// MODEL_PROVIDER, then openai.
func backendFromEnv() string {
	if b := getEnv("EMBEDDING_PROVIDER"); b != "" {
		return strings.ToLower(b)
	}
	return strings.ToLower(getEnvOrDefault("MODEL_PROVIDER", "openai"))
}

// NewFromEnv constructs a batching Client over the backend selected by the
// environment. Credentials are inherited from the chat provider settings
// unless an EMBEDDING_* override is set.
//
//	EMBEDDING_PROVIDER   = openai | azure | ollama (default: MODEL_PROVIDER, then openai)
//	EMBEDDING_MODEL      overrides the backend default model
//	EMBEDDING_API_KEY    overrides OPENAI_API_KEY / AZURE_OPENAI_API_KEY
//	EMBEDDING_ENDPOINT   overrides the API base URL / Ollama host
//	EMBEDDING_DIMENSIONS requests a specific vector size (openai/azure only)
//	EMBEDDING_BATCH_SIZE texts per request (default: 20)
func NewFromEnv() (*Client, error) {
	backend := backendFromEnv()
	batch := getEnvInt("EMBEDDING_BATCH_SIZE", DefaultBatchSize)

	switch backend {
	case "ollama":
		host := getEnv("EMBEDDING_ENDPOINT")
		if host == "" {
			host = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		}
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultOllamaModel)
		c := NewClient(NewOllamaEmbedder(&OllamaConfig{Host: host, Model: model}), batch)
		c.model = model
		return c, nil

	case "openai":
		apiKey := firstNonEmpty(getEnv("EMBEDDING_API_KEY"), getEnv("OPENAI_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel)
		c := NewClient(NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    firstNonEmpty(getEnv("EMBEDDING_ENDPOINT"), "https://api.openai.com/v1"),
			APIKey:     apiKey,
			Model:      model,
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", 0),
		}), batch)
		c.model = model
		return c, nil

	case "azure":
		apiKey := firstNonEmpty(getEnv("EMBEDDING_API_KEY"), getEnv("AZURE_OPENAI_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		endpoint := firstNonEmpty(getEnv("EMBEDDING_ENDPOINT"), getEnv("AZURE_OPENAI_ENDPOINT"))
		if endpoint == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel)
		c := NewClient(NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    strings.TrimRight(endpoint, "/") + "/openai",
			APIKey:     apiKey,
			Model:      model,
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", 0),
			Azure:      true,
			APIVersion: getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2024-02-01"),
		}), batch)
		c.model = model
		return c, nil

	default:
		return nil, fmt.Errorf("embedder: unsupported backend %q (valid: openai, azure, ollama)", backend)
	}
}

func getEnv(key string) string {
	return os.Getenv(key)
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

package embedder

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	Model     string
	Host      string
	APIKey    string
	CacheSize int
}

// NewFromEnv creates an embedder based on environment variables
// Priority:
// 1. CODEATLAS_EMBEDDING_PROVIDER (ollama, openai, local)
// 2. Ollama server reachable at OLLAMA_HOST
// 3. OPENAI_API_KEY present
// 4. Local deterministic model
//
// A provider that fails its startup probe falls back to the local model
// rather than aborting: indexing stays available when the embedding
// backend is down.
func NewFromEnv() (Embedder, error) {
	provider := os.Getenv(EnvProvider)
	openaiKey := os.Getenv(EnvOpenAIAPIKey)

	cache := NewCache(10000) // Default cache size

	// Explicit provider selection
	if provider != "" {
		provider = strings.ToLower(provider)
		switch provider {
		case ProviderOllama:
			return withLocalFallback(NewOllamaProvider("", os.Getenv(EnvEmbeddingModel), cache))
		case ProviderOpenAI:
			return withLocalFallback(NewOpenAIProvider(openaiKey, cache))
		case ProviderLocal:
			return NewLocalProvider(cache)
		default:
			return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, provider)
		}
	}

	// Auto-detect: prefer a running Ollama, then OpenAI
	if emb, err := NewOllamaProvider("", os.Getenv(EnvEmbeddingModel), cache); err == nil {
		return emb, nil
	}
	if openaiKey != "" {
		return withLocalFallback(NewOpenAIProvider(openaiKey, cache))
	}

	return NewLocalProvider(cache)
}

// withLocalFallback demotes a failed provider to the local model
func withLocalFallback(emb Embedder, err error) (Embedder, error) {
	if err == nil {
		return emb, nil
	}
	log.Printf("embedding provider unavailable (%v), falling back to local model", err)
	cache := NewCache(10000)
	return NewLocalProvider(cache)
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderOllama:
		return NewOllamaProvider(cfg.Host, cfg.Model, cache)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}

	return ProviderOllama
}

package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	h1 := ComputeHash("hello world")
	h2 := ComputeHash("hello world")
	h3 := ComputeHash("hello world!")

	assert.Equal(t, h1, h2, "same text should hash identically")
	assert.NotEqual(t, h1, h3, "different text should hash differently")
	assert.Len(t, h1, 64, "hash should be sha256 hex")
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     EmbeddingRequest
		wantErr error
	}{
		{"valid", EmbeddingRequest{Text: "some code"}, nil},
		{"empty text", EmbeddingRequest{Text: ""}, ErrEmptyText},
		{"whitespace only", EmbeddingRequest{Text: "   \n\t"}, ErrEmptyText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateBatchRequest(t *testing.T) {
	t.Run("valid batch", func(t *testing.T) {
		err := ValidateBatchRequest(BatchEmbeddingRequest{Texts: []string{"a", "b"}})
		assert.NoError(t, err)
	})

	t.Run("empty batch", func(t *testing.T) {
		err := ValidateBatchRequest(BatchEmbeddingRequest{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("batch with empty text", func(t *testing.T) {
		err := ValidateBatchRequest(BatchEmbeddingRequest{Texts: []string{"a", ""}})
		assert.ErrorIs(t, err, ErrEmptyText)
	})
}

func TestCache(t *testing.T) {
	t.Run("set and get", func(t *testing.T) {
		cache := NewCache(10)
		emb := &Embedding{Vector: []float32{1, 2, 3}, Dimension: 3}

		cache.Set("key1", emb)
		got, ok := cache.Get("key1")
		require.True(t, ok)
		assert.Equal(t, emb.Vector, got.Vector)
	})

	t.Run("miss", func(t *testing.T) {
		cache := NewCache(10)
		_, ok := cache.Get("missing")
		assert.False(t, ok)
	})

	t.Run("returned embedding is a copy", func(t *testing.T) {
		cache := NewCache(10)
		cache.Set("key1", &Embedding{Vector: []float32{1, 2, 3}, Dimension: 3})

		got, ok := cache.Get("key1")
		require.True(t, ok)
		got.Vector[0] = 99

		again, ok := cache.Get("key1")
		require.True(t, ok)
		assert.Equal(t, float32(1), again.Vector[0], "caller mutation must not reach the cache")
	})

	t.Run("eviction", func(t *testing.T) {
		cache := NewCache(2)
		cache.Set("a", &Embedding{Vector: []float32{1}})
		cache.Set("b", &Embedding{Vector: []float32{2}})
		cache.Set("c", &Embedding{Vector: []float32{3}})

		_, ok := cache.Get("a")
		assert.False(t, ok, "oldest entry should be evicted")
		_, ok = cache.Get("c")
		assert.True(t, ok)
	})
}

func TestLocalProvider(t *testing.T) {
	provider, err := NewLocalProvider(NewCache(10))
	require.NoError(t, err)
	defer func() { _ = provider.Close() }()

	ctx := context.Background()

	t.Run("deterministic", func(t *testing.T) {
		e1, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "func main() {}"})
		require.NoError(t, err)
		e2, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "func main() {}"})
		require.NoError(t, err)
		assert.Equal(t, e1.Vector, e2.Vector, "equal inputs must embed identically")
	})

	t.Run("distinct inputs differ", func(t *testing.T) {
		e1, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "alpha"})
		require.NoError(t, err)
		e2, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "beta"})
		require.NoError(t, err)
		assert.NotEqual(t, e1.Vector, e2.Vector)
	})

	t.Run("dimension and metadata", func(t *testing.T) {
		emb, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "hello"})
		require.NoError(t, err)
		assert.Equal(t, LocalDimension, emb.Dimension)
		assert.Len(t, emb.Vector, LocalDimension)
		assert.Equal(t, ProviderLocal, emb.Provider)
		assert.NotEmpty(t, emb.Hash)
	})

	t.Run("unit length", func(t *testing.T) {
		emb, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "normalize me"})
		require.NoError(t, err)

		var sum float64
		for _, v := range emb.Vector {
			sum += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, sum, 0.001, "local vectors should be normalized")
	})

	t.Run("batch", func(t *testing.T) {
		resp, err := provider.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{"a", "b", "c"}})
		require.NoError(t, err)
		assert.Len(t, resp.Embeddings, 3)
		assert.Equal(t, ProviderLocal, resp.Provider)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		_, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: ""})
		assert.ErrorIs(t, err, ErrEmptyText)
	})
}

func TestNormalizeVector(t *testing.T) {
	t.Run("normalizes to unit length", func(t *testing.T) {
		v := NormalizeVector([]float32{3, 4})
		assert.InDelta(t, 0.6, v[0], 0.001)
		assert.InDelta(t, 0.8, v[1], 0.001)
	})

	t.Run("zero vector unchanged", func(t *testing.T) {
		v := NormalizeVector([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, v)
	})
}

func TestOllamaProvider(t *testing.T) {
	newMockServer := func(t *testing.T, embedCalls *int) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/tags":
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"models":[]}`))
			case "/api/embeddings":
				if embedCalls != nil {
					*embedCalls++
				}
				assert.Equal(t, "POST", r.Method)

				var body struct {
					Model  string `json:"model"`
					Prompt string `json:"prompt"`
				}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.NotEmpty(t, body.Prompt)

				vec := make([]float32, OllamaDimension)
				vec[0] = 1
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"embedding": vec})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
	}

	t.Run("single embedding", func(t *testing.T) {
		server := newMockServer(t, nil)
		defer server.Close()

		provider, err := NewOllamaProvider(server.URL, "", NewCache(10))
		require.NoError(t, err)
		defer func() { _ = provider.Close() }()

		emb, err := provider.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "some code"})
		require.NoError(t, err)
		assert.Equal(t, OllamaDimension, emb.Dimension)
		assert.Equal(t, ProviderOllama, emb.Provider)
		assert.Equal(t, DefaultOllamaModel, emb.Model)
	})

	t.Run("cache avoids repeat calls", func(t *testing.T) {
		calls := 0
		server := newMockServer(t, &calls)
		defer server.Close()

		provider, err := NewOllamaProvider(server.URL, "", NewCache(10))
		require.NoError(t, err)
		defer func() { _ = provider.Close() }()

		ctx := context.Background()
		_, err = provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "same text"})
		require.NoError(t, err)
		_, err = provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "same text"})
		require.NoError(t, err)

		assert.Equal(t, 1, calls, "second call should be served from cache")
	})

	t.Run("unreachable server fails probe", func(t *testing.T) {
		_, err := NewOllamaProvider("http://127.0.0.1:1", "", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoProviderEnabled)
	})

	t.Run("batch rejects oversized input", func(t *testing.T) {
		server := newMockServer(t, nil)
		defer server.Close()

		provider, err := NewOllamaProvider(server.URL, "", nil)
		require.NoError(t, err)

		texts := make([]string, MaxBatchSize+1)
		for i := range texts {
			texts[i] = "x"
		}
		_, err = provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: texts})
		assert.ErrorIs(t, err, ErrBatchTooLarge)
	})

	t.Run("metadata", func(t *testing.T) {
		server := newMockServer(t, nil)
		defer server.Close()

		provider, err := NewOllamaProvider(server.URL, "custom-model", nil)
		require.NoError(t, err)
		assert.Equal(t, ProviderOllama, provider.Provider())
		assert.Equal(t, "custom-model", provider.Model())
		assert.Equal(t, OllamaDimension, provider.Dimension())
	})
}

func TestOpenAIProvider(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		t.Setenv(EnvOpenAIAPIKey, "")
		_, err := NewOpenAIProvider("", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoProviderEnabled)
	})

	t.Run("metadata", func(t *testing.T) {
		provider, err := NewOpenAIProvider("test-key", nil)
		require.NoError(t, err)
		defer func() { _ = provider.Close() }()

		assert.Equal(t, ProviderOpenAI, provider.Provider())
		assert.Equal(t, DefaultOpenAIModel, provider.Model())
		assert.Equal(t, OpenAIDimension, provider.Dimension())
	})
}

func TestRetryWithBackoff(t *testing.T) {
	fastConfig := RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
	}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		result, err := retryWithBackoff(context.Background(), fastConfig, func() (string, error) {
			attempts++
			if attempts < 3 {
				return "", errors.New("transient")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, attempts)
	})

	t.Run("exhausts retries", func(t *testing.T) {
		attempts := 0
		_, err := retryWithBackoff(context.Background(), fastConfig, func() (string, error) {
			attempts++
			return "", errors.New("permanent")
		})
		require.Error(t, err)
		assert.Equal(t, fastConfig.MaxRetries, attempts)
	})

	t.Run("stops on permanent failure", func(t *testing.T) {
		attempts := 0
		_, err := retryWithBackoff(context.Background(), fastConfig, func() (string, error) {
			attempts++
			return "", permanent(errors.New("bad request"))
		})
		require.ErrorIs(t, err, errPermanent)
		assert.Equal(t, 1, attempts)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := retryWithBackoff(ctx, fastConfig, func() (string, error) {
			return "", errors.New("fail")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNew(t *testing.T) {
	t.Run("local provider", func(t *testing.T) {
		emb, err := New(Config{Provider: "local", CacheSize: 100})
		require.NoError(t, err)
		assert.Equal(t, ProviderLocal, emb.Provider())
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(Config{Provider: "quantum"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedModel)
	})
}

func TestDetectProvider(t *testing.T) {
	t.Run("explicit env wins", func(t *testing.T) {
		t.Setenv(EnvProvider, "LOCAL")
		assert.Equal(t, ProviderLocal, DetectProvider())
	})

	t.Run("openai key", func(t *testing.T) {
		t.Setenv(EnvProvider, "")
		t.Setenv(EnvOpenAIAPIKey, "sk-test")
		assert.Equal(t, ProviderOpenAI, DetectProvider())
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv(EnvProvider, "")
		t.Setenv(EnvOpenAIAPIKey, "")
		assert.Equal(t, ProviderOllama, DetectProvider())
	})
}

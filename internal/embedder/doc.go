// Package embedder generates vector embeddings for analyzed code using
// various providers.
//
// The embedder supports Ollama (local server), OpenAI, and a deterministic
// local fallback model, and provides batching, caching, and retry handling.
//
// # Basic Usage
//
//	// Create embedder (auto-detects provider from environment)
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	// Generate single embedding
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "function: ParseConfig loads settings from disk",
//	})
//	fmt.Printf("Vector dimension: %d\n", len(result.Vector))
//
// # Provider Selection
//
// The embedder selects a provider based on environment variables:
//
//  1. If CODEATLAS_EMBEDDING_PROVIDER is set → use specified provider
//  2. Else if an Ollama server answers at OLLAMA_HOST → use Ollama
//  3. Else if OPENAI_API_KEY is set → use OpenAI
//  4. Else → fallback to local provider (offline mode)
//
// A configured provider that fails its startup probe degrades to the local
// model instead of aborting, so indexing keeps working without a backend.
//
// # Caching
//
// Embeddings are cached in-memory by content hash:
//
//	cache := embedder.NewCache(10000) // cache 10k embeddings
//
// Identical text never hits the provider twice, which matters during
// re-indexing where most files are unchanged.
//
// # Error Handling
//
// Transient provider failures are retried with exponential backoff:
//
//	emb, err := provider.GenerateBatch(ctx, req)
//	if errors.Is(err, embedder.ErrProviderFailed) {
//	    // API unavailable after retries
//	}
package embedder

package indexer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dmaring/codeatlas-mcp/internal/embedder"
	"github.com/dmaring/codeatlas-mcp/internal/vectorstore"
	"github.com/dmaring/codeatlas-mcp/pkg/types"
)

const (
	// DefaultLimit is used when a search request doesn't specify one
	DefaultLimit = 10
	// MaxLimit caps result list size
	MaxLimit = 100
	// snippetLength bounds the document text carried on each result
	snippetLength = 200
)

// intentPrefixes rewrite the raw query to bias the embedding toward the
// caller's goal before it is vectorized
var intentPrefixes = map[types.Intent]string{
	types.IntentFindSimilar:            "similar implementation code function",
	types.IntentUnderstandDependencies: "dependencies imports uses",
	types.IntentCheckPatterns:          "pattern architecture design",
	types.IntentFindFile:               "file module purpose",
	types.IntentUnderstandArchitecture: "architecture design pattern structure",
}

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query  string
	Intent types.Intent
	Kinds  []string // element kinds to include; ignored for file intents
	Limit  int
}

// cacheEntry is a cached response tagged with the index generation it was
// computed against
type cacheEntry struct {
	response   *types.SearchResponse
	generation uint64
}

// Indexer writes analyzed files into the vector store and answers
// semantic queries over them
type Indexer struct {
	store    vectorstore.Store
	embedder embedder.Embedder

	// Query cache, invalidated by bumping generation on any write
	cache      *lru.Cache[[32]byte, *cacheEntry]
	cacheMu    sync.RWMutex
	generation atomic.Uint64
}

// New creates an Indexer over the given store and embedder
func New(store vectorstore.Store, emb embedder.Embedder) *Indexer {
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// Only reachable with an invalid size constant
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Indexer{
		store:    store,
		embedder: emb,
		cache:    cache,
	}
}

// Index writes one file-overview document and one document per element for
// the analysis. Re-indexing a file first clears its previous element
// documents, so renamed or deleted elements don't linger.
func (ix *Indexer) Index(ctx context.Context, fa *types.FileAnalysis) error {
	if fa == nil {
		return fmt.Errorf("nil analysis")
	}

	overview, err := ix.buildOverviewDocument(ctx, fa)
	if err != nil {
		return fmt.Errorf("embedding overview for %s: %w", fa.FilePath, err)
	}

	elements, err := ix.buildElementDocuments(ctx, fa)
	if err != nil {
		return fmt.Errorf("embedding elements for %s: %w", fa.FilePath, err)
	}

	if err := ix.store.Upsert(ctx, vectorstore.CollectionFileOverviews, overview); err != nil {
		return fmt.Errorf("storing overview for %s: %w", fa.FilePath, err)
	}
	if err := ix.store.DeleteByFile(ctx, vectorstore.CollectionCodeElements, fa.FilePath); err != nil {
		return fmt.Errorf("clearing elements for %s: %w", fa.FilePath, err)
	}
	if err := ix.store.UpsertBatch(ctx, vectorstore.CollectionCodeElements, elements); err != nil {
		return fmt.Errorf("storing elements for %s: %w", fa.FilePath, err)
	}

	ix.generation.Add(1)
	return nil
}

// Remove deletes all documents for a file from both collections
func (ix *Indexer) Remove(ctx context.Context, filePath string) error {
	if err := ix.store.Delete(ctx, vectorstore.CollectionFileOverviews, filePath); err != nil {
		return fmt.Errorf("removing overview for %s: %w", filePath, err)
	}
	if err := ix.store.DeleteByFile(ctx, vectorstore.CollectionCodeElements, filePath); err != nil {
		return fmt.Errorf("removing elements for %s: %w", filePath, err)
	}

	ix.generation.Add(1)
	return nil
}

// Search executes a semantic query. Failures yield a response with
// Status == SearchError rather than an error, so tool handlers always
// have a well-formed payload to return.
func (ix *Indexer) Search(ctx context.Context, req SearchRequest) *types.SearchResponse {
	if strings.TrimSpace(req.Query) == "" {
		return errorResponse("query cannot be empty")
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.Intent == "" {
		req.Intent = types.IntentGeneral
	}

	key := requestHash(req)
	if cached := ix.checkCache(key); cached != nil {
		return cached
	}

	rewritten := rewriteQuery(req.Query, req.Intent)
	emb, err := ix.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: rewritten})
	if err != nil {
		return errorResponse(fmt.Sprintf("embedding query: %v", err))
	}

	collection := vectorstore.CollectionCodeElements
	var filter *vectorstore.Filter
	if req.Intent.TargetsFiles() {
		collection = vectorstore.CollectionFileOverviews
	} else if len(req.Kinds) > 0 {
		filter = &vectorstore.Filter{Kinds: req.Kinds}
	}

	hits, err := ix.store.Query(ctx, collection, emb.Vector, req.Limit, filter)
	if err != nil {
		return errorResponse(fmt.Sprintf("querying index: %v", err))
	}

	response := &types.SearchResponse{
		Status:  types.SearchOK,
		Results: buildResults(hits),
	}

	ix.storeInCache(key, response)
	return copyResponse(response)
}

// FindSimilar searches for elements resembling the given description
func (ix *Indexer) FindSimilar(ctx context.Context, description string, limit int) *types.SearchResponse {
	return ix.Search(ctx, SearchRequest{
		Query:  description,
		Intent: types.IntentFindSimilar,
		Limit:  limit,
	})
}

// Dependents returns indexed elements whose document text mentions the
// target symbol. Semantic search narrows candidates; an exact containment
// check removes lookalikes.
func (ix *Indexer) Dependents(ctx context.Context, target string, limit int) *types.SearchResponse {
	resp := ix.Search(ctx, SearchRequest{
		Query:  target,
		Intent: types.IntentUnderstandDependencies,
		Limit:  limit,
	})
	if resp.Status != types.SearchOK {
		return resp
	}

	// Snippets are truncated for display, so containment runs against the
	// stored document text.
	filtered := make([]types.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		doc, err := ix.store.Get(ctx, vectorstore.CollectionCodeElements, r.ID)
		if err != nil {
			continue
		}
		if strings.Contains(doc.Text, target) {
			filtered = append(filtered, r)
		}
	}
	resp.Results = filtered
	return resp
}

// buildOverviewDocument embeds the file-level summary text
func (ix *Indexer) buildOverviewDocument(ctx context.Context, fa *types.FileAnalysis) (*vectorstore.Document, error) {
	text := overviewText(fa)
	emb, err := ix.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
	if err != nil {
		return nil, err
	}

	return &vectorstore.Document{
		ID:       fa.FilePath,
		Text:     text,
		FilePath: fa.FilePath,
		Metadata: map[string]string{
			"purpose":     fa.Purpose,
			"framework":   fa.Framework,
			"routes":      strconv.Itoa(len(fa.RouteRecords())),
			"models":      strconv.Itoa(len(fa.ModelRecords())),
			"elements":    strconv.Itoa(len(fa.Elements)),
			"analyzed_at": fa.AnalyzedAt.Format(time.RFC3339),
		},
		Vector:   emb.Vector,
		Provider: emb.Provider,
		Model:    emb.Model,
	}, nil
}

// buildElementDocuments embeds one document per extracted element,
// batching embedding calls per provider limits
func (ix *Indexer) buildElementDocuments(ctx context.Context, fa *types.FileAnalysis) ([]*vectorstore.Document, error) {
	if len(fa.Elements) == 0 {
		return nil, nil
	}

	texts := make([]string, len(fa.Elements))
	for i := range fa.Elements {
		texts[i] = elementText(&fa.Elements[i])
	}

	docs := make([]*vectorstore.Document, 0, len(fa.Elements))
	for start := 0; start < len(texts); start += embedder.DefaultBatchSize {
		end := start + embedder.DefaultBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := ix.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts[start:end]})
		if err != nil {
			return nil, err
		}

		for j, emb := range resp.Embeddings {
			elem := &fa.Elements[start+j]
			docs = append(docs, &vectorstore.Document{
				ID:       elem.DocumentID(),
				Text:     texts[start+j],
				FilePath: fa.FilePath,
				Kind:     string(elem.Kind),
				Metadata: map[string]string{
					"name":          elem.Name,
					"kind":          string(elem.Kind),
					"file":          fa.FilePath,
					"line":          strconv.Itoa(elem.Line),
					"complexity":    strconv.Itoa(elem.Complexity),
					"has_docstring": strconv.FormatBool(elem.Docstring != ""),
				},
				Vector:   emb.Vector,
				Provider: emb.Provider,
				Model:    emb.Model,
			})
		}
	}

	return docs, nil
}

// overviewText renders the file-overview embedding text
func overviewText(fa *types.FileAnalysis) string {
	var b strings.Builder
	b.WriteString(fa.Purpose)
	if len(fa.Imports) > 0 {
		b.WriteString("\nimports: ")
		b.WriteString(strings.Join(fa.Imports, ", "))
	}
	return b.String()
}

// elementText renders the per-element embedding text
func elementText(e *types.CodeElement) string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Name)
	if e.Docstring != "" {
		b.WriteString("\n")
		b.WriteString(e.Docstring)
	}
	if len(e.Dependencies) > 0 {
		b.WriteString("\ndependencies: ")
		b.WriteString(strings.Join(e.Dependencies, ", "))
	}
	if len(e.Decorators) > 0 {
		b.WriteString("\ndecorators: ")
		b.WriteString(strings.Join(e.Decorators, ", "))
	}
	return b.String()
}

// rewriteQuery prepends the intent's bias terms to the raw query
func rewriteQuery(query string, intent types.Intent) string {
	prefix, ok := intentPrefixes[intent]
	if !ok || prefix == "" {
		return query
	}
	return prefix + " " + query
}

// buildResults converts store hits into ranked search results with a
// deterministic order: similarity descending, then ID
func buildResults(hits []vectorstore.QueryResult) []types.SearchResult {
	results := make([]types.SearchResult, 0, len(hits))
	for _, hit := range hits {
		metadata := make(map[string]any, len(hit.Document.Metadata))
		for k, v := range hit.Document.Metadata {
			metadata[k] = v
		}
		results = append(results, types.SearchResult{
			ID:         hit.Document.ID,
			Metadata:   metadata,
			Similarity: hit.Similarity(),
			Snippet:    snippet(hit.Document.Text),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})

	return results
}

func snippet(text string) string {
	if len(text) <= snippetLength {
		return text
	}
	return text[:snippetLength]
}

func errorResponse(msg string) *types.SearchResponse {
	return &types.SearchResponse{
		Status:  types.SearchError,
		Results: []types.SearchResult{},
		Err:     msg,
	}
}

// requestHash computes a stable cache key for a search request
func requestHash(req SearchRequest) [32]byte {
	var b strings.Builder
	b.WriteString(req.Query)
	b.WriteString("|")
	b.WriteString(string(req.Intent))
	b.WriteString("|")
	b.WriteString(strings.Join(req.Kinds, ","))
	b.WriteString("|")
	b.WriteString(strconv.Itoa(req.Limit))
	return sha256.Sum256([]byte(b.String()))
}

// checkCache returns a copy of a cached response if it is from the current
// index generation
func (ix *Indexer) checkCache(key [32]byte) *types.SearchResponse {
	ix.cacheMu.RLock()
	defer ix.cacheMu.RUnlock()

	entry, found := ix.cache.Get(key)
	if !found || entry.generation != ix.generation.Load() {
		return nil
	}
	return copyResponse(entry.response)
}

// storeInCache saves a response tagged with the current generation
func (ix *Indexer) storeInCache(key [32]byte, response *types.SearchResponse) {
	ix.cacheMu.Lock()
	defer ix.cacheMu.Unlock()

	ix.cache.Add(key, &cacheEntry{
		response:   copyResponse(response),
		generation: ix.generation.Load(),
	})
}

// copyResponse deep-copies a response so callers can't mutate cached state
func copyResponse(src *types.SearchResponse) *types.SearchResponse {
	dst := &types.SearchResponse{
		Status:  src.Status,
		Err:     src.Err,
		Results: make([]types.SearchResult, len(src.Results)),
	}
	for i, r := range src.Results {
		metadata := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			metadata[k] = v
		}
		dst.Results[i] = types.SearchResult{
			ID:         r.ID,
			Metadata:   metadata,
			Similarity: r.Similarity,
			Snippet:    r.Snippet,
		}
	}
	return dst
}

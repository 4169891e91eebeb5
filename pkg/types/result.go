package types

// Intent selects the query-rewrite prefix and target collection for a search
type Intent string

const (
	IntentGeneral                Intent = "general"
	IntentFindSimilar            Intent = "find-similar"
	IntentUnderstandDependencies Intent = "understand-dependencies"
	IntentCheckPatterns          Intent = "check-patterns"
	IntentFindFile               Intent = "find-file"
	IntentUnderstandArchitecture Intent = "understand-architecture"
)

// TargetsFiles reports whether the intent implies file/architecture discovery
// and should therefore search the file-overview collection.
func (i Intent) TargetsFiles() bool {
	return i == IntentFindFile || i == IntentUnderstandArchitecture
}

// SearchResult is a single ranked hit from semantic search
type SearchResult struct {
	ID         string
	Metadata   map[string]any
	Similarity float64 // 1 - cosine distance
	Snippet    string  // indexed document text
}

// SearchStatus reports the outcome of a search call
type SearchStatus string

const (
	SearchOK    SearchStatus = "ok"
	SearchError SearchStatus = "error"
)

// SearchResponse wraps a ranked result list. A failed query after
// initialization yields Status == SearchError with empty Results rather than
// an error raised past the caller.
type SearchResponse struct {
	Status  SearchStatus
	Results []SearchResult
	Err     string // populated when Status == SearchError
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.ID == "" {
		return ErrInvalidResultID
	}
	if sr.Similarity < -1 || sr.Similarity > 1 {
		return ErrInvalidSimilarity
	}
	return nil
}

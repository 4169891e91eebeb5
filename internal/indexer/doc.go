// Package indexer maintains the semantic index and answers queries over it.
//
// Each analyzed file produces one file-overview document (ID = file path)
// and one document per extracted element (ID = "path::name::line"). Document
// text is built from the analysis rather than raw source, so the index stays
// small and embeddings capture structure.
//
// # Indexing
//
//	ix := indexer.New(store, emb)
//	if err := ix.Index(ctx, analysis); err != nil {
//	    log.Printf("index %s: %v", analysis.FilePath, err)
//	}
//
// Indexing is idempotent: re-indexing an unchanged file rewrites the same
// document IDs with the same content.
//
// # Searching
//
// Queries carry an intent that biases the embedding and selects the target
// collection:
//
//	resp := ix.Search(ctx, indexer.SearchRequest{
//	    Query:  "user authentication",
//	    Intent: types.IntentFindSimilar,
//	    Limit:  10,
//	})
//	if resp.Status == types.SearchError {
//	    // resp.Err describes the failure; Results is empty
//	}
//
// find-file and understand-architecture intents search file overviews;
// everything else searches elements. Results are ordered by similarity
// descending with ID as tiebreaker, so identical queries against an
// unchanged index return identical orderings.
//
// Responses are cached in an LRU keyed by request hash; any Index or Remove
// call bumps a generation counter that invalidates all cached entries.
package indexer

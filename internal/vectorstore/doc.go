// Package vectorstore provides SQLite-based persistence for embedded documents.
//
// The store manages two collections:
//   - file_overviews: one document per analyzed source file, keyed by file path
//   - code_elements: one document per extracted element, keyed by "path::name::line"
//
// # Basic Usage
//
//	store, err := vectorstore.NewSQLiteStore("~/.codeatlas/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.Upsert(ctx, vectorstore.CollectionCodeElements, &vectorstore.Document{
//	    ID:       "internal/auth/login.go::Login::42",
//	    Text:     "function: Login authenticates a user session",
//	    FilePath: "internal/auth/login.go",
//	    Kind:     "function",
//	    Vector:   embedding.Vector,
//	})
//
// # Querying
//
// Query returns nearest documents by cosine distance, best first:
//
//	results, err := store.Query(ctx, vectorstore.CollectionCodeElements,
//	    queryVector, 10, &vectorstore.Filter{Kinds: []string{"function"}})
//	for _, r := range results {
//	    fmt.Printf("%s: similarity %.3f\n", r.Document.ID, r.Similarity())
//	}
//
// Documents whose dimension differs from the query vector are excluded from
// candidates, so indexes written by different embedding models coexist safely.
//
// # Incremental Updates
//
// Re-analyzing a file replaces all of its documents:
//
//	_ = store.DeleteByFile(ctx, vectorstore.CollectionCodeElements, path)
//	_ = store.UpsertBatch(ctx, vectorstore.CollectionCodeElements, docs)
//
// # Build Tags
//
// Two build configurations are supported:
//
// CGO build (sqlite_vec tag) uses github.com/mattn/go-sqlite3 with the
// sqlite-vec extension, computing cosine distance in SQL:
//
//	CGO_ENABLED=1 go build -tags "sqlite_vec"
//
// Pure Go build (default) uses modernc.org/sqlite and computes distance
// in Go. No C compiler needed:
//
//	CGO_ENABLED=0 go build -tags "purego"
package vectorstore

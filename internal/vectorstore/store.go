package vectorstore

import (
	"context"
	"errors"
	"time"
)

// Collection names. File overview documents use the file path as their ID;
// element documents use "path::name::line".
const (
	CollectionFileOverviews = "file_overviews"
	CollectionCodeElements  = "code_elements"
)

var (
	// ErrNotFound is returned when a requested document doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrUnknownCollection is returned for a collection name the store doesn't manage
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrDimensionMismatch is returned when a query vector's dimension differs from stored vectors
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Store defines the interface for persisting and querying embedded documents
type Store interface {
	// Upsert inserts or replaces a document in a collection
	Upsert(ctx context.Context, collection string, doc *Document) error

	// UpsertBatch inserts or replaces multiple documents atomically
	UpsertBatch(ctx context.Context, collection string, docs []*Document) error

	// Get retrieves a document by ID
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Query returns the documents nearest to the query vector, best first
	Query(ctx context.Context, collection string, vector []float32, limit int, filter *Filter) ([]QueryResult, error)

	// Delete removes a document by ID. Missing documents are not an error.
	Delete(ctx context.Context, collection, id string) error

	// DeleteByFile removes all documents belonging to a source file
	DeleteByFile(ctx context.Context, collection, filePath string) error

	// ListByFile returns all documents belonging to a source file
	ListByFile(ctx context.Context, collection, filePath string) ([]*Document, error)

	// List returns all documents in a collection matching the filter,
	// ordered by ID. A nil filter returns the whole collection.
	List(ctx context.Context, collection string, filter *Filter) ([]*Document, error)

	// Count returns the number of documents in a collection
	Count(ctx context.Context, collection string) (int, error)

	// Close releases the underlying database
	Close() error
}

// Document is an embedded record in a collection
type Document struct {
	ID        string
	Text      string            // Text the vector was computed from
	Metadata  map[string]string // Flat metadata, stored as JSON
	FilePath  string            // Owning source file
	Kind      string            // Element kind, empty for file overviews
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	UpdatedAt time.Time
}

// Filter narrows query candidates before similarity ranking
type Filter struct {
	FilePath string   // Exact source file match
	Kinds    []string // Element kinds to include
}

// QueryResult pairs a document with its distance from the query vector.
// Distance is cosine distance; similarity is 1 - distance.
type QueryResult struct {
	Document *Document
	Distance float64
}

// Similarity converts the result's distance to a similarity score
func (r QueryResult) Similarity() float64 {
	return 1.0 - r.Distance
}

// ValidCollection reports whether the store manages the named collection
func ValidCollection(name string) bool {
	return name == CollectionFileOverviews || name == CollectionCodeElements
}

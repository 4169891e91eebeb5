package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func checkCollection(collection string) error {
	if !ValidCollection(collection) {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return nil
}

// upsertWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) upsertWithQuerier(ctx context.Context, q querier, collection string, doc *Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, text, metadata, file_path, kind,
			vector, dimension, provider, model, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			text = excluded.text,
			metadata = excluded.metadata,
			file_path = excluded.file_path,
			kind = excluded.kind,
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	_, err = q.ExecContext(ctx, query,
		collection, doc.ID, doc.Text, string(metadata), doc.FilePath, doc.Kind,
		serializeVector(doc.Vector), len(doc.Vector), doc.Provider, doc.Model, now)
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
	}

	doc.Dimension = len(doc.Vector)
	doc.UpdatedAt = now
	return nil
}

// Upsert inserts or replaces a document
func (s *SQLiteStore) Upsert(ctx context.Context, collection string, doc *Document) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	return s.upsertWithQuerier(ctx, s.db, collection, doc)
}

// UpsertBatch inserts or replaces multiple documents in one transaction
func (s *SQLiteStore) UpsertBatch(ctx context.Context, collection string, docs []*Document) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, doc := range docs {
		if err := s.upsertWithQuerier(ctx, tx, collection, doc); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const documentColumns = `id, text, metadata, file_path, kind, vector, dimension, provider, model, updated_at`

func scanDocument(row interface{ Scan(...interface{}) error }) (*Document, error) {
	var doc Document
	var metadata string
	var vectorBlob []byte

	err := row.Scan(&doc.ID, &doc.Text, &metadata, &doc.FilePath, &doc.Kind,
		&vectorBlob, &doc.Dimension, &doc.Provider, &doc.Model, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	doc.Vector = deserializeVector(vectorBlob)
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", doc.ID, err)
		}
	}
	return &doc, nil
}

// Get retrieves a document by ID
func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE collection = ? AND id = ?`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, collection, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Query returns the documents nearest to the query vector, best first
func (s *SQLiteStore) Query(ctx context.Context, collection string, vector []float32, limit int, filter *Filter) ([]QueryResult, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []QueryResult{}, nil
	}
	return queryVector(ctx, s.db, collection, vector, limit, filter)
}

// Delete removes a document by ID
func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	return err
}

// DeleteByFile removes all documents belonging to a source file
func (s *SQLiteStore) DeleteByFile(ctx context.Context, collection, filePath string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND file_path = ?`, collection, filePath)
	return err
}

// ListByFile returns all documents belonging to a source file
func (s *SQLiteStore) ListByFile(ctx context.Context, collection, filePath string) ([]*Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE collection = ? AND file_path = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, collection, filePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// List returns all documents in a collection matching the filter
func (s *SQLiteStore) List(ctx context.Context, collection string, filter *Filter) ([]*Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE collection = ?`
	args := []interface{}{collection}
	query, args = buildFilterClause(query, args, filter)
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Count returns the number of documents in a collection
func (s *SQLiteStore) Count(ctx context.Context, collection string) (int, error) {
	if err := checkCollection(collection); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&count)
	return count, err
}

// buildFilterClause appends candidate filters to a query
func buildFilterClause(query string, args []interface{}, filter *Filter) (string, []interface{}) {
	if filter == nil {
		return query, args
	}

	if filter.FilePath != "" {
		query += " AND file_path = ?"
		args = append(args, filter.FilePath)
	}

	if len(filter.Kinds) > 0 {
		placeholders := make([]string, len(filter.Kinds))
		for i, kind := range filter.Kinds {
			placeholders[i] = "?"
			args = append(args, kind)
		}
		query += " AND kind IN (" + strings.Join(placeholders, ",") + ")"
	}

	return query, args
}

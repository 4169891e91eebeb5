package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// queryVector performs nearest-neighbor search using cosine distance
func queryVector(ctx context.Context, db *sql.DB, collection string, vector []float32, limit int, filter *Filter) ([]QueryResult, error) {
	// Use SQL-based distance when sqlite-vec is available
	if VectorExtensionAvailable {
		return queryVectorOptimized(ctx, db, collection, vector, limit, filter)
	}
	// Fall back to Go-based computation for purego builds
	return queryVectorFallback(ctx, db, collection, vector, limit, filter)
}

// queryVectorOptimized uses the sqlite-vec extension to compute distance at the database layer
func queryVectorOptimized(ctx context.Context, db *sql.DB, collection string, vector []float32, limit int, filter *Filter) ([]QueryResult, error) {
	queryVectorBlob := serializeVector(vector)

	query := `
		SELECT ` + documentColumns + `,
			vec_distance_cosine(vector, ?) as distance
		FROM documents
		WHERE collection = ? AND dimension = ?
	`
	args := []interface{}{queryVectorBlob, collection, len(vector)}
	query, args = buildFilterClause(query, args, filter)

	query += " ORDER BY distance ASC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]QueryResult, 0, limit)
	for rows.Next() {
		var doc Document
		var metadata string
		var vectorBlob []byte
		var distance float64

		err := rows.Scan(&doc.ID, &doc.Text, &metadata, &doc.FilePath, &doc.Kind,
			&vectorBlob, &doc.Dimension, &doc.Provider, &doc.Model, &doc.UpdatedAt, &distance)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		doc.Vector = deserializeVector(vectorBlob)
		if err := decodeMetadata(&doc, metadata); err != nil {
			return nil, err
		}
		results = append(results, QueryResult{Document: &doc, Distance: distance})
	}

	return results, rows.Err()
}

// queryVectorFallback computes cosine distance in Go.
// Used when the sqlite-vec extension is not available (purego builds).
func queryVectorFallback(ctx context.Context, db *sql.DB, collection string, vector []float32, limit int, filter *Filter) ([]QueryResult, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE collection = ? AND dimension = ?`
	args := []interface{}{collection, len(vector)}
	query, args = buildFilterClause(query, args, filter)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]QueryResult, 0, 256)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		distance := 1.0 - cosineSimilarity(vector, doc.Vector)
		candidates = append(candidates, QueryResult{Document: doc, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Best first; break distance ties by ID for stable ordering
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].Document.ID < candidates[j].Document.ID
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}
	return candidates[:limit], nil
}

func decodeMetadata(doc *Document, metadata string) error {
	if metadata == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
		return fmt.Errorf("failed to decode metadata for %s: %w", doc.ID, err)
	}
	return nil
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SerializeVector is an exported helper for testing
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector is an exported helper for testing
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineSimilarity is an exported helper for testing
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}

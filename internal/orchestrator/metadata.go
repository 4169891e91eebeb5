package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is the persisted per-file analysis summary used for change detection
type Record struct {
	ContentHash  string    `json:"content_hash"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
	ElementCount int       `json:"element_count"`
	Purpose      string    `json:"purpose"`
}

// Metadata is a JSON-backed map of file path to analysis record. A missing or
// corrupt file starts empty rather than failing; the map is the recoverable
// cache, the vector store is the source of truth.
type Metadata struct {
	path string

	mu      sync.Mutex
	records map[string]Record
}

// LoadMetadata reads the metadata file at path, tolerating absence and corruption
func LoadMetadata(path string) *Metadata {
	m := &Metadata{
		path:    path,
		records: make(map[string]Record),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	if err := json.Unmarshal(data, &m.records); err != nil {
		m.records = make(map[string]Record)
	}
	return m
}

// Get returns the record for a file path
func (m *Metadata) Get(filePath string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[filePath]
	return rec, ok
}

// Put stores a record and persists the map
func (m *Metadata) Put(filePath string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[filePath] = rec
	return m.save()
}

// Delete removes a record and persists the map. Deleting an absent path is
// not an error.
func (m *Metadata) Delete(filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[filePath]; !ok {
		return nil
	}
	delete(m.records, filePath)
	return m.save()
}

// Len returns the number of tracked files
func (m *Metadata) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Paths returns all tracked file paths
func (m *Metadata) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.records))
	for p := range m.records {
		out = append(out, p)
	}
	return out
}

// save writes the map to disk; callers hold the mutex
func (m *Metadata) save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	data, err := json.MarshalIndent(m.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

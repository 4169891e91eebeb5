package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the per-project configuration file looked up at the project root
const FileName = "codeatlas.yml"

const (
	// DefaultDebounce is the quiet period before a changed file is reindexed
	DefaultDebounce = 2 * time.Second
	// DefaultWorkers is the worker-pool width for parallel project indexing
	DefaultWorkers = 4
	// DefaultDatabasePath is the index location relative to the project root
	DefaultDatabasePath = ".codeatlas/index.db"
	// DefaultMetadataPath is the analysis-metadata location relative to the project root
	DefaultMetadataPath = ".codeatlas/metadata.json"
)

// DefaultIgnorePatterns are path segments skipped during enumeration and
// watching. Matched per segment, so "node_modules" prunes at any depth.
var DefaultIgnorePatterns = []string{
	".git",
	".codeatlas",
	"__pycache__",
	"node_modules",
	"venv",
	".venv",
	"migrations",
	"dist",
	"build",
	"vendor",
}

// Config holds project-level settings. Collaborator endpoints and keys stay
// in environment variables; this file only shapes what gets indexed and how.
type Config struct {
	IgnorePatterns  []string `yaml:"ignore_patterns"`
	DebounceSeconds float64  `yaml:"debounce_seconds"`
	Workers         int      `yaml:"workers"`
	DatabasePath    string   `yaml:"database_path"`
	MetadataPath    string   `yaml:"metadata_path"`
	EnhanceWithLLM  bool     `yaml:"enhance_with_llm"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		IgnorePatterns:  append([]string(nil), DefaultIgnorePatterns...),
		DebounceSeconds: DefaultDebounce.Seconds(),
		Workers:         DefaultWorkers,
		DatabasePath:    DefaultDatabasePath,
		MetadataPath:    DefaultMetadataPath,
		EnhanceWithLLM:  true,
	}
}

// Debounce returns the debounce window as a duration
func (c *Config) Debounce() time.Duration {
	if c.DebounceSeconds <= 0 {
		return DefaultDebounce
	}
	return time.Duration(c.DebounceSeconds * float64(time.Second))
}

// Validate rejects settings the runtime cannot honor
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.DebounceSeconds < 0 {
		return errors.New("debounce_seconds must not be negative")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path must not be empty")
	}
	if c.MetadataPath == "" {
		return errors.New("metadata_path must not be empty")
	}
	return nil
}

// Load reads codeatlas.yml from the project root. A missing file yields the
// defaults; an unreadable or invalid file is an error the caller must treat
// as fatal, never a silent fallback.
func Load(projectRoot string) (*Config, error) {
	path := filepath.Join(projectRoot, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolvePaths anchors the database and metadata paths at the project root
// when they are relative.
func (c *Config) ResolvePaths(projectRoot string) {
	if !filepath.IsAbs(c.DatabasePath) {
		c.DatabasePath = filepath.Join(projectRoot, c.DatabasePath)
	}
	if !filepath.IsAbs(c.MetadataPath) {
		c.MetadataPath = filepath.Join(projectRoot, c.MetadataPath)
	}
}

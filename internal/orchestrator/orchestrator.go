package orchestrator

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmaring/codeatlas-mcp/internal/analyzer"
	"github.com/dmaring/codeatlas-mcp/pkg/types"
)

// Indexer is the semantic index the orchestrator writes analyses into
type Indexer interface {
	Index(ctx context.Context, fa *types.FileAnalysis) error
	Remove(ctx context.Context, filePath string) error
}

// Enhancer annotates an analysis in place; implementations never fail the run
type Enhancer interface {
	Enhance(ctx context.Context, fa *types.FileAnalysis, content []byte)
}

// Stats summarizes one ProcessProject run
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesFailed    int
	Duration       time.Duration
	ErrorMessages  []string
}

// Orchestrator drives the analyze -> enhance -> index pipeline and decides,
// per file, whether any work is needed at all.
type Orchestrator struct {
	registry *analyzer.Registry
	enhancer Enhancer
	indexer  Indexer
	meta     *Metadata

	ignorePatterns []string
	workers        int
}

// Config wires the orchestrator's collaborators and policy
type Config struct {
	Registry       *analyzer.Registry
	Enhancer       Enhancer // optional
	Indexer        Indexer
	Metadata       *Metadata
	IgnorePatterns []string
	Workers        int // defaults to runtime.NumCPU()
}

// New creates an orchestrator
func New(cfg Config) *Orchestrator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = analyzer.Default()
	}
	return &Orchestrator{
		registry:       registry,
		enhancer:       cfg.Enhancer,
		indexer:        cfg.Indexer,
		meta:           cfg.Metadata,
		ignorePatterns: cfg.IgnorePatterns,
		workers:        workers,
	}
}

// TrackedFiles returns every file path with a metadata record
func (o *Orchestrator) TrackedFiles() []string {
	return o.meta.Paths()
}

// Record returns the metadata record for a file path
func (o *Orchestrator) Record(path string) (Record, bool) {
	return o.meta.Get(path)
}

// Registry returns the analyzer registry in use
func (o *Orchestrator) Registry() *analyzer.Registry {
	return o.registry
}

// ShouldProcess reports whether a file needs (re)analysis: a supported
// extension, no ignored path segment, and a content hash differing from the
// recorded one. An unreadable file returns false; the watcher delivers
// another event when it becomes readable.
func (o *Orchestrator) ShouldProcess(path string) bool {
	if !o.registry.Supports(path) {
		return false
	}
	if o.ignored(path) {
		return false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.Printf("skipping unreadable file %s: %v", path, err)
		return false
	}
	if rec, ok := o.meta.Get(path); ok && rec.ContentHash == types.HashContent(content) {
		return false
	}
	return true
}

// ignored reports whether any path segment matches an ignore pattern.
// Patterns match a segment exactly, as a prefix when ending in "*", or as a
// filepath glob.
func (o *Orchestrator) ignored(path string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == "" {
			continue
		}
		for _, pattern := range o.ignorePatterns {
			if segment == pattern {
				return true
			}
			if strings.HasSuffix(pattern, "*") && strings.HasPrefix(segment, strings.TrimSuffix(pattern, "*")) {
				return true
			}
			if ok, err := filepath.Match(pattern, segment); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// ProcessFile runs the full pipeline for one file. A file that does not need
// processing returns (nil, nil). Analysis and indexing errors are returned to
// the caller; they are recoverable and never abort a surrounding run.
func (o *Orchestrator) ProcessFile(ctx context.Context, path string) (*types.FileAnalysis, error) {
	if !o.ShouldProcess(path) {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrUnreadable, path, err)
	}

	a := o.registry.For(path)
	if a == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupported, filepath.Ext(path))
	}
	fa, err := a.Analyze(path, content)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}

	if o.enhancer != nil {
		o.enhancer.Enhance(ctx, fa, content)
	}

	if err := o.indexer.Index(ctx, fa); err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}

	rec := Record{
		ContentHash:  fa.ContentHash,
		AnalyzedAt:   fa.AnalyzedAt,
		ElementCount: len(fa.Elements),
		Purpose:      fa.Purpose,
	}
	if err := o.meta.Put(path, rec); err != nil {
		// the index write already succeeded; the next run redoes this file
		log.Printf("metadata write failed for %s: %v", path, err)
	}

	return fa, nil
}

// RemoveFile drops a deleted file's metadata record and all of its documents
func (o *Orchestrator) RemoveFile(ctx context.Context, path string) error {
	if err := o.indexer.Remove(ctx, path); err != nil {
		return fmt.Errorf("remove %s from index: %w", path, err)
	}
	if err := o.meta.Delete(path); err != nil {
		return fmt.Errorf("remove %s metadata: %w", path, err)
	}
	return nil
}

// ProcessProject enumerates and processes all supported files under the given
// directories. Parallel mode fans files out over the worker pool; sequential
// mode preserves enumeration order. Per-file failures are recorded in Stats,
// never propagated.
func (o *Orchestrator) ProcessProject(ctx context.Context, dirs []string, parallel bool) (*Stats, error) {
	start := time.Now()
	stats := &Stats{ErrorMessages: make([]string, 0)}

	files, err := o.enumerate(dirs)
	if err != nil {
		return nil, fmt.Errorf("enumerate project files: %w", err)
	}

	if parallel {
		err = o.processParallel(ctx, files, stats)
	} else {
		err = o.processSequential(ctx, files, stats)
	}
	if err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// enumerate walks the directories, pruning ignored ones, and returns every
// file with a supported extension in walk order.
func (o *Orchestrator) enumerate(dirs []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})

	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != dir && o.ignoredSegment(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !o.registry.Supports(path) || o.ignoredSegment(d.Name()) {
				return nil
			}
			if _, ok := seen[path]; ok {
				return nil
			}
			seen[path] = struct{}{}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// ignoredSegment tests one path segment against the ignore patterns
func (o *Orchestrator) ignoredSegment(name string) bool {
	for _, pattern := range o.ignorePatterns {
		if name == pattern {
			return true
		}
		if strings.HasSuffix(pattern, "*") && strings.HasPrefix(name, strings.TrimSuffix(pattern, "*")) {
			return true
		}
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
)

// processOne runs ProcessFile and classifies the result; the failure message
// is empty unless the outcome is outcomeFailed.
func (o *Orchestrator) processOne(ctx context.Context, path string) (outcome, string) {
	fa, err := o.ProcessFile(ctx, path)
	switch {
	case err != nil:
		log.Printf("processing failed for %s: %v", path, err)
		return outcomeFailed, fmt.Sprintf("%s: %v", path, err)
	case fa == nil:
		return outcomeSkipped, ""
	default:
		return outcomeProcessed, ""
	}
}

func (o *Orchestrator) processSequential(ctx context.Context, files []string, stats *Stats) error {
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch result, msg := o.processOne(ctx, path); result {
		case outcomeProcessed:
			stats.FilesProcessed++
		case outcomeSkipped:
			stats.FilesSkipped++
		case outcomeFailed:
			stats.FilesFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, msg)
		}
	}
	return nil
}

func (o *Orchestrator) processParallel(ctx context.Context, files []string, stats *Stats) error {
	semaphore := make(chan struct{}, o.workers)

	var processed, skipped, failed int32
	var mu sync.Mutex
	errorMessages := make([]string, 0)

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			switch result, msg := o.processOne(gctx, path); result {
			case outcomeProcessed:
				atomic.AddInt32(&processed, 1)
			case outcomeSkipped:
				atomic.AddInt32(&skipped, 1)
			case outcomeFailed:
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				errorMessages = append(errorMessages, msg)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stats.FilesProcessed = int(processed)
	stats.FilesSkipped = int(skipped)
	stats.FilesFailed = int(failed)
	stats.ErrorMessages = errorMessages
	return nil
}

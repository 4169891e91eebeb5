package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmaring/codeatlas-mcp/pkg/types"
)

// Analyzer converts one file's text into a structured FileAnalysis. Each
// implementation covers a dialect family; the orchestrator selects one by
// file extension, never by type inspection.
type Analyzer interface {
	// Analyze parses content and extracts all element declarations,
	// imports, exports, and framework records. The returned analysis
	// always carries a content hash over the raw bytes.
	Analyze(filePath string, content []byte) (*types.FileAnalysis, error)

	// Extensions returns the file extensions this analyzer handles,
	// including the leading dot.
	Extensions() []string
}

// Registry maps file extensions to analyzer implementations
type Registry struct {
	byExt map[string]Analyzer
}

// NewRegistry creates a registry covering the given analyzers
func NewRegistry(analyzers ...Analyzer) *Registry {
	r := &Registry{byExt: make(map[string]Analyzer)}
	for _, a := range analyzers {
		for _, ext := range a.Extensions() {
			r.byExt[ext] = a
		}
	}
	return r
}

// Default returns a registry with the grammar-based Go analyzer and the
// pattern-based analyzer for Python and JavaScript/TypeScript.
func Default() *Registry {
	return NewRegistry(NewGoAnalyzer(), NewLexicalAnalyzer())
}

// For returns the analyzer responsible for a path, or nil if the extension
// is unsupported.
func (r *Registry) For(path string) Analyzer {
	return r.byExt[filepath.Ext(path)]
}

// Supports reports whether any analyzer handles the path's extension
func (r *Registry) Supports(path string) bool {
	return r.For(path) != nil
}

// Extensions returns all supported extensions in sorted order
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// AnalyzeFile reads a file from disk and dispatches to the matching analyzer.
// An unreadable file yields an error wrapping types.ErrUnreadable; an
// unsupported extension yields types.ErrUnsupported.
func (r *Registry) AnalyzeFile(path string) (*types.FileAnalysis, error) {
	a := r.For(path)
	if a == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupported, filepath.Ext(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrUnreadable, path, err)
	}

	return a.Analyze(path, content)
}

// dedupe returns values with duplicates removed, sorted for stable output
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// firstLine returns the first non-empty line of s, trimmed
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

package analyzer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmaring/codeatlas-mcp/pkg/types"
)

// InferPurpose derives a one-sentence purpose for a file. Rules apply
// first-match-wins: routes, then models, then filename conventions, then
// declaration counts, then a generic fallback.
func InferPurpose(filePath, dialect string, fa *types.FileAnalysis) string {
	if n := len(fa.RouteRecords()); n > 0 {
		return fmt.Sprintf("API endpoint definitions with %d routes", n)
	}
	if n := len(fa.ModelRecords()); n > 0 {
		return fmt.Sprintf("Data models with %d model definitions", n)
	}

	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath)))
	switch {
	case strings.HasPrefix(stem, "test_") || strings.HasSuffix(stem, "_test") ||
		strings.Contains(stem, ".test") || strings.Contains(stem, ".spec"):
		return "Test suite for unit/integration testing"
	case strings.Contains(stem, "config") || strings.Contains(stem, "settings"):
		return "Configuration and settings management"
	case strings.Contains(stem, "util") || strings.Contains(stem, "helper"):
		return "Utility functions and helper methods"
	}

	if len(fa.Elements) > 0 {
		classes, funcs := 0, 0
		for _, e := range fa.Elements {
			switch e.Kind {
			case types.KindClass:
				classes++
			case types.KindFunction:
				funcs++
			}
		}
		return fmt.Sprintf("Module with %d classes and %d functions", classes, funcs)
	}

	return dialect + " module"
}

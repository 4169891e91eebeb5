package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dmaring/codeatlas-mcp/internal/indexer"
	"github.com/dmaring/codeatlas-mcp/internal/vectorstore"
	"github.com/dmaring/codeatlas-mcp/pkg/types"
)

// routeEntry is one HTTP route in the list_routes response
type routeEntry struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler"`
	File    string `json:"file"`
	Line    int    `json:"line"`
}

// modelEntry is one schema/model declaration in the list_models response
type modelEntry struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Fields int    `json:"fields"`
	File   string `json:"file"`
	Line   int    `json:"line"`
}

// handleIndexProject handles the index_project tool invocation
func (s *Server) handleIndexProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	path := getStringDefault(args, "path", s.projectRoot)
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.projectRoot, path)
	}
	parallel := getBoolDefault(args, "parallel", true)

	stats, err := s.orch.ProcessProject(ctx, []string{path}, parallel)
	if err != nil {
		return errorResult(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	s.invalidateCaches()

	response := map[string]interface{}{
		"status":          "success",
		"path":            path,
		"files_processed": stats.FilesProcessed,
		"files_skipped":   stats.FilesSkipped,
		"files_failed":    stats.FilesFailed,
		"duration_ms":     stats.Duration.Milliseconds(),
	}
	if len(stats.ErrorMessages) > 0 {
		response["error_count"] = len(stats.ErrorMessages)
		if len(stats.ErrorMessages) > 5 {
			response["errors"] = stats.ErrorMessages[:5]
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	query := getStringDefault(args, "query", "")
	if query == "" {
		return errorResult("query parameter is required and cannot be empty"), nil
	}

	intent := types.Intent(getStringDefault(args, "intent", string(types.IntentGeneral)))
	limit := getIntDefault(args, "limit", indexer.DefaultLimit)
	kinds := getStringSlice(args, "types")

	resp := s.indexer.Search(ctx, indexer.SearchRequest{
		Query:  query,
		Intent: intent,
		Kinds:  kinds,
		Limit:  limit,
	})
	if resp.Status != types.SearchOK {
		return errorResult(resp.Err), nil
	}

	formatted := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		formatted = append(formatted, map[string]interface{}{
			"file":      metaString(r.Metadata, "file", r.ID),
			"type":      metaString(r.Metadata, "kind", "file"),
			"name":      metaString(r.Metadata, "name", ""),
			"line":      metaInt(r.Metadata, "line"),
			"relevance": r.Similarity,
			"snippet":   r.Snippet,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"status":        "success",
		"query":         query,
		"intent":        string(intent),
		"results_count": len(formatted),
		"results":       formatted,
	})), nil
}

// handleFindSimilarCode handles the find_similar_code tool invocation
func (s *Server) handleFindSimilarCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	description := getStringDefault(args, "description", "")
	if description == "" {
		return errorResult("description parameter is required and cannot be empty"), nil
	}
	limit := getIntDefault(args, "limit", 5)

	resp := s.indexer.FindSimilar(ctx, description, limit)
	if resp.Status != types.SearchOK {
		return errorResult(resp.Err), nil
	}

	similar := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		similar = append(similar, map[string]interface{}{
			"name":       metaString(r.Metadata, "name", ""),
			"type":       metaString(r.Metadata, "kind", "unknown"),
			"file":       metaString(r.Metadata, "file", ""),
			"line":       metaInt(r.Metadata, "line"),
			"complexity": metaInt(r.Metadata, "complexity"),
			"has_docs":   metaString(r.Metadata, "has_docstring", "false") == "true",
			"similarity": r.Similarity,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"status":                  "success",
		"description":             description,
		"found":                   len(similar),
		"similar_implementations": similar,
	})), nil
}

// handleCheckDependencies handles the check_dependencies tool invocation
func (s *Server) handleCheckDependencies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	target := getStringDefault(args, "target", "")
	if target == "" {
		return errorResult("target parameter is required and cannot be empty"), nil
	}

	resp := s.indexer.Dependents(ctx, target, indexer.MaxLimit)
	if resp.Status != types.SearchOK {
		return errorResult(resp.Err), nil
	}

	byFile := make(map[string][]map[string]interface{})
	for _, r := range resp.Results {
		file := metaString(r.Metadata, "file", "unknown")
		byFile[file] = append(byFile[file], map[string]interface{}{
			"element": metaString(r.Metadata, "name", ""),
			"type":    metaString(r.Metadata, "kind", ""),
			"line":    metaInt(r.Metadata, "line"),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"status":         "success",
		"target":         target,
		"files_affected": len(byFile),
		"dependencies":   byFile,
	})), nil
}

// patternEntry is one suggested implementation in the suggest_patterns response
type patternEntry struct {
	Pattern string `json:"pattern"`
	Type    string `json:"type"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Example string `json:"example"`
}

// handleSuggestPatterns handles the suggest_patterns tool invocation
func (s *Server) handleSuggestPatterns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	taskContext := getStringDefault(args, "context", "")
	if taskContext == "" {
		return errorResult("context parameter is required and cannot be empty"), nil
	}

	resp := s.indexer.Search(ctx, indexer.SearchRequest{
		Query:  taskContext,
		Intent: types.IntentCheckPatterns,
		Limit:  10,
	})
	if resp.Status != types.SearchOK {
		return errorResult(resp.Err), nil
	}

	seen := make(map[string]bool)
	patterns := make([]patternEntry, 0, len(resp.Results))
	for _, r := range resp.Results {
		name := metaString(r.Metadata, "name", "")
		kind := metaString(r.Metadata, "kind", "")
		key := kind + ":" + name
		if seen[key] {
			continue
		}
		seen[key] = true
		example := r.Snippet
		if len(example) > 150 {
			example = example[:150]
		}
		patterns = append(patterns, patternEntry{
			Pattern: name,
			Type:    kind,
			File:    metaString(r.Metadata, "file", r.ID),
			Line:    metaInt(r.Metadata, "line"),
			Example: example,
		})
	}
	recommendation := patternRecommendation(patterns, taskContext)
	if len(patterns) > 5 {
		patterns = patterns[:5]
	}

	// Files whose recorded purpose mentions the context hint at where the
	// new code belongs
	type purposeHint struct {
		File    string `json:"file"`
		Purpose string `json:"purpose"`
	}
	hints := make([]purposeHint, 0, 3)
	lower := strings.ToLower(taskContext)
	for _, path := range s.orch.TrackedFiles() {
		rec, ok := s.orch.Record(path)
		if !ok || !strings.Contains(strings.ToLower(rec.Purpose), lower) {
			continue
		}
		hints = append(hints, purposeHint{File: path, Purpose: rec.Purpose})
		if len(hints) == 3 {
			break
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"status":             "success",
		"context":            taskContext,
		"suggested_patterns": patterns,
		"architecture_hints": hints,
		"recommendation":     recommendation,
	})), nil
}

// patternRecommendation summarizes how to act on the suggested patterns
func patternRecommendation(patterns []patternEntry, taskContext string) string {
	if len(patterns) == 0 {
		return fmt.Sprintf("No existing patterns found for '%s'. Consider creating a new pattern.", taskContext)
	}

	kinds := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		kinds[p.Type] = true
	}
	switch {
	case kinds["class"]:
		return fmt.Sprintf("Found %d similar implementations. Consider extending existing classes or following the same structure.", len(patterns))
	case kinds["function"]:
		return fmt.Sprintf("Found %d similar functions. Reuse existing utilities or follow the same naming conventions.", len(patterns))
	default:
		return fmt.Sprintf("Found %d related patterns. Review these before implementing.", len(patterns))
	}
}

// handleGetFileContext handles the get_file_context tool invocation
func (s *Server) handleGetFileContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	path := getStringDefault(args, "file_path", "")
	if path == "" {
		return errorResult("file_path parameter is required"), nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.projectRoot, path)
	}

	fa, err := s.registry.AnalyzeFile(path)
	if err != nil {
		return errorResult(fmt.Sprintf("could not analyze file: %v", err)), nil
	}

	elements := make([]map[string]interface{}, 0, len(fa.Elements))
	for _, e := range fa.Elements {
		elements = append(elements, map[string]interface{}{
			"name":       e.Name,
			"type":       string(e.Kind),
			"line":       e.Line,
			"complexity": e.Complexity,
			"exported":   e.Exported,
		})
	}

	response := map[string]interface{}{
		"status":         "success",
		"file_path":      path,
		"purpose":        fa.Purpose,
		"framework":      fa.Framework,
		"elements_count": len(fa.Elements),
		"elements":       elements,
		"imports":        fa.Imports,
	}
	if rec, ok := s.orch.Record(path); ok {
		response["last_analyzed"] = rec.AnalyzedAt.Format(time.RFC3339)
		if rec.Purpose != "" {
			response["purpose"] = rec.Purpose
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListRoutes handles the list_routes tool invocation
func (s *Server) handleListRoutes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	routes, _, err := s.cachedRecords()
	if err != nil {
		return errorResult(err.Error()), nil
	}

	byFile := make(map[string][]routeEntry)
	methods := make(map[string]int)
	for _, r := range routes {
		byFile[r.File] = append(byFile[r.File], r)
		methods[r.Method]++
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"status":         "success",
		"total_routes":   len(routes),
		"methods":        methods,
		"routes_by_file": byFile,
	})), nil
}

// handleListModels handles the list_models tool invocation
func (s *Server) handleListModels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, models, err := s.cachedRecords()
	if err != nil {
		return errorResult(err.Error()), nil
	}

	byType := make(map[string][]modelEntry)
	for _, m := range models {
		byType[m.Type] = append(byType[m.Type], m)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"status":         "success",
		"total_models":   len(models),
		"models_by_type": byType,
		"all_models":     models,
	})), nil
}

// handleAnalyzeComplexity handles the analyze_complexity tool invocation
func (s *Server) handleAnalyzeComplexity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	threshold := getIntDefault(args, "threshold", 10)

	docs, err := s.store.List(ctx, vectorstore.CollectionCodeElements, nil)
	if err != nil {
		return errorResult(fmt.Sprintf("could not scan elements: %v", err)), nil
	}

	type complexElement struct {
		Name             string `json:"name"`
		Type             string `json:"type"`
		File             string `json:"file"`
		Line             int    `json:"line"`
		Complexity       int    `json:"complexity"`
		NeedsRefactoring bool   `json:"needs_refactoring"`
	}

	var elements []complexElement
	for _, doc := range docs {
		complexity, _ := strconv.Atoi(doc.Metadata["complexity"])
		if complexity < threshold {
			continue
		}
		line, _ := strconv.Atoi(doc.Metadata["line"])
		elements = append(elements, complexElement{
			Name:             doc.Metadata["name"],
			Type:             doc.Metadata["kind"],
			File:             doc.FilePath,
			Line:             line,
			Complexity:       complexity,
			NeedsRefactoring: complexity > 15,
		})
	}

	sort.Slice(elements, func(i, j int) bool {
		if elements[i].Complexity != elements[j].Complexity {
			return elements[i].Complexity > elements[j].Complexity
		}
		return elements[i].Name < elements[j].Name
	})

	critical, high, medium := 0, 0, 0
	fileCounts := make(map[string]int)
	for _, e := range elements {
		switch {
		case e.Complexity > 20:
			critical++
		case e.Complexity > 15:
			high++
		default:
			medium++
		}
		fileCounts[e.File]++
	}

	var recommendations []string
	if critical > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("%d critical complexity functions need immediate refactoring", critical))
	}
	hotspots := 0
	for _, count := range fileCounts {
		if count > 3 {
			hotspots++
		}
	}
	if hotspots > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("%d files are complexity hotspots and need restructuring", hotspots))
	}

	top := elements
	if len(top) > 20 {
		top = top[:20]
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"status":                 "success",
		"threshold":              threshold,
		"total_complex_elements": len(elements),
		"statistics": map[string]interface{}{
			"critical": critical,
			"high":     high,
			"medium":   medium,
		},
		"complex_elements": top,
		"recommendations":  recommendations,
	})), nil
}

// cachedRecords rebuilds the route and model caches from tracked files when
// older than cacheTTL.
func (s *Server) cachedRecords() ([]routeEntry, []modelEntry, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if !s.cacheAt.IsZero() && time.Since(s.cacheAt) < cacheTTL {
		return s.routesCache, s.modelsCache, nil
	}

	routes := make([]routeEntry, 0)
	models := make([]modelEntry, 0)
	for _, path := range s.orch.TrackedFiles() {
		fa, err := s.registry.AnalyzeFile(path)
		if err != nil {
			continue
		}
		for _, rec := range fa.RouteRecords() {
			for _, method := range rec.Route.Methods {
				routes = append(routes, routeEntry{
					Method:  method,
					Path:    rec.Route.Path,
					Handler: rec.Route.Handler,
					File:    fa.FilePath,
					Line:    rec.Line,
				})
			}
		}
		for _, rec := range fa.ModelRecords() {
			models = append(models, modelEntry{
				Name:   rec.Name,
				Type:   rec.Model.Dialect,
				Fields: len(rec.Model.Fields),
				File:   fa.FilePath,
				Line:   rec.Line,
			})
		}
	}

	s.routesCache = routes
	s.modelsCache = models
	s.cacheAt = time.Now()
	return routes, models, nil
}

// invalidateCaches forces the next list_routes/list_models call to rescan
func (s *Server) invalidateCaches() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cacheAt = time.Time{}
}

// Helper functions

// arguments extracts the tool call arguments map
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

// errorResult renders a structured error payload as the tool result
func errorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"status": "error",
		"error":  msg,
	}))
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// metaString extracts a string metadata value with a fallback
func metaString(metadata map[string]any, key, fallback string) string {
	if v, ok := metadata[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// metaInt extracts an integer metadata value; values arrive as strings
func metaInt(metadata map[string]any, key string) int {
	if v, ok := metadata[key].(string); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

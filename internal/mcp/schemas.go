package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexProjectTool returns the tool definition for index_project
func indexProjectTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_project",
		Description: "Analyze and index a project's source files for semantic search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Project directory to index; defaults to the server's project root",
				},
				"parallel": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, process files concurrently over the worker pool",
					"default":     true,
				},
			},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search indexed code semantically with natural language queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Search intent, biases the query and selects the target collection",
					"enum": []string{
						"general", "find-similar", "understand-dependencies",
						"check-patterns", "find-file", "understand-architecture",
					},
					"default": "general",
				},
				"types": map[string]interface{}{
					"type":        "array",
					"description": "Filter by element kind",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"function", "class", "interface", "type-alias", "component"},
					},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// findSimilarCodeTool returns the tool definition for find_similar_code
func findSimilarCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_similar_code",
		Description: "Find code elements similar to a described piece of functionality",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Description of the functionality to find",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return",
					"default":     5,
				},
			},
			Required: []string{"description"},
		},
	}
}

// checkDependenciesTool returns the tool definition for check_dependencies
func checkDependenciesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "check_dependencies",
		Description: "Find code elements that depend on a named module, function, or class",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"target": map[string]interface{}{
					"type":        "string",
					"description": "Name of the module, function, or class to check",
				},
			},
			Required: []string{"target"},
		},
	}
}

// suggestPatternsTool returns the tool definition for suggest_patterns
func suggestPatternsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "suggest_patterns",
		Description: "Suggest existing implementation patterns from the indexed codebase for a described task",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"context": map[string]interface{}{
					"type":        "string",
					"description": "Description of what you want to implement",
				},
			},
			Required: []string{"context"},
		},
	}
}

// getFileContextTool returns the tool definition for get_file_context
func getFileContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_file_context",
		Description: "Get the structural analysis and indexing metadata for one file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the source file, absolute or relative to the project root",
				},
			},
			Required: []string{"file_path"},
		},
	}
}

// listRoutesTool returns the tool definition for list_routes
func listRoutesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_routes",
		Description: "List all HTTP routes detected across the indexed project",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// listModelsTool returns the tool definition for list_models
func listModelsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_models",
		Description: "List all database models and schemas detected across the indexed project",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// analyzeComplexityTool returns the tool definition for analyze_complexity
func analyzeComplexityTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_complexity",
		Description: "Find complex code elements that may need refactoring",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"threshold": map[string]interface{}{
					"type":        "integer",
					"description": "Minimum complexity score to report",
					"default":     10,
				},
			},
		},
	}
}

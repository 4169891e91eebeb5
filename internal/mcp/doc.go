// Package mcp implements the Model Context Protocol (MCP) server for CodeAtlas.
//
// The server exposes nine tools to AI coding assistants:
//   - index_project: analyze and index a project's source files
//   - search_code: semantic search with intent-based query rewriting
//   - find_similar_code: rank elements by similarity to a description
//   - check_dependencies: find elements depending on a named target
//   - suggest_patterns: existing implementations to follow for a described task
//   - get_file_context: structural analysis and metadata for one file
//   - list_routes: all detected HTTP routes, grouped by file
//   - list_models: all detected database models, grouped by dialect
//   - analyze_complexity: complexity scan over indexed elements
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport, so stdout carries
// protocol messages exclusively; all logging goes to stderr.
//
// Tool failures after initialization are reported as structured JSON payloads
// with a "status": "error" field rather than protocol errors, so assistants
// can inspect and recover from them.
package mcp

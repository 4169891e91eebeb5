package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaring/codeatlas-mcp/internal/embedder"
)

const apiFixture = `from flask import Flask

app = Flask(__name__)

@app.get("/users/{id}")
def get_user(id):
    """Fetch one user by ID."""
    return id

def helper(value):
    if value:
        if value > 1:
            return value
    return 0
`

const modelFixture = `from sqlalchemy import Column, Integer, String

class User(Base):
    id: int
    name: str
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv(embedder.EnvProvider, "local")

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "api.py"), []byte(apiFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "models.py"), []byte(modelFixture), 0o644))
	// disable llm enhancement so tests never probe a local server
	require.NoError(t, os.WriteFile(filepath.Join(root, "codeatlas.yml"), []byte("enhance_with_llm: false\n"), 0o644))

	s, err := NewServer(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.store.Close() })
	return s
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// decode parses the JSON text payload out of a tool result
func decode(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func indexFixtures(t *testing.T, s *Server) {
	t.Helper()
	result, err := s.handleIndexProject(context.Background(), call(nil))
	require.NoError(t, err)
	payload := decode(t, result)
	require.Equal(t, "success", payload["status"], "index response: %v", payload)
}

func TestIndexProject(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleIndexProject(context.Background(), call(nil))
	require.NoError(t, err)
	payload := decode(t, result)

	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, float64(2), payload["files_processed"])
	assert.Equal(t, float64(0), payload["files_failed"])

	// second run skips everything
	result, err = s.handleIndexProject(context.Background(), call(nil))
	require.NoError(t, err)
	payload = decode(t, result)
	assert.Equal(t, float64(0), payload["files_processed"])
	assert.Equal(t, float64(2), payload["files_skipped"])
}

func TestSearchCodeRequiresQuery(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleSearchCode(context.Background(), call(nil))
	require.NoError(t, err)
	payload := decode(t, result)
	assert.Equal(t, "error", payload["status"])
}

func TestSearchCodeReturnsResults(t *testing.T) {
	s := newTestServer(t)
	indexFixtures(t, s)

	result, err := s.handleSearchCode(context.Background(), call(map[string]interface{}{
		"query": "fetch user",
	}))
	require.NoError(t, err)
	payload := decode(t, result)

	assert.Equal(t, "success", payload["status"])
	results, ok := payload["results"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, results)
}

func TestFindSimilarCode(t *testing.T) {
	s := newTestServer(t)
	indexFixtures(t, s)

	result, err := s.handleFindSimilarCode(context.Background(), call(map[string]interface{}{
		"description": "function that fetches a user",
	}))
	require.NoError(t, err)
	payload := decode(t, result)

	assert.Equal(t, "success", payload["status"])
	assert.NotNil(t, payload["similar_implementations"])
}

func TestCheckDependenciesRequiresTarget(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleCheckDependencies(context.Background(), call(nil))
	require.NoError(t, err)
	payload := decode(t, result)
	assert.Equal(t, "error", payload["status"])
}

func TestSuggestPatternsRequiresContext(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleSuggestPatterns(context.Background(), call(nil))
	require.NoError(t, err)
	payload := decode(t, result)
	assert.Equal(t, "error", payload["status"])
}

func TestSuggestPatterns(t *testing.T) {
	s := newTestServer(t)
	indexFixtures(t, s)

	result, err := s.handleSuggestPatterns(context.Background(), call(map[string]interface{}{
		"context": "fetch a user",
	}))
	require.NoError(t, err)
	payload := decode(t, result)

	require.Equal(t, "success", payload["status"], "response: %v", payload)
	assert.Equal(t, "fetch a user", payload["context"])

	patterns, ok := payload["suggested_patterns"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, patterns)
	first := patterns[0].(map[string]interface{})
	assert.NotEmpty(t, first["pattern"])
	assert.NotEmpty(t, first["file"])

	recommendation, ok := payload["recommendation"].(string)
	require.True(t, ok)
	assert.Contains(t, recommendation, "Found")
}

func TestGetFileContext(t *testing.T) {
	s := newTestServer(t)
	indexFixtures(t, s)

	result, err := s.handleGetFileContext(context.Background(), call(map[string]interface{}{
		"file_path": "api.py",
	}))
	require.NoError(t, err)
	payload := decode(t, result)

	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, float64(2), payload["elements_count"])
	assert.NotEmpty(t, payload["last_analyzed"])
}

func TestGetFileContextMissingFile(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleGetFileContext(context.Background(), call(map[string]interface{}{
		"file_path": "not-there.py",
	}))
	require.NoError(t, err)
	payload := decode(t, result)
	assert.Equal(t, "error", payload["status"])
}

func TestListRoutes(t *testing.T) {
	s := newTestServer(t)
	indexFixtures(t, s)

	result, err := s.handleListRoutes(context.Background(), call(nil))
	require.NoError(t, err)
	payload := decode(t, result)

	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, float64(1), payload["total_routes"])
	methods, ok := payload["methods"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), methods["GET"])
}

func TestListModels(t *testing.T) {
	s := newTestServer(t)
	indexFixtures(t, s)

	result, err := s.handleListModels(context.Background(), call(nil))
	require.NoError(t, err)
	payload := decode(t, result)

	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, float64(1), payload["total_models"])
	byType, ok := payload["models_by_type"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, byType, "sqlalchemy")
}

func TestAnalyzeComplexity(t *testing.T) {
	s := newTestServer(t)
	indexFixtures(t, s)

	// threshold 1 catches every indexed element
	result, err := s.handleAnalyzeComplexity(context.Background(), call(map[string]interface{}{
		"threshold": float64(1),
	}))
	require.NoError(t, err)
	payload := decode(t, result)

	assert.Equal(t, "success", payload["status"])
	total, ok := payload["total_complex_elements"].(float64)
	require.True(t, ok)
	assert.Greater(t, total, float64(0))

	// a very high threshold matches nothing
	result, err = s.handleAnalyzeComplexity(context.Background(), call(map[string]interface{}{
		"threshold": float64(1000),
	}))
	require.NoError(t, err)
	payload = decode(t, result)
	assert.Equal(t, float64(0), payload["total_complex_elements"])
}

func TestServerWiring(t *testing.T) {
	s := newTestServer(t)
	assert.NotNil(t, s.indexer)
	assert.NotNil(t, s.orch)
	assert.NotNil(t, s.store)
	assert.NotNil(t, s.registry)
}

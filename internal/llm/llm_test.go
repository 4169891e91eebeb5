package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaring/codeatlas-mcp/pkg/types"
)

func routeAnalysis() *types.FileAnalysis {
	return &types.FileAnalysis{
		FilePath: "app/routes.py",
		Purpose:  "Defines the login routes",
		Elements: []types.CodeElement{
			{Name: "login", Kind: types.KindFunction, FilePath: "app/routes.py", Line: 10, Complexity: 3},
			{Name: "dispatch", Kind: types.KindFunction, FilePath: "app/routes.py", Line: 40, Complexity: 14},
		},
		Records: []types.FrameworkRecord{
			{
				Kind: types.RecordRoute,
				Name: "login",
				Line: 10,
				Route: &types.RouteRecord{
					Methods: []string{"POST"},
					Path:    "/login",
					Handler: "login",
				},
			},
		},
		ContentHash: types.HashContent([]byte("content")),
	}
}

func TestGenerate(t *testing.T) {
	var gotPath string
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"PURPOSE:\nHandles authentication routes.\n"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "codellama")
	out, err := client.Generate(context.Background(), "describe this file")
	require.NoError(t, err)
	assert.Contains(t, out, "Handles authentication routes")
	assert.Equal(t, "/api/generate", gotPath)
	assert.Contains(t, gotBody, `"model":"codellama"`)
	assert.Contains(t, gotBody, `"stream":false`)
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "codellama")
	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerateUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "codellama")
	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	assert.True(t, NewClient(server.URL, "").Available(context.Background()))
	assert.False(t, NewClient("http://127.0.0.1:1", "").Available(context.Background()))
}

func TestClientDefaults(t *testing.T) {
	c := NewClient("", "")
	assert.Equal(t, DefaultEndpoint, c.Endpoint)
	assert.Equal(t, DefaultModel, c.Model)
}

func TestParseResponse(t *testing.T) {
	response := strings.Join([]string{
		"Here is my analysis.",
		"",
		"PURPOSE:",
		"Serves the authentication endpoints for the web app.",
		"",
		"ARCHITECTURE_DECISIONS:",
		"- Uses blueprint-based routing",
		"- Sessions stored server side",
		"",
		"BREAKING_CHANGES:",
		"- Renaming /login breaks existing clients",
		"",
		"DEPENDENCIES:",
		"- flask",
	}, "\n")

	parsed := parseResponse(response)
	assert.Equal(t, "Serves the authentication endpoints for the web app.", parsed.Purpose)
	assert.Equal(t, []string{"Uses blueprint-based routing", "Sessions stored server side"}, parsed.ArchitectureDecisions)
	assert.Equal(t, []string{"Renaming /login breaks existing clients"}, parsed.BreakingChanges)
	assert.Equal(t, []string{"flask"}, parsed.Dependencies)
}

func TestParseResponseIgnoresUnlabeledItems(t *testing.T) {
	parsed := parseResponse("- stray item before any header\nBREAKING_CHANGES:\n- real risk")
	assert.Empty(t, parsed.ArchitectureDecisions)
	assert.Equal(t, []string{"real risk"}, parsed.BreakingChanges)
}

func TestParseResponseEmpty(t *testing.T) {
	parsed := parseResponse("")
	assert.Empty(t, parsed.Purpose)
	assert.Empty(t, parsed.BreakingChanges)
}

type stubGenerator struct {
	response string
	err      error
	prompt   string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

func TestEnhanceFillsFromResponse(t *testing.T) {
	gen := &stubGenerator{response: strings.Join([]string{
		"PURPOSE:",
		"Implements login and session dispatch.",
		"ARCHITECTURE_DECISIONS:",
		"- Single dispatch entry point",
		"BREAKING_CHANGES:",
		"- Login payload shape is load bearing",
	}, "\n")}

	fa := routeAnalysis()
	NewEnhancer(gen).Enhance(context.Background(), fa, []byte("def login(): pass"))

	assert.Equal(t, "Implements login and session dispatch.", fa.Purpose)
	assert.Equal(t, []string{"Single dispatch entry point"}, fa.ArchitectureDecisions)
	assert.Equal(t, []string{"Login payload shape is load bearing"}, fa.BreakingChanges)

	assert.Contains(t, gen.prompt, "File: app/routes.py")
	assert.Contains(t, gen.prompt, "Elements: 2 functions/classes")
	assert.Contains(t, gen.prompt, "API Routes: 1")
	assert.Contains(t, gen.prompt, "def login(): pass")
}

func TestEnhanceKeepsPurposeWhenSectionEmpty(t *testing.T) {
	gen := &stubGenerator{response: "BREAKING_CHANGES:\n- something"}
	fa := routeAnalysis()
	NewEnhancer(gen).Enhance(context.Background(), fa, nil)
	assert.Equal(t, "Defines the login routes", fa.Purpose)
}

func TestEnhanceFallsBackOnError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("boom")}
	fa := routeAnalysis()
	NewEnhancer(gen).Enhance(context.Background(), fa, nil)

	// route record plus the complexity-14 dispatch trip the heuristics
	assert.Equal(t, []string{
		"Modifying API routes may break client applications",
		"High complexity functions (1) - changes may introduce bugs",
	}, fa.BreakingChanges)
	assert.Equal(t, "Defines the login routes", fa.Purpose)
}

func TestEnhanceHeuristicsOnly(t *testing.T) {
	fa := routeAnalysis()
	fa.Records = append(fa.Records, types.FrameworkRecord{
		Kind:  types.RecordModel,
		Name:  "User",
		Line:  5,
		Model: &types.ModelRecord{Dialect: "sqlalchemy"},
	})

	NewEnhancer(nil).Enhance(context.Background(), fa, nil)

	assert.Contains(t, fa.BreakingChanges, "Modifying API routes may break client applications")
	assert.Contains(t, fa.BreakingChanges, "Changing database models requires migration")
}

func TestEnhanceNoRisks(t *testing.T) {
	fa := &types.FileAnalysis{
		FilePath: "util/strings.py",
		Elements: []types.CodeElement{
			{Name: "slug", Kind: types.KindFunction, FilePath: "util/strings.py", Line: 1, Complexity: 2},
		},
		ContentHash: types.HashContent([]byte("x")),
	}
	NewEnhancer(nil).Enhance(context.Background(), fa, nil)
	assert.Empty(t, fa.BreakingChanges)
}

func TestBuildPromptTruncatesContent(t *testing.T) {
	long := strings.Repeat("a", contentPreviewLimit+500)
	prompt := buildPrompt(routeAnalysis(), []byte(long))
	assert.LessOrEqual(t, strings.Count(prompt, "a"), contentPreviewLimit+100)
	assert.Contains(t, prompt, "PURPOSE:")
}

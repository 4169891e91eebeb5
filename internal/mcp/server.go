package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dmaring/codeatlas-mcp/internal/analyzer"
	"github.com/dmaring/codeatlas-mcp/internal/config"
	"github.com/dmaring/codeatlas-mcp/internal/embedder"
	"github.com/dmaring/codeatlas-mcp/internal/indexer"
	"github.com/dmaring/codeatlas-mcp/internal/llm"
	"github.com/dmaring/codeatlas-mcp/internal/orchestrator"
	"github.com/dmaring/codeatlas-mcp/internal/vectorstore"
	"github.com/dmaring/codeatlas-mcp/internal/watcher"
)

const (
	// ServerName is the MCP server name
	ServerName = "codeatlas-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// cacheTTL bounds how stale the route/model caches may get
	cacheTTL = 5 * time.Minute
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	store    vectorstore.Store
	indexer  *indexer.Indexer
	orch     *orchestrator.Orchestrator
	registry *analyzer.Registry
	cfg      *config.Config

	projectRoot string

	// route/model caches rebuilt from tracked analyses at most every cacheTTL
	cacheMu     sync.Mutex
	routesCache []routeEntry
	modelsCache []modelEntry
	cacheAt     time.Time
}

// NewServer wires the full pipeline for one project root
func NewServer(projectRoot string) (*Server, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	cfg.ResolvePaths(root)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	store, err := vectorstore.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initialize vector store: %w", err)
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}

	idx := indexer.New(store, emb)
	registry := analyzer.Default()

	enhancer := llm.NewEnhancer(nil)
	if cfg.EnhanceWithLLM {
		client := llm.NewClient("", "")
		if client.Available(context.Background()) {
			enhancer = llm.NewEnhancer(client)
		} else {
			log.Printf("llm backend unavailable, using heuristic enhancement")
		}
	}

	orch := orchestrator.New(orchestrator.Config{
		Registry:       registry,
		Enhancer:       enhancer,
		Indexer:        idx,
		Metadata:       orchestrator.LoadMetadata(cfg.MetadataPath),
		IgnorePatterns: cfg.IgnorePatterns,
		Workers:        cfg.Workers,
	})

	s := &Server{
		mcp:         server.NewMCPServer(ServerName, ServerVersion),
		store:       store,
		indexer:     idx,
		orch:        orch,
		registry:    registry,
		cfg:         cfg,
		projectRoot: root,
	}
	s.registerTools()
	return s, nil
}

// StartWatcher begins watching the project root and keeps the index current
// until ctx is cancelled.
func (s *Server) StartWatcher(ctx context.Context) (*watcher.Watcher, error) {
	ignored := make(map[string]struct{}, len(s.cfg.IgnorePatterns))
	for _, p := range s.cfg.IgnorePatterns {
		ignored[p] = struct{}{}
	}

	w, err := watcher.New(s.orch, watcher.Config{
		Debounce: s.cfg.Debounce(),
		IgnoreDir: func(name string) bool {
			_, ok := ignored[name]
			return ok
		},
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx, s.projectRoot); err != nil {
		return nil, err
	}
	return w, nil
}

// Serve runs the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexProjectTool(), s.handleIndexProject)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(findSimilarCodeTool(), s.handleFindSimilarCode)
	s.mcp.AddTool(checkDependenciesTool(), s.handleCheckDependencies)
	s.mcp.AddTool(suggestPatternsTool(), s.handleSuggestPatterns)
	s.mcp.AddTool(getFileContextTool(), s.handleGetFileContext)
	s.mcp.AddTool(listRoutesTool(), s.handleListRoutes)
	s.mcp.AddTool(listModelsTool(), s.handleListModels)
	s.mcp.AddTool(analyzeComplexityTool(), s.handleAnalyzeComplexity)
}

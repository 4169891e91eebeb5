package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/dmaring/codeatlas-mcp/internal/embedder"
	"github.com/dmaring/codeatlas-mcp/internal/indexer"
	"github.com/dmaring/codeatlas-mcp/internal/llm"
	"github.com/dmaring/codeatlas-mcp/internal/orchestrator"
	"github.com/dmaring/codeatlas-mcp/internal/vectorstore"
	"github.com/dmaring/codeatlas-mcp/pkg/types"
)

const authFixture = `from flask import Flask

app = Flask(__name__)

@app.post("/login")
def login(user, password):
    """Authenticate a user and open a session."""
    if not user:
        return None
    return user

def logout(session):
    """Close a user session."""
    return None
`

const modelsFixture = `from sqlalchemy import Column, Integer, String

class User(Base):
    id: int
    email: str
    name: str
`

// PipelineTestSuite drives the full analyze -> enhance -> index -> search
// pipeline end to end against a real SQLite store and the local embedder.
type PipelineTestSuite struct {
	suite.Suite
	ctx        context.Context
	projectDir string
	store      vectorstore.Store
	indexer    *indexer.Indexer
	orch       *orchestrator.Orchestrator
}

func (s *PipelineTestSuite) SetupTest() {
	s.ctx = context.Background()

	s.projectDir = s.T().TempDir()
	s.writeFile("auth.py", authFixture)
	s.writeFile("models.py", modelsFixture)

	store, err := vectorstore.NewSQLiteStore(filepath.Join(s.T().TempDir(), "index.db"))
	s.Require().NoError(err)
	s.store = store

	local, err := embedder.NewLocalProvider(embedder.NewCache(16))
	s.Require().NoError(err)

	s.indexer = indexer.New(store, local)
	s.orch = orchestrator.New(orchestrator.Config{
		Enhancer: llm.NewEnhancer(nil),
		Indexer:  s.indexer,
		Metadata: orchestrator.LoadMetadata(filepath.Join(s.T().TempDir(), "metadata.json")),
		Workers:  2,
	})
}

func (s *PipelineTestSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *PipelineTestSuite) writeFile(name, content string) {
	s.Require().NoError(os.WriteFile(filepath.Join(s.projectDir, name), []byte(content), 0o644))
}

func (s *PipelineTestSuite) TestProjectIndexing() {
	stats, err := s.orch.ProcessProject(s.ctx, []string{s.projectDir}, true)
	s.Require().NoError(err)
	s.Equal(2, stats.FilesProcessed)
	s.Equal(0, stats.FilesFailed)

	// one overview per file, one document per element
	overviews, err := s.store.Count(s.ctx, vectorstore.CollectionFileOverviews)
	s.Require().NoError(err)
	s.Equal(2, overviews)

	elements, err := s.store.Count(s.ctx, vectorstore.CollectionCodeElements)
	s.Require().NoError(err)
	s.Equal(3, elements) // login, logout, User

	// a second run touches nothing
	stats, err = s.orch.ProcessProject(s.ctx, []string{s.projectDir}, true)
	s.Require().NoError(err)
	s.Equal(0, stats.FilesProcessed)
	s.Equal(2, stats.FilesSkipped)
}

func (s *PipelineTestSuite) TestSearchAfterIndexing() {
	_, err := s.orch.ProcessProject(s.ctx, []string{s.projectDir}, false)
	s.Require().NoError(err)

	resp := s.indexer.Search(s.ctx, indexer.SearchRequest{Query: "authenticate user session"})
	s.Equal(types.SearchOK, resp.Status)
	s.NotEmpty(resp.Results)

	// file intents route to overview documents
	resp = s.indexer.Search(s.ctx, indexer.SearchRequest{
		Query:  "authentication module",
		Intent: types.IntentFindFile,
	})
	s.Equal(types.SearchOK, resp.Status)
	for _, r := range resp.Results {
		s.NotContains(r.ID, "::")
	}
}

func (s *PipelineTestSuite) TestEditReindexAndRemove() {
	_, err := s.orch.ProcessProject(s.ctx, []string{s.projectDir}, false)
	s.Require().NoError(err)

	authPath := filepath.Join(s.projectDir, "auth.py")

	// dropping logout from the file drops its element document
	s.writeFile("auth.py", `def login(user):
    """Authenticate a user."""
    return user
`)
	fa, err := s.orch.ProcessFile(s.ctx, authPath)
	s.Require().NoError(err)
	s.Require().NotNil(fa)

	docs, err := s.store.ListByFile(s.ctx, vectorstore.CollectionCodeElements, authPath)
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal("login", docs[0].Metadata["name"])

	// removal clears both collections
	s.Require().NoError(s.orch.RemoveFile(s.ctx, authPath))

	docs, err = s.store.ListByFile(s.ctx, vectorstore.CollectionCodeElements, authPath)
	s.Require().NoError(err)
	s.Empty(docs)

	_, err = s.store.Get(s.ctx, vectorstore.CollectionFileOverviews, authPath)
	s.ErrorIs(err, vectorstore.ErrNotFound)
}

func (s *PipelineTestSuite) TestHeuristicEnhancement() {
	authPath := filepath.Join(s.projectDir, "auth.py")
	fa, err := s.orch.ProcessFile(s.ctx, authPath)
	s.Require().NoError(err)
	s.Require().NotNil(fa)

	// the route record triggers the breaking-change heuristic
	s.Contains(fa.BreakingChanges, "Modifying API routes may break client applications")
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

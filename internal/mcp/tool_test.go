package mcp

// Test Plan for critic tools:
// - critic_search returns ranked results from a real index, honoring limit
// - include_code controls whether code is returned
// - Missing or invalid arguments produce tool errors, not Go errors
// - Searcher failures surface as Go errors
// - critic_chunk returns the full chunk and optional similar chunks
// - critic_chunk reports unknown ids as tool errors
// - Reload picks up a rebuild made through another handle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/code-critic/internal/chunk"
	"github.com/mvp-joe/code-critic/internal/embed"
	"github.com/mvp-joe/code-critic/internal/index"
	"github.com/mvp-joe/code-critic/internal/storage"
)

func testChunks() []chunk.CodeChunk {
	return []chunk.CodeChunk{
		{ID: "io.py::load", File: "io.py", Name: "load", Type: chunk.TypeFunction, Language: chunk.Language,
			Code: "def load(path):\n    return open(path).read()", LLMResponse: "Add error handling.",
			Metrics: chunk.Metrics{LineCount: 2, CyclomaticComplexity: 1}},
		{ID: "io.py::save", File: "io.py", Name: "save", Type: chunk.TypeFunction, Language: chunk.Language,
			Code:    "def save(path, data):\n    open(path, 'w').write(data)",
			Metrics: chunk.Metrics{LineCount: 2, CyclomaticComplexity: 1}},
		{ID: "model.py::User", File: "model.py", Name: "User", Type: chunk.TypeClass, Language: chunk.Language,
			Code: "class User:\n    pass", Metrics: chunk.Metrics{LineCount: 2}},
	}
}

func buildIndex(t *testing.T, dir string, chunks []chunk.CodeChunk) {
	t.Helper()
	ix, err := index.Open(dir, embed.NewMockProvider(32))
	require.NoError(t, err)
	_, err = ix.Build(context.Background(), chunks, index.BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, ix.Close())
}

func newTestSearcher(t *testing.T) (*IndexSearcher, string) {
	t.Helper()
	dir := t.TempDir()
	buildIndex(t, dir, testChunks())
	s, err := NewIndexSearcher(dir, embed.NewMockProvider(32))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args interface{}) (*mcp.CallToolResult, string) {
	t.Helper()
	result, err := handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return result, text.Text
}

func TestCriticSearch_ReturnsRankedResults(t *testing.T) {
	t.Parallel()

	s, _ := newTestSearcher(t)
	handler := createCriticSearchHandler(s, 5)

	result, text := callTool(t, handler, map[string]interface{}{
		"query": testChunks()[0].Code,
		"limit": float64(2),
	})
	assert.False(t, result.IsError)

	var resp CriticSearchResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "io.py::load", resp.Results[0].ID)
	assert.Equal(t, "Add error handling.", resp.Results[0].Critique)
	assert.Empty(t, resp.Results[0].Code)
	require.NotNil(t, resp.Metrics)
	assert.Equal(t, 3, resp.Metrics.CurrentChunkCount)
}

func TestCriticSearch_IncludeCodeAndDefaultLimit(t *testing.T) {
	t.Parallel()

	s, _ := newTestSearcher(t)
	handler := createCriticSearchHandler(s, 0)

	_, text := callTool(t, handler, map[string]interface{}{
		"query":        "class User",
		"include_code": true,
	})

	var resp CriticSearchResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Len(t, resp.Results, 3, "default limit exceeds index size")
	for _, r := range resp.Results {
		assert.NotEmpty(t, r.Code)
	}
}

func TestCriticSearch_InvalidArguments(t *testing.T) {
	t.Parallel()

	s, _ := newTestSearcher(t)
	handler := createCriticSearchHandler(s, 5)

	result, text := callTool(t, handler, map[string]interface{}{"limit": float64(3)})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "query parameter is required")

	result, text = callTool(t, handler, "not a map")
	assert.True(t, result.IsError)
	assert.Contains(t, text, "invalid arguments format")
}

type failingSearcher struct {
	Searcher
}

func (failingSearcher) Search(ctx context.Context, query string, k int) ([]index.Hit, error) {
	return nil, errors.New("index offline")
}

func TestCriticSearch_SearcherError(t *testing.T) {
	t.Parallel()

	handler := createCriticSearchHandler(failingSearcher{}, 5)
	_, err := handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: map[string]interface{}{"query": "x"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index offline")
}

func TestCriticChunk_ReturnsChunkAndSimilar(t *testing.T) {
	t.Parallel()

	s, _ := newTestSearcher(t)
	handler := createCriticChunkHandler(s)

	result, text := callTool(t, handler, map[string]interface{}{
		"id":      "io.py::load",
		"similar": float64(5),
	})
	assert.False(t, result.IsError)

	var resp CriticChunkResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, "io.py::load", resp.Chunk.ID)
	assert.Equal(t, testChunks()[0].Code, resp.Chunk.Code)
	assert.Equal(t, "Add error handling.", resp.Chunk.Critique)
	require.Len(t, resp.Similar, 2)
	for _, r := range resp.Similar {
		assert.NotEqual(t, "io.py::load", r.ID)
	}
}

func TestCriticChunk_NoSimilarByDefault(t *testing.T) {
	t.Parallel()

	s, _ := newTestSearcher(t)
	_, text := callTool(t, createCriticChunkHandler(s), map[string]interface{}{"id": "model.py::User"})

	var resp CriticChunkResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, chunk.TypeClass, resp.Chunk.Type)
	assert.Empty(t, resp.Similar)
}

func TestCriticChunk_UnknownID(t *testing.T) {
	t.Parallel()

	s, _ := newTestSearcher(t)
	result, text := callTool(t, createCriticChunkHandler(s), map[string]interface{}{"id": "nope.py::x"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "chunk not found")

	_, err := s.GetChunk("nope.py::x")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIndexSearcher_Reload(t *testing.T) {
	t.Parallel()

	s, dir := newTestSearcher(t)
	before := s.GetMetrics()
	assert.Equal(t, 3, before.CurrentChunkCount)

	buildIndex(t, dir, testChunks()[:1])
	require.NoError(t, s.Reload(context.Background()))

	after := s.GetMetrics()
	assert.Equal(t, int64(2), after.TotalReloads)
	assert.Equal(t, 1, after.CurrentChunkCount)

	hits, err := s.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestNewMCPServer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	buildIndex(t, dir, testChunks())

	srv, err := NewMCPServer(MCPServerConfig{IndexDir: dir, SearchLimit: 3, Version: "test"}, embed.NewMockProvider(32))
	require.NoError(t, err)
	require.NotNil(t, srv.mcp)
	assert.NoError(t, srv.Close())

	_, err = NewMCPServer(MCPServerConfig{IndexDir: dir}, nil)
	require.Error(t, err)
}

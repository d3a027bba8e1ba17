package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/code-critic/internal/chunk"
	"github.com/mvp-joe/code-critic/internal/embed"
	"github.com/mvp-joe/code-critic/internal/storage"
)

// Test Plan for Index:
// - Build stores every chunk in the vector store and catalog and records a run
// - Search returns the chunk whose code matches the query first
// - k larger than the index is clamped; k <= 0 returns nothing
// - SearchChunk excludes the chunk itself
// - Rebuild replaces the previous contents
// - Reopening the directory keeps the index
// - Query vectors of the wrong size are rejected
// - Progress is reported per batch

func sampleChunks() []chunk.CodeChunk {
	return []chunk.CodeChunk{
		{ID: "a.py::load", File: "a.py", Name: "load", Type: chunk.TypeFunction, Language: chunk.Language,
			Code: "def load(path):\n    return open(path).read()"},
		{ID: "a.py::save", File: "a.py", Name: "save", Type: chunk.TypeFunction, Language: chunk.Language,
			Code: "def save(path, data):\n    open(path, 'w').write(data)"},
		{ID: "b.py::Parser", File: "b.py", Name: "Parser", Type: chunk.TypeClass, Language: chunk.Language,
			Code: "class Parser:\n    pass"},
	}
}

func openTestIndex(t *testing.T, dir string, dims int) *Index {
	t.Helper()
	ix, err := Open(dir, embed.NewMockProvider(dims))
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestOpen_RequiresProvider(t *testing.T) {
	t.Parallel()

	_, err := Open(t.TempDir(), nil)
	require.Error(t, err)
}

func TestBuild_StoresChunksAndRun(t *testing.T) {
	t.Parallel()

	ix := openTestIndex(t, t.TempDir(), 32)
	run, err := ix.Build(context.Background(), sampleChunks(), BuildOptions{BatchSize: 2, Provider: "mock", Model: "test"})
	require.NoError(t, err)

	assert.Equal(t, 3, run.ChunkCount)
	assert.Equal(t, 32, run.Dimensions)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 3, ix.Count())

	count, err := ix.Catalog().CountChunks()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	latest, err := ix.Catalog().LatestRun()
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, "mock", latest.Provider)
}

func TestBuild_ReportsProgress(t *testing.T) {
	t.Parallel()

	ix := openTestIndex(t, t.TempDir(), 16)
	progress := make(chan embed.BatchProgress, 10)
	_, err := ix.Build(context.Background(), sampleChunks(), BuildOptions{BatchSize: 2, Progress: progress})
	require.NoError(t, err)
	close(progress)

	var updates []embed.BatchProgress
	for p := range progress {
		updates = append(updates, p)
	}
	require.Len(t, updates, 2)
	assert.Equal(t, 3, updates[1].Embedded)
	assert.Equal(t, []string{sampleChunks()[2].ID}, updates[1].ChunkIDs)
}

func TestSearch_ReturnsBestMatchFirst(t *testing.T) {
	t.Parallel()

	ix := openTestIndex(t, t.TempDir(), 64)
	chunks := sampleChunks()
	_, err := ix.Build(context.Background(), chunks, BuildOptions{})
	require.NoError(t, err)

	hits, err := ix.Search(context.Background(), chunks[1].Code, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a.py::save", hits[0].Chunk.ID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-4)
	assert.GreaterOrEqual(t, hits[0].Similarity, hits[1].Similarity)
	assert.Equal(t, chunks[1].Code, hits[0].Chunk.Code)
}

func TestSearch_ClampsK(t *testing.T) {
	t.Parallel()

	ix := openTestIndex(t, t.TempDir(), 16)
	_, err := ix.Build(context.Background(), sampleChunks(), BuildOptions{})
	require.NoError(t, err)

	hits, err := ix.Search(context.Background(), "anything", 50)
	require.NoError(t, err)
	assert.Len(t, hits, 3)

	hits, err = ix.Search(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_EmptyIndex(t *testing.T) {
	t.Parallel()

	ix := openTestIndex(t, t.TempDir(), 16)
	hits, err := ix.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchChunk_ExcludesSelf(t *testing.T) {
	t.Parallel()

	ix := openTestIndex(t, t.TempDir(), 16)
	_, err := ix.Build(context.Background(), sampleChunks(), BuildOptions{})
	require.NoError(t, err)

	hits, err := ix.SearchChunk(context.Background(), "a.py::load", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.NotEqual(t, "a.py::load", h.Chunk.ID)
	}

	_, err = ix.SearchChunk(context.Background(), "missing", 5)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBuild_ReplacesPreviousContents(t *testing.T) {
	t.Parallel()

	ix := openTestIndex(t, t.TempDir(), 16)
	_, err := ix.Build(context.Background(), sampleChunks(), BuildOptions{})
	require.NoError(t, err)

	_, err = ix.Build(context.Background(), sampleChunks()[:1], BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Count())

	hits, err := ix.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a.py::load", hits[0].Chunk.ID)
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first, err := Open(dir, embed.NewMockProvider(16))
	require.NoError(t, err)
	_, err = first.Build(context.Background(), sampleChunks(), BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := openTestIndex(t, dir, 16)
	assert.Equal(t, 3, second.Count())

	hits, err := second.Search(context.Background(), sampleChunks()[2].Code, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b.py::Parser", hits[0].Chunk.ID)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first, err := Open(dir, embed.NewMockProvider(16))
	require.NoError(t, err)
	_, err = first.Build(context.Background(), sampleChunks(), BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	other := openTestIndex(t, dir, 8)
	_, err = other.Search(context.Background(), "anything", 2)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

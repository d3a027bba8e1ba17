package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/code-critic/internal/chunk"
	"github.com/mvp-joe/code-critic/internal/parser"
)

// Test Plan for DocumentExtractor and Watch:
// - Extract writes the same document a fresh walk produces
// - Extract reports failed files
// - Watch rewrites the document after a Python file changes
// - Watch returns once the context is cancelled

func writeSource(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDocumentExtractor_Extract(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "pkg/a.py", "def a():\n    return 1\n")
	writeSource(t, root, "pkg/bad.py", "def bad(:\n")
	out := filepath.Join(t.TempDir(), "parsed.json")

	ex := &DocumentExtractor{Root: root, Output: out, Options: parser.WalkOptions{Ignore: parser.DefaultIgnore}}
	stats, err := ex.Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, stats.Failed)

	chunks, err := chunk.Read(out)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "pkg/a.py::a", chunks[0].ID)
}

func TestWatch_RewritesDocumentOnChange(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "app.py", "def first():\n    pass\n")
	out := filepath.Join(t.TempDir(), "parsed.json")

	opts := parser.WalkOptions{Ignore: parser.DefaultIgnore}
	ex := &DocumentExtractor{Root: root, Output: out, Options: opts}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	extracted := make(chan *ExtractStats, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, root, opts, ex, func(_ []string, stats *ExtractStats, err error) {
			if err == nil {
				extracted <- stats
			}
		})
	}()
	time.Sleep(200 * time.Millisecond)

	writeSource(t, root, "app.py", "def first():\n    pass\n\ndef second():\n    pass\n")

	select {
	case stats := <-extracted:
		assert.Equal(t, 2, stats.Chunks)
	case <-time.After(5 * time.Second):
		t.Fatal("document was not rewritten")
	}

	chunks, err := chunk.Read(out)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "app.py::second", chunks[1].ID)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

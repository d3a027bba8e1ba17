package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/code-critic/internal/chunk"
	"github.com/mvp-joe/code-critic/internal/config"
	"github.com/mvp-joe/code-critic/internal/critic"
	"github.com/mvp-joe/code-critic/internal/embed"
	"github.com/mvp-joe/code-critic/internal/index"
	"github.com/mvp-joe/code-critic/internal/llm"
	"github.com/mvp-joe/code-critic/internal/parser"
)

// Test Plan for the command pipeline:
// - parseRepository writes a chunk document and reports the counts
// - critiqueDocument stores model answers and writes the output document
// - refactorDocument rewrites only critiqued chunks
// - critiqueFiles writes one report section per file, to a file or stdout
// - embedDocument builds an index that search can query
// - search on an empty index prints a hint instead of failing
// - version and config init run through the root command

func writeRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"app/util.py": "def add(a, b):\n    return a + b\n\n\ndef scale(x):\n    return x * 42\n",
		"app/model.py": "class Model:\n    \"\"\"A model.\"\"\"\n\n    def fit(self, data):\n" +
			"        for row in data:\n            if row:\n                print(row)\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func parsedDocument(t *testing.T) string {
	t.Helper()
	doc := filepath.Join(t.TempDir(), "parsed.json")
	var out bytes.Buffer
	err := parseRepository(context.Background(), &out, writeRepo(t), doc, parser.WalkOptions{Ignore: parser.DefaultIgnore})
	require.NoError(t, err)
	return doc
}

func testCritic(model llm.Model) *critic.Critic {
	return critic.New(model, criticOptions(config.Default(), NewCLIProgressReporter(io.Discard, true), true))
}

func TestParseRepository(t *testing.T) {
	t.Parallel()

	doc := filepath.Join(t.TempDir(), "parsed.json")
	var out bytes.Buffer
	err := parseRepository(context.Background(), &out, writeRepo(t), doc, parser.WalkOptions{Ignore: parser.DefaultIgnore})
	require.NoError(t, err)

	chunks, err := chunk.Read(doc)
	require.NoError(t, err)

	var ids []string
	for _, c := range chunks {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"app/model.py::Model", "app/model.py::fit", "app/util.py::add", "app/util.py::scale"}, ids)
	assert.Contains(t, out.String(), "Extracted 4 code chunks from 2 files")
}

func TestCritiqueAndRefactorDocument(t *testing.T) {
	t.Parallel()

	doc := parsedDocument(t)
	critiqued := filepath.Join(t.TempDir(), "critiqued.json")

	var out bytes.Buffer
	require.NoError(t, critiqueDocument(context.Background(), &out, testCritic(llm.NewFake("  Too terse.  ")), doc, critiqued))
	assert.Contains(t, out.String(), "Critiqued 4 of 4 selected chunks")

	chunks, err := chunk.Read(critiqued)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.Equal(t, "Too terse.", c.LLMResponse, c.ID)
	}

	// Input document is untouched when an output path is given
	original, err := chunk.Read(doc)
	require.NoError(t, err)
	assert.Empty(t, original[0].LLMResponse)

	out.Reset()
	require.NoError(t, refactorDocument(context.Background(), &out, testCritic(llm.NewFake("def add(a, b):\n    return sum((a, b))")), critiqued, critiqued))
	assert.Contains(t, out.String(), "Refactored 4 of 4 selected chunks")

	chunks, err = chunk.Read(critiqued)
	require.NoError(t, err)
	assert.Equal(t, "def add(a, b):\n    return sum((a, b))", chunks[0].RefactoredCode)
}

func TestRefactorDocument_NothingCritiqued(t *testing.T) {
	t.Parallel()

	doc := parsedDocument(t)
	model := llm.NewFake("unused")

	var out bytes.Buffer
	require.NoError(t, refactorDocument(context.Background(), &out, testCritic(model), doc, doc))
	assert.Contains(t, out.String(), "No critiqued chunks found")
	assert.Equal(t, 0, model.CallCount())
}

func TestCritiqueFiles(t *testing.T) {
	t.Parallel()

	doc := parsedDocument(t)
	c := testCritic(llm.NewFake("Split this file."))

	report := filepath.Join(t.TempDir(), "report.txt")
	var out bytes.Buffer
	require.NoError(t, critiqueFiles(context.Background(), &out, c, doc, report))
	assert.Contains(t, out.String(), "Wrote critiques of 2 files")

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "===== app/model.py =====\nSplit this file.")
	assert.Contains(t, string(data), "===== app/util.py =====")

	out.Reset()
	require.NoError(t, critiqueFiles(context.Background(), &out, c, doc, "-"))
	assert.True(t, strings.HasPrefix(out.String(), "===== app/model.py ====="))
}

func TestEmbedDocumentAndSearch(t *testing.T) {
	t.Parallel()

	doc := parsedDocument(t)
	dir := filepath.Join(t.TempDir(), "index")

	cfg := config.Default()
	cfg.Embedding.Provider = "mock"
	cfg.Embedding.Dimensions = 32
	cfg.Embedding.BatchSize = 3

	provider, err := newEmbedProvider(context.Background(), cfg)
	require.NoError(t, err)
	defer provider.Close()

	var out bytes.Buffer
	require.NoError(t, embedDocument(context.Background(), &out, NewCLIProgressReporter(io.Discard, true), provider, cfg, doc, dir))
	assert.Contains(t, out.String(), "Indexed 4 chunks (32 dimensions)")

	ix, err := index.Open(dir, provider)
	require.NoError(t, err)
	defer ix.Close()

	out.Reset()
	require.NoError(t, search(context.Background(), &out, ix, "add two numbers", 2, true))
	assert.Contains(t, out.String(), "1. ")
	assert.Contains(t, out.String(), "2. ")
	assert.NotContains(t, out.String(), "3. ")
	assert.Contains(t, out.String(), "   | ")
}

func TestSearch_EmptyIndex(t *testing.T) {
	t.Parallel()

	ix, err := index.Open(t.TempDir(), embed.NewMockProvider(8))
	require.NoError(t, err)
	defer ix.Close()

	var out bytes.Buffer
	require.NoError(t, search(context.Background(), &out, ix, "anything", 5, false))
	assert.Contains(t, out.String(), "No results")
}

func TestNewEmbedProvider_RejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Embedding.Provider = "onnx"
	_, err := newEmbedProvider(context.Background(), cfg)
	require.Error(t, err)
}

// The root command holds global flag state, so these run sequentially.
func TestRootCommand_VersionAndConfigInit(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Critic dev")

	dir := t.TempDir()
	out.Reset()
	rootCmd.SetArgs([]string{"config", "init", "--dir", dir})
	require.NoError(t, rootCmd.Execute())
	assert.FileExists(t, filepath.Join(dir, config.DirName, "config.yml"))

	cfg, err := config.LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	rootCmd.SetArgs([]string{"config", "init", "--dir", dir})
	require.Error(t, rootCmd.Execute())
}

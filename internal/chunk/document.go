package chunk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Write stores chunks as an indented JSON array. The file is written to a
// temp file in the same directory and renamed into place.
func Write(path string, chunks []CodeChunk) error {
	if chunks == nil {
		chunks = []CodeChunk{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chunks); err != nil {
		return fmt.Errorf("failed to marshal chunks: %w", err)
	}
	data := buf.Bytes()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Read loads a chunk document written by Write or by a downstream stage.
func Read(path string) ([]CodeChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk document: %w", err)
	}

	var chunks []CodeChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("failed to parse chunk document %s: %w", path, err)
	}

	for i := range chunks {
		chunks[i].normalize()
	}
	return chunks, nil
}

// normalize replaces nil slices so a document read back serializes the same
// way it was written.
func (c *CodeChunk) normalize() {
	if c.ASTPath == nil {
		c.ASTPath = []string{}
	}
	if c.Context.Decorators == nil {
		c.Context.Decorators = []string{}
	}
	if c.Metrics.MagicNumbers == nil {
		c.Metrics.MagicNumbers = []MagicNumber{}
	}
	if c.Dependencies == nil {
		c.Dependencies = []string{}
	}
	if c.Imports == nil {
		c.Imports = []string{}
	}
}

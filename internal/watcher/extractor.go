package watcher

import (
	"context"
	"fmt"

	"github.com/mvp-joe/code-critic/internal/chunk"
	"github.com/mvp-joe/code-critic/internal/parser"
)

// DocumentExtractor re-walks a repository and rewrites its chunk document.
type DocumentExtractor struct {
	Root    string
	Output  string
	Options parser.WalkOptions
}

// Extract walks the whole repository. The changed hint is not used to
// narrow the walk; every run produces the same document a fresh parse would.
func (e *DocumentExtractor) Extract(ctx context.Context, changed []string) (*ExtractStats, error) {
	chunks, stats, err := parser.WalkRepository(ctx, e.Root, e.Options)
	if err != nil {
		return nil, err
	}

	if err := chunk.Write(e.Output, chunks); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", e.Output, err)
	}

	return &ExtractStats{
		Files:  stats.Files,
		Chunks: stats.Chunks,
		Failed: len(stats.Failed),
	}, nil
}

// Watch runs extractor every time a Python file under root changes, skipping
// directories discovery ignores. It blocks until ctx is cancelled.
func Watch(ctx context.Context, root string, opts parser.WalkOptions, extractor Extractor, onExtract func([]string, *ExtractStats, error)) error {
	discovery, err := parser.NewFileDiscovery(root, opts.Include, opts.Ignore)
	if err != nil {
		return err
	}

	fw, err := NewFileWatcher(root, Options{
		Extensions: []string{".py"},
		SkipDir:    func(rel string) bool { return discovery.Ignored(rel, true) },
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	c := NewCoordinator(fw, extractor)
	c.OnExtract = onExtract
	return c.Run(ctx)
}

package parser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/mvp-joe/code-critic/internal/chunk"
)

// WalkOptions controls a repository walk.
type WalkOptions struct {
	Include []string
	Ignore  []string

	// Workers bounds parallel extraction; <= 0 uses GOMAXPROCS.
	Workers int

	// Progress, when set, is called after each file with the number of
	// files done and the total. Calls are serialized.
	Progress func(done, total int)
}

// FileError records a file that produced no chunks because it could not be
// read or parsed.
type FileError struct {
	File string
	Err  error
}

// Stats summarizes a repository walk.
type Stats struct {
	Files   int
	Chunks  int
	Failed  []FileError
	Skipped []Skip
}

// WalkRepository extracts every matching file under root and concatenates
// the chunks in sorted path order. Files that fail to parse are recorded in
// Stats and do not stop the walk; only discovery errors and cancellation are
// returned.
func WalkRepository(ctx context.Context, root string, opts WalkOptions) ([]chunk.CodeChunk, Stats, error) {
	var stats Stats

	discovery, err := NewFileDiscovery(root, opts.Include, opts.Ignore)
	if err != nil {
		return nil, stats, err
	}
	files, err := discovery.Discover()
	if err != nil {
		return nil, stats, err
	}
	stats.Files = len(files)

	results, err := parseFilesConcurrent(ctx, root, files, opts)
	if err != nil {
		return nil, stats, err
	}

	chunks := []chunk.CodeChunk{}
	for _, r := range results {
		if r.ParseErr != nil {
			stats.Failed = append(stats.Failed, FileError{File: r.File, Err: r.ParseErr})
			continue
		}
		stats.Skipped = append(stats.Skipped, r.Skipped...)
		chunks = append(chunks, r.Chunks...)
	}
	stats.Chunks = len(chunks)

	return chunks, stats, nil
}

// parseFilesConcurrent extracts files on a worker pool. Each worker owns a
// tree-sitter parser; results are stored by index so output order does not
// depend on scheduling.
func parseFilesConcurrent(ctx context.Context, root string, files []string, opts WalkOptions) ([]*FileResult, error) {
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	results := make([]*FileResult, len(files))
	work := make(chan int)

	var (
		wg         sync.WaitGroup
		progressMu sync.Mutex
		done       int
	)

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			p, err := New()
			if err == nil {
				defer p.Close()
			}

			for idx := range work {
				if err != nil {
					results[idx] = &FileResult{File: files[idx], ParseErr: err}
				} else {
					results[idx] = parseOne(p, root, files[idx])
				}

				if opts.Progress != nil {
					progressMu.Lock()
					done++
					opts.Progress(done, len(files))
					progressMu.Unlock()
				}
			}
		}()
	}

	var ctxErr error
feed:
	for i := range files {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break feed
		case work <- i:
		}
	}
	close(work)
	wg.Wait()

	if ctxErr != nil {
		return nil, ctxErr
	}
	return results, nil
}

func parseOne(p *Parser, root, rel string) *FileResult {
	source, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		log.Printf("Warning: failed to read %s: %v", rel, err)
		return &FileResult{File: rel, ParseErr: fmt.Errorf("failed to read %s: %w", rel, err)}
	}

	result := p.ParseSource(rel, source)
	if result.ParseErr != nil && !errors.Is(result.ParseErr, ErrSyntax) {
		log.Printf("Warning: skipping %s: %v", rel, result.ParseErr)
	}
	return result
}

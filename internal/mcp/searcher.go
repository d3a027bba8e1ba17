package mcp

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mvp-joe/code-critic/internal/embed"
	"github.com/mvp-joe/code-critic/internal/index"
	"github.com/mvp-joe/code-critic/internal/storage"
)

// Searcher is the backend the MCP tools query.
type Searcher interface {
	// Search returns up to k chunks similar to query.
	Search(ctx context.Context, query string, k int) ([]index.Hit, error)

	// SearchChunk returns up to k chunks similar to the stored chunk id.
	SearchChunk(ctx context.Context, id string, k int) ([]index.Hit, error)

	// GetChunk returns one stored chunk.
	GetChunk(id string) (*storage.StoredChunk, error)

	// Reload reopens the index so a rebuild by another process is picked up.
	Reload(ctx context.Context) error

	// GetMetrics returns reload statistics.
	GetMetrics() MetricsSnapshot

	// Close releases the index.
	Close() error
}

// IndexSearcher serves queries from an on-disk index directory.
type IndexSearcher struct {
	dir      string
	provider embed.Provider
	metrics  *ReloadMetrics

	mu sync.RWMutex
	ix *index.Index
}

// NewIndexSearcher opens the index in dir.
func NewIndexSearcher(dir string, provider embed.Provider) (*IndexSearcher, error) {
	start := time.Now()
	ix, err := index.Open(dir, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	s := &IndexSearcher{
		dir:      dir,
		provider: provider,
		metrics:  NewReloadMetrics(),
		ix:       ix,
	}
	s.metrics.RecordReload(time.Since(start), nil, ix.Count())
	return s, nil
}

func (s *IndexSearcher) current() *index.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix
}

// Search implements Searcher.
func (s *IndexSearcher) Search(ctx context.Context, query string, k int) ([]index.Hit, error) {
	return s.current().Search(ctx, query, k)
}

// SearchChunk implements Searcher.
func (s *IndexSearcher) SearchChunk(ctx context.Context, id string, k int) ([]index.Hit, error) {
	return s.current().SearchChunk(ctx, id, k)
}

// GetChunk implements Searcher.
func (s *IndexSearcher) GetChunk(id string) (*storage.StoredChunk, error) {
	return s.current().Catalog().GetChunk(id)
}

// Reload opens a fresh view of the index and swaps it in. The old view
// stays in service if opening fails.
func (s *IndexSearcher) Reload(ctx context.Context) error {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return err
	}

	fresh, err := index.Open(s.dir, s.provider)
	if err != nil {
		s.metrics.RecordReload(time.Since(start), err, 0)
		return fmt.Errorf("failed to reopen index: %w", err)
	}

	s.mu.Lock()
	old := s.ix
	s.ix = fresh
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		log.Printf("Warning: failed to close previous index: %v", err)
	}

	s.metrics.RecordReload(time.Since(start), nil, fresh.Count())
	return nil
}

// GetMetrics implements Searcher.
func (s *IndexSearcher) GetMetrics() MetricsSnapshot {
	return s.metrics.GetMetrics()
}

// Close implements Searcher.
func (s *IndexSearcher) Close() error {
	return s.current().Close()
}

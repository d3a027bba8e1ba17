// Package index maintains the similarity index over extracted chunks: a
// persistent chromem-go collection of embeddings plus the SQLite catalog
// that holds the full chunk records.
package index

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/mvp-joe/code-critic/internal/chunk"
	"github.com/mvp-joe/code-critic/internal/embed"
	"github.com/mvp-joe/code-critic/internal/storage"
)

const (
	// CollectionName is the chromem-go collection holding chunk vectors.
	CollectionName = "chunks"

	// VectorsDir is the chromem-go persistence directory inside the index dir.
	VectorsDir = "vectors"
)

// ErrDimensionMismatch indicates the query vector does not match the
// vectors the index was built with, usually because the embedding model
// changed since the last build.
var ErrDimensionMismatch = errors.New("embedding dimensions do not match index")

// Hit is one search result.
type Hit struct {
	Chunk      chunk.CodeChunk
	Similarity float32
}

// BuildOptions tunes an index build.
type BuildOptions struct {
	// BatchSize is the number of chunks per embedding request.
	BatchSize int

	// Progress receives one update per embedded batch. May be nil.
	Progress chan<- embed.BatchProgress

	// Provider and Model are recorded with the index run.
	Provider string
	Model    string
}

// Index is a persistent similarity index rooted at a directory.
type Index struct {
	dir      string
	provider embed.Provider
	db       *chromem.DB
	catalog  *storage.Catalog

	mu         sync.RWMutex // Protects collection during rebuild
	collection *chromem.Collection
}

// Open opens or creates the index in dir. The provider embeds chunks during
// Build and queries during Search.
func Open(dir string, provider embed.Provider) (*Index, error) {
	if provider == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}

	db, err := chromem.NewPersistentDB(filepath.Join(dir, VectorsDir), false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	catalog, err := storage.OpenInDir(dir)
	if err != nil {
		return nil, err
	}

	collection, err := db.GetOrCreateCollection(CollectionName, nil, nil)
	if err != nil {
		catalog.Close()
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	return &Index{
		dir:        dir,
		provider:   provider,
		db:         db,
		catalog:    catalog,
		collection: collection,
	}, nil
}

// Catalog exposes the chunk catalog backing the index.
func (ix *Index) Catalog() *storage.Catalog {
	return ix.catalog
}

// Count returns the number of indexed chunks.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.collection.Count()
}

// Close releases the catalog connection. The vector store needs no cleanup.
func (ix *Index) Close() error {
	return ix.catalog.Close()
}

// Build embeds every chunk's code and replaces the index contents with
// them. The previous contents stay in place if embedding fails.
func (ix *Index) Build(ctx context.Context, chunks []chunk.CodeChunk, opts BuildOptions) (storage.IndexRun, error) {
	vectors, err := embed.EmbedChunks(ctx, ix.provider, chunks, opts.BatchSize, opts.Progress)
	if err != nil {
		return storage.IndexRun{}, fmt.Errorf("failed to embed chunks: %w", err)
	}

	stored := make([]storage.StoredChunk, len(chunks))
	docs := make([]chromem.Document, len(chunks))
	dims := 0
	for i := range chunks {
		stored[i] = storage.StoredChunk{Chunk: chunks[i], Embedding: vectors[i]}
		docs[i] = chromem.Document{
			ID:        chunks[i].ID,
			Content:   chunks[i].Code,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"file": chunks[i].File,
				"type": chunks[i].Type,
			},
		}
		if i == 0 {
			dims = len(vectors[i])
		} else if len(vectors[i]) != dims {
			return storage.IndexRun{}, fmt.Errorf("%w: chunk %s has %d dimensions, expected %d",
				ErrDimensionMismatch, chunks[i].ID, len(vectors[i]), dims)
		}
	}

	if err := ix.catalog.ReplaceChunks(stored); err != nil {
		return storage.IndexRun{}, err
	}

	if err := ix.replaceCollection(ctx, docs); err != nil {
		return storage.IndexRun{}, err
	}

	return ix.catalog.RecordRun(storage.IndexRun{
		ChunkCount: len(chunks),
		Dimensions: dims,
		Provider:   opts.Provider,
		Model:      opts.Model,
	})
}

func (ix *Index) replaceCollection(ctx context.Context, docs []chromem.Document) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.db.DeleteCollection(CollectionName); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	collection, err := ix.db.CreateCollection(CollectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, 1); err != nil {
			return fmt.Errorf("failed to add documents: %w", err)
		}
	}

	ix.collection = collection
	return nil
}

// Search embeds query and returns up to k of the most similar chunks,
// best first.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	vectors, err := ix.provider.Embed(ctx, []string{query}, embed.EmbedModeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	return ix.query(ctx, vectors[0], k, "")
}

// SearchChunk returns up to k chunks most similar to the stored chunk id,
// excluding the chunk itself.
func (ix *Index) SearchChunk(ctx context.Context, id string, k int) ([]Hit, error) {
	sc, err := ix.catalog.GetChunk(id)
	if err != nil {
		return nil, err
	}
	if len(sc.Embedding) == 0 {
		return nil, fmt.Errorf("chunk %s has no embedding", id)
	}

	return ix.query(ctx, sc.Embedding, k, id)
}

func (ix *Index) query(ctx context.Context, vector []float32, k int, exclude string) ([]Hit, error) {
	if k <= 0 {
		return []Hit{}, nil
	}

	ix.mu.RLock()
	collection := ix.collection
	ix.mu.RUnlock()

	n := k
	if exclude != "" {
		n++
	}
	// chromem-go rejects requests for more results than documents.
	if count := collection.Count(); n > count {
		n = count
	}
	if n == 0 {
		return []Hit{}, nil
	}

	if err := ix.checkDimensions(len(vector)); err != nil {
		return nil, err
	}

	results, err := collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	ids := make([]string, 0, len(results))
	similarity := make(map[string]float32, len(results))
	for _, r := range results {
		if r.ID == exclude {
			continue
		}
		ids = append(ids, r.ID)
		similarity[r.ID] = r.Similarity
	}
	if len(ids) > k {
		ids = ids[:k]
	}

	stored, err := ix.catalog.GetChunks(ids)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(stored))
	for _, sc := range stored {
		hits = append(hits, Hit{Chunk: sc.Chunk, Similarity: similarity[sc.Chunk.ID]})
	}
	return hits, nil
}

func (ix *Index) checkDimensions(got int) error {
	run, err := ix.catalog.LatestRun()
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if run.Dimensions != 0 && run.Dimensions != got {
		return fmt.Errorf("%w: index built with %d (%s %s), query has %d; rebuild with `critic embed`",
			ErrDimensionMismatch, run.Dimensions, run.Provider, run.Model, got)
	}
	return nil
}

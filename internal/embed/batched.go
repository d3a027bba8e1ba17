package embed

import (
	"context"
	"fmt"

	"github.com/mvp-joe/code-critic/internal/chunk"
)

// BatchProgress is sent after each batch of chunks has been embedded.
type BatchProgress struct {
	Batch    int      // 1-indexed
	Batches  int      // total batch count
	Embedded int      // chunks embedded so far
	Total    int      // chunks in the run
	ChunkIDs []string // ids of the chunks in this batch
}

// EmbedChunks embeds the code of every chunk in passage mode, batchSize
// chunks per provider call. A non-positive batchSize sends one batch.
// Vectors are returned in chunk order.
//
// When progress is non-nil one update is sent per batch; the caller owns
// the channel and closes it after EmbedChunks returns.
func EmbedChunks(ctx context.Context, provider Provider, chunks []chunk.CodeChunk, batchSize int, progress chan<- BatchProgress) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	if len(chunks) == 0 {
		return vectors, nil
	}
	if batchSize <= 0 || batchSize > len(chunks) {
		batchSize = len(chunks)
	}
	batches := (len(chunks) + batchSize - 1) / batchSize

	for batch := 1; batch <= batches; batch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lo := (batch - 1) * batchSize
		part := chunks[lo:min(lo+batchSize, len(chunks))]
		codes := make([]string, len(part))
		ids := make([]string, len(part))
		for i := range part {
			codes[i], ids[i] = part[i].Code, part[i].ID
		}

		got, err := provider.Embed(ctx, codes, EmbedModePassage)
		if err != nil {
			return nil, fmt.Errorf("batch %d/%d (%s .. %s) failed: %w", batch, batches, ids[0], ids[len(ids)-1], err)
		}
		if len(got) != len(part) {
			return nil, fmt.Errorf("batch %d/%d returned %d vectors for %d chunks", batch, batches, len(got), len(part))
		}
		vectors = append(vectors, got...)

		if progress == nil {
			continue
		}
		update := BatchProgress{
			Batch:    batch,
			Batches:  batches,
			Embedded: len(vectors),
			Total:    len(chunks),
			ChunkIDs: ids,
		}
		select {
		case progress <- update:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return vectors, nil
}

package storage

import (
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/code-critic/internal/chunk"
)

// StoredChunk is a chunk plus its embedding as kept in the catalog.
type StoredChunk struct {
	Chunk     chunk.CodeChunk
	Embedding []float32
	UpdatedAt time.Time
}

// ReplaceChunks performs a full replace of all chunks in the catalog.
// All operations are atomic: either all chunks are written or none.
func (c *Catalog) ReplaceChunks(chunks []StoredChunk) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := sq.Delete("chunks").RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}

	now := time.Now().UTC()
	for _, sc := range chunks {
		payload, err := json.Marshal(sc.Chunk)
		if err != nil {
			return fmt.Errorf("failed to encode chunk %s: %w", sc.Chunk.ID, err)
		}

		updated := sc.UpdatedAt
		if updated.IsZero() {
			updated = now
		}

		_, err = sq.Insert("chunks").
			Columns("chunk_id", "file_path", "name", "entity_type", "payload", "embedding", "updated_at").
			Values(
				sc.Chunk.ID,
				sc.Chunk.File,
				sc.Chunk.Name,
				sc.Chunk.Type,
				string(payload),
				nullableEmbedding(sc.Embedding),
				updated.UTC().Format(timeFormat),
			).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", sc.Chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func nullableEmbedding(emb []float32) interface{} {
	if len(emb) == 0 {
		return nil
	}
	return SerializeEmbedding(emb)
}

package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var chunkColumns = []string{"chunk_id", "payload", "embedding", "updated_at"}

// GetChunk loads a single chunk by id. Returns ErrNotFound if it is absent.
func (c *Catalog) GetChunk(id string) (*StoredChunk, error) {
	row := sq.Select(chunkColumns...).
		From("chunks").
		Where(sq.Eq{"chunk_id": id}).
		RunWith(c.db).
		QueryRow()

	sc, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chunk %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk %s: %w", id, err)
	}
	return sc, nil
}

// GetChunks loads the chunks with the given ids, in the order of ids.
// Unknown ids are skipped.
func (c *Catalog) GetChunks(ids []string) ([]*StoredChunk, error) {
	if len(ids) == 0 {
		return []*StoredChunk{}, nil
	}

	rows, err := sq.Select(chunkColumns...).
		From("chunks").
		Where(sq.Eq{"chunk_id": ids}).
		RunWith(c.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*StoredChunk, len(ids))
	for rows.Next() {
		sc, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		byID[sc.Chunk.ID] = sc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}

	out := make([]*StoredChunk, 0, len(ids))
	for _, id := range ids {
		if sc, ok := byID[id]; ok {
			out = append(out, sc)
		}
	}
	return out, nil
}

// ReadAllChunks loads every chunk ordered by id.
func (c *Catalog) ReadAllChunks() ([]*StoredChunk, error) {
	rows, err := sq.Select(chunkColumns...).
		From("chunks").
		OrderBy("chunk_id").
		RunWith(c.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var out []*StoredChunk
	for rows.Next() {
		sc, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}
	return out, nil
}

// CountChunks returns the number of stored chunks.
func (c *Catalog) CountChunks() (int, error) {
	var n int
	err := sq.Select("COUNT(*)").From("chunks").RunWith(c.db).QueryRow().Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanChunk(s scanner) (*StoredChunk, error) {
	var (
		id        string
		payload   string
		embBytes  []byte
		updatedAt string
	)
	if err := s.Scan(&id, &payload, &embBytes, &updatedAt); err != nil {
		return nil, err
	}

	sc := &StoredChunk{}
	if err := json.Unmarshal([]byte(payload), &sc.Chunk); err != nil {
		return nil, fmt.Errorf("invalid payload for chunk %s: %w", id, err)
	}

	if embBytes != nil {
		emb, err := DeserializeEmbedding(embBytes)
		if err != nil {
			return nil, fmt.Errorf("invalid embedding for chunk %s: %w", id, err)
		}
		sc.Embedding = emb
	}

	if t, err := time.Parse(timeFormat, updatedAt); err == nil {
		sc.UpdatedAt = t
	}
	return sc, nil
}

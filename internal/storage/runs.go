package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// IndexRun records one embedding pass over a chunk document.
type IndexRun struct {
	ID         string
	CreatedAt  time.Time
	ChunkCount int
	Dimensions int
	Provider   string
	Model      string
}

// RecordRun stores run, assigning an id and timestamp when they are unset.
// The stored run is returned.
func (c *Catalog) RecordRun(run IndexRun) (IndexRun, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	_, err := sq.Insert("index_runs").
		Columns("run_id", "created_at", "chunk_count", "dimensions", "provider", "model").
		Values(run.ID, run.CreatedAt.Format(timeFormat), run.ChunkCount, run.Dimensions, run.Provider, run.Model).
		RunWith(c.db).
		Exec()
	if err != nil {
		return IndexRun{}, fmt.Errorf("failed to record index run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recent run. Returns ErrNotFound if nothing has
// been indexed yet.
func (c *Catalog) LatestRun() (*IndexRun, error) {
	var (
		run       IndexRun
		createdAt string
	)
	err := sq.Select("run_id", "created_at", "chunk_count", "dimensions", "provider", "model").
		From("index_runs").
		OrderBy("created_at DESC", "rowid DESC").
		Limit(1).
		RunWith(c.db).
		QueryRow().
		Scan(&run.ID, &createdAt, &run.ChunkCount, &run.Dimensions, &run.Provider, &run.Model)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("index run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest index run: %w", err)
	}

	run.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	return &run, nil
}

package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is the catalog layout written by CreateSchema.
const SchemaVersion = "1"

// CreateSchema creates all tables and indexes for the chunk catalog.
// Uses a transaction so schema creation succeeds or fails as a whole.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"chunks", createChunksTable},
		{"index_runs", createIndexRunsTable},
		{"catalog_metadata", createCatalogMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range getAllIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`INSERT INTO catalog_metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)`,
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap catalog_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}

	return nil
}

// GetSchemaVersion returns the stored schema version, or "0" for a database
// that has never been initialized.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='catalog_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check catalog_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil // New database
	}

	var version string
	err = db.QueryRow("SELECT value FROM catalog_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in catalog_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

const createChunksTable = `
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id    TEXT PRIMARY KEY,
	file_path   TEXT NOT NULL,
	name        TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	payload     TEXT NOT NULL,
	embedding   BLOB,
	updated_at  TEXT NOT NULL
)`

const createIndexRunsTable = `
CREATE TABLE IF NOT EXISTS index_runs (
	run_id      TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	chunk_count INTEGER NOT NULL,
	dimensions  INTEGER NOT NULL,
	provider    TEXT NOT NULL,
	model       TEXT NOT NULL
)`

const createCatalogMetadataTable = `
CREATE TABLE IF NOT EXISTS catalog_metadata (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

func getAllIndexes() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_chunks_file_path ON chunks(file_path)",
		"CREATE INDEX IF NOT EXISTS idx_chunks_name ON chunks(name)",
		"CREATE INDEX IF NOT EXISTS idx_index_runs_created_at ON index_runs(created_at)",
	}
}

// Package storage persists chunk metadata, embeddings and index run history
// in a SQLite catalog next to the vector index.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// CatalogFile is the catalog's file name inside an index directory.
const CatalogFile = "catalog.db"

// ErrNotFound indicates a missing chunk or run.
var ErrNotFound = errors.New("not found")

// timeFormat is fixed-width so lexical order matches time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Catalog is the SQLite chunk catalog.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog at dbPath and creates the schema if
// needed. Parent directories are created.
func Open(dbPath string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	c, err := newCatalog(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// OpenInDir opens the catalog inside an index directory.
func OpenInDir(dir string) (*Catalog, error) {
	return Open(filepath.Join(dir, CatalogFile))
}

func newCatalog(db *sql.DB) (*Catalog, error) {
	version, err := GetSchemaVersion(db)
	if err != nil {
		return nil, fmt.Errorf("failed to check schema version: %w", err)
	}

	switch version {
	case "0":
		if err := CreateSchema(db); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	case SchemaVersion:
	default:
		return nil, fmt.Errorf("unsupported catalog schema version %s (expected %s)", version, SchemaVersion)
	}

	return &Catalog{db: db}, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

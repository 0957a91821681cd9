// Package cache implements the persistent embedding cache.
//
// The cache maps (document_id, content_hash) to an embedding vector in a
// SQLite database. A stored record is valid evidence of "embedding for
// current content" only when its hash exactly equals the caller's current
// hash; any other outcome reads as absent.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	dxerrors "github.com/docdex/docdex/internal/errors"
)

// Store is a durable key-value store of cached embeddings.
// One record per document ID; Put overwrites unconditionally.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Open opens (or creates) the embedding cache at path.
// An empty path opens an in-memory store for testing.
//
// Opening an existing store is idempotent and never destroys records.
// A corrupt existing store fails loudly with CacheUnavailable rather than
// silently discarding history.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, dxerrors.CacheUnavailable(
				fmt.Sprintf("cannot create cache directory %s", filepath.Dir(path)), err)
		}
		if err := validateIntegrity(path); err != nil {
			return nil, dxerrors.CacheUnavailable(
				fmt.Sprintf("existing cache at %s is corrupt", path), err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, dxerrors.CacheUnavailable("cannot open cache database", err)
	}

	// Single connection: SQLite is single-writer and this avoids lock
	// contention between the ingest writer and concurrent readers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL must be set via PRAGMA for modernc.org/sqlite; DSN params are ignored.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, dxerrors.CacheUnavailable("cannot set pragma", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, dxerrors.CacheUnavailable("cannot initialize cache schema", err)
	}
	return s, nil
}

// validateIntegrity checks an existing database file before opening it for
// writes. A missing file is fine; it will be created.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS embedding_cache (
		doc_id     TEXT PRIMARY KEY,
		doc_hash   TEXT NOT NULL,
		dims       INTEGER NOT NULL,
		embedding  BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the stored vector for docID only if the stored hash equals
// currentHash. No record or a hash mismatch returns (nil, false, nil); both
// mean the caller must recompute. The comparison is exact byte equality.
func (s *Store) Get(ctx context.Context, docID, currentHash string) ([]float32, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, dxerrors.CacheUnavailable("cache is closed", nil)
	}

	var storedHash string
	var dims int
	var blob []byte
	row := s.db.QueryRowContext(ctx,
		"SELECT doc_hash, dims, embedding FROM embedding_cache WHERE doc_id = ?", docID)
	if err := row.Scan(&storedHash, &dims, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, dxerrors.CacheUnavailable("cache read failed", err)
	}

	if storedHash != currentHash {
		return nil, false, nil
	}

	vec, err := decodeVector(blob, dims)
	if err != nil {
		return nil, false, dxerrors.CacheUnavailable(
			fmt.Sprintf("stored embedding for %s is malformed", docID), err)
	}
	return vec, true, nil
}

// Put upserts the embedding for docID, replacing any existing record.
// The hash and vector land in a single statement, so a concurrent reader
// never observes a hash from one write paired with an embedding from another.
func (s *Store) Put(ctx context.Context, docID, currentHash string, embedding []float32) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return dxerrors.CacheUnavailable("cache is closed", nil)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embedding_cache (doc_id, doc_hash, dims, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			doc_hash   = excluded.doc_hash,
			dims       = excluded.dims,
			embedding  = excluded.embedding,
			updated_at = excluded.updated_at`,
		docID, currentHash, len(embedding), encodeVector(embedding),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return dxerrors.CacheUnavailable("cache write failed", err)
	}
	return nil
}

// Count returns the number of cached records.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, dxerrors.CacheUnavailable("cache is closed", nil)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embedding_cache").Scan(&n); err != nil {
		return 0, dxerrors.CacheUnavailable("cache count failed", err)
	}
	return n, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Path returns the database file path ("" for in-memory stores).
func (s *Store) Path() string {
	return s.path
}

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// IngestLock enforces the single-writer-per-store discipline across
// processes: one ingestion process at a time may write the cache and index
// artifacts. Works on all platforms.
type IngestLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewIngestLock creates a lock scoped to the given artifact directory.
// The lock file is created at <dir>/.ingest.lock.
func NewIngestLock(dir string) *IngestLock {
	lockPath := filepath.Join(dir, ".ingest.lock")
	return &IngestLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns false if another ingestion process holds it.
func (l *IngestLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire ingest lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call on an unlocked IngestLock.
func (l *IngestLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release ingest lock: %w", err)
	}
	return nil
}

// Path returns the path to the lock file.
func (l *IngestLock) Path() string {
	return l.path
}

// Package corpus loads raw document sources from a directory of .txt files.
//
// Document IDs derive from filenames. The file listing is sorted by name so
// that document ordering is explicitly stable within a run, regardless of
// how the platform orders directory entries; index ordinals depend on it.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Source is one raw document: an identifier and its unprocessed text.
type Source struct {
	ID      string
	RawText string
}

// maxConcurrentReads bounds parallel file reads during a load.
const maxConcurrentReads = 8

// Load reads every .txt file under dir, in stable name order.
// The document ID is the filename without its extension.
func Load(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	sources := make([]Source, len(names))
	var g errgroup.Group
	g.SetLimit(maxConcurrentReads)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			sources[i] = Source{ID: docID(name), RawText: string(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

// Exists reports whether dir exists and contains at least one .txt document.
func Exists(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			return true
		}
	}
	return false
}

// docID strips the extension from a document filename.
func docID(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Package index implements an exact (brute-force) nearest-neighbor index
// over L2-normalized vectors.
//
// Inner product over normalized vectors equals cosine similarity, so search
// is a single O(N*D) scan. This is the correctness baseline any approximate
// replacement must match; corpus sizes here are small enough that it wins.
package index

import (
	"fmt"
	"math"
	"sort"
	"sync"

	dxerrors "github.com/docdex/docdex/internal/errors"
)

// DocMeta is the per-ordinal document snapshot stored next to the vectors.
// The vector itself lives only in the index structure.
type DocMeta struct {
	DocID  string
	Text   string
	Length int
}

// Entry pairs a raw embedding with its document snapshot at build time.
type Entry struct {
	Vector []float32
	Meta   DocMeta
}

// Hit is a single search result: the ordinal position, its snapshot, and the
// cosine similarity score in [-1, 1].
type Hit struct {
	Ordinal int
	Score   float32
	Meta    DocMeta
}

// Flat is an exact nearest-neighbor index. Ordinal positions are assigned by
// build order and are not stable across rebuilds, so the vector store and
// metadata are always persisted and reloaded together as one matched pair.
//
// Search is read-only and safe for concurrent use against a built or
// reloaded index; builds never mutate an existing index.
type Flat struct {
	mu      sync.RWMutex
	dims    int
	vectors [][]float32
	metas   []DocMeta
}

// Build constructs an index from entries. The first entry's dimension is
// authoritative; any later entry with a different dimension is a fatal
// DimensionMismatch and no index is produced. Every vector is L2-normalized
// into a private copy (a zero vector normalizes to itself).
func Build(entries []Entry) (*Flat, error) {
	idx := &Flat{}
	if len(entries) == 0 {
		return idx, nil
	}

	idx.dims = len(entries[0].Vector)
	idx.vectors = make([][]float32, len(entries))
	idx.metas = make([]DocMeta, len(entries))

	for i, e := range entries {
		if len(e.Vector) != idx.dims {
			return nil, dxerrors.DimensionMismatch(idx.dims, len(e.Vector))
		}
		idx.vectors[i] = normalize(e.Vector)
		idx.metas[i] = e.Meta
	}
	return idx, nil
}

// Search returns the topK highest-scoring entries for query, descending by
// score with ties broken by ascending ordinal. topK <= 0 returns an empty
// slice; topK greater than the corpus size returns all entries.
func (x *Flat) Search(query []float32, topK int) ([]Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.vectors) > 0 && len(query) != x.dims {
		return nil, dxerrors.DimensionMismatch(x.dims, len(query))
	}
	if topK <= 0 || len(x.vectors) == 0 {
		return []Hit{}, nil
	}

	q := normalize(query)

	hits := make([]Hit, len(x.vectors))
	for i, vec := range x.vectors {
		var dot float64
		for j := range q {
			dot += float64(q[j]) * float64(vec[j])
		}
		hits[i] = Hit{Ordinal: i, Score: float32(dot), Meta: x.metas[i]}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})

	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

// Dims returns the vector dimension (0 for an empty index).
func (x *Flat) Dims() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dims
}

// Len returns the number of indexed vectors.
func (x *Flat) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Meta returns the document snapshot at ordinal i.
func (x *Flat) Meta(i int) (DocMeta, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if i < 0 || i >= len(x.metas) {
		return DocMeta{}, fmt.Errorf("ordinal %d out of range [0,%d)", i, len(x.metas))
	}
	return x.metas[i], nil
}

// normalize returns an L2-normalized copy of v. The zero vector's normalized
// form is itself.
func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	out := make([]float32, len(v))
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		copy(out, v)
		return out
	}
	for i, val := range v {
		out[i] = float32(float64(val) / magnitude)
	}
	return out
}

// Package pipeline orchestrates embedding generation: normalize, hash,
// consult the persistent cache, batch-encode misses, write results back.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/docdex/docdex/internal/cache"
	"github.com/docdex/docdex/internal/corpus"
	"github.com/docdex/docdex/internal/embed"
	dxerrors "github.com/docdex/docdex/internal/errors"
	"github.com/docdex/docdex/internal/text"
)

// Document is a fully processed document ready for indexing.
// NormalizedText and ContentHash are recomputed every ingestion pass;
// Embedding is recomputed only when the hash changed.
type Document struct {
	ID             string
	NormalizedText string
	ContentHash    string
	Embedding      []float32
	Length         int
}

// Pipeline runs cache-aware embedding over a sequence of raw sources.
type Pipeline struct {
	cache    *cache.Store
	embedder embed.Embedder
	logger   *slog.Logger
}

// New creates a pipeline over the given cache and embedder.
func New(store *cache.Store, embedder embed.Embedder, logger *slog.Logger) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cache: store, embedder: embedder, logger: logger}, nil
}

// Run processes sources into Documents. Cache hits reuse stored embeddings;
// all misses are encoded in one batch call, and each new embedding is
// written to the cache before Run returns. Output order matches input order,
// so index ordinals are reproducible within a run.
//
// If the encode call fails for any miss, the whole run fails with
// EmbeddingFailure carrying the miss document IDs; no partial result is
// returned.
func (p *Pipeline) Run(ctx context.Context, sources []corpus.Source) ([]Document, error) {
	docs := make([]Document, len(sources))

	var missIndices []int
	var missTexts []string
	var missIDs []string

	for i, src := range sources {
		normalized := text.Normalize(src.RawText)
		hash := text.Hash(normalized)
		docs[i] = Document{
			ID:             src.ID,
			NormalizedText: normalized,
			ContentHash:    hash,
			Length:         utf8.RuneCountInString(normalized),
		}

		vec, ok, err := p.cache.Get(ctx, src.ID, hash)
		if err != nil {
			return nil, err
		}
		if ok {
			docs[i].Embedding = vec
			continue
		}
		missIndices = append(missIndices, i)
		missTexts = append(missTexts, normalized)
		missIDs = append(missIDs, src.ID)
	}

	p.logger.Info("pipeline_partitioned",
		slog.Int("documents", len(sources)),
		slog.Int("cache_hits", len(sources)-len(missIndices)),
		slog.Int("cache_misses", len(missIndices)))

	if len(missIndices) == 0 {
		return docs, nil
	}

	// One batch call per run; order maps outputs back to sources by index.
	embeddings, err := p.embedder.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, dxerrors.EmbeddingFailure(missIDs, err)
	}
	if len(embeddings) != len(missTexts) {
		return nil, dxerrors.EmbeddingFailure(missIDs,
			fmt.Errorf("encode returned %d vectors for %d texts", len(embeddings), len(missTexts)))
	}

	// Cache writes happen before the run reports success: a crash after
	// encoding but before caching only costs a recompute next run.
	for j, i := range missIndices {
		if err := p.cache.Put(ctx, docs[i].ID, docs[i].ContentHash, embeddings[j]); err != nil {
			return nil, err
		}
		docs[i].Embedding = embeddings[j]
	}

	return docs, nil
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docdex/docdex/internal/cache"
	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/corpus"
	"github.com/docdex/docdex/internal/embed"
	"github.com/docdex/docdex/internal/index"
	"github.com/docdex/docdex/internal/pipeline"
)

// timeRound is the display granularity for elapsed durations.
const timeRound = time.Millisecond

// ingestStats summarizes a completed ingest run.
type ingestStats struct {
	Documents int
	Dims      int
	Elapsed   time.Duration
}

func newEmbedder(cfg *config.Config) (embed.Embedder, error) {
	return embed.New(embed.Options{
		Provider:   cfg.Embeddings.Provider,
		Host:       cfg.Embeddings.Host,
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
		BatchSize:  cfg.Embeddings.BatchSize,
		Timeout:    cfg.Embeddings.Timeout.Std(),
		CacheSize:  cfg.Embeddings.CacheSize,
	})
}

// buildIndex runs the full ingest: read the corpus, embed documents through
// the cache, build the flat index, and persist both artifacts. Only one
// ingest per artifact directory may run at a time.
func buildIndex(ctx context.Context, cfg *config.Config, embedder embed.Embedder) (*index.Flat, ingestStats, error) {
	start := time.Now()

	sources, err := corpus.Load(cfg.Data.Dir)
	if err != nil {
		return nil, ingestStats{}, fmt.Errorf("load corpus: %w", err)
	}
	if len(sources) == 0 {
		return nil, ingestStats{}, fmt.Errorf("no .txt documents found in %s", cfg.Data.Dir)
	}

	lock := pipeline.NewIngestLock(cfg.ArtifactDir())
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, ingestStats{}, err
	}
	if !acquired {
		return nil, ingestStats{}, fmt.Errorf("another ingest is already running (lock at %s)", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, ingestStats{}, err
	}
	defer func() { _ = store.Close() }()

	pipe, err := pipeline.New(store, embedder, slog.Default())
	if err != nil {
		return nil, ingestStats{}, err
	}

	docs, err := pipe.Run(ctx, sources)
	if err != nil {
		return nil, ingestStats{}, err
	}

	entries := make([]index.Entry, len(docs))
	for i, doc := range docs {
		entries[i] = index.Entry{
			Vector: doc.Embedding,
			Meta: index.DocMeta{
				DocID:  doc.ID,
				Text:   doc.NormalizedText,
				Length: doc.Length,
			},
		}
	}

	idx, err := index.Build(entries)
	if err != nil {
		return nil, ingestStats{}, err
	}
	if err := idx.Save(cfg.Index.Path, cfg.Index.MetaPath); err != nil {
		return nil, ingestStats{}, err
	}

	stats := ingestStats{
		Documents: idx.Len(),
		Dims:      idx.Dims(),
		Elapsed:   time.Since(start),
	}
	slog.Info("ingest_completed",
		slog.Int("documents", stats.Documents),
		slog.Int("dimensions", stats.Dims),
		slog.Duration("elapsed", stats.Elapsed))
	return idx, stats, nil
}

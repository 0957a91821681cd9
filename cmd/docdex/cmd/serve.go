package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/corpus"
	"github.com/docdex/docdex/internal/embed"
	"github.com/docdex/docdex/internal/index"
	"github.com/docdex/docdex/internal/search"
	"github.com/docdex/docdex/internal/server"
	"github.com/docdex/docdex/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var host string
	var port int
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search server",
		Long: `Serve POST /search over the indexed corpus.

Existing index artifacts are loaded at startup; otherwise the corpus is
ingested first. Until an index is attached the server answers with a
retryable not-ready error instead of refusing connections.

With --watch, changes under the data directory trigger a debounced
rebuild and the live index is swapped without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if watch {
				cfg.Watch.Enabled = true
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Bind address (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rebuild the index when corpus files change")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = embedder.Close() }()

	var expander search.Expander
	if cfg.Search.ExpandQueries {
		expander = search.NewSynonymExpander()
	}

	srv := server.New(server.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		DefaultTopK: cfg.Search.TopK,
	}, embedder, expander, logger)

	if err := attachIndex(ctx, cfg, srv, embedder, logger); err != nil {
		return err
	}

	if cfg.Watch.Enabled {
		w := watcher.New(cfg.Data.Dir, func(ctx context.Context) error {
			idx, _, err := buildIndex(ctx, cfg, embedder)
			if err != nil {
				return err
			}
			srv.SetService(search.NewService(idx))
			return nil
		}, logger, watcher.WithDebounce(cfg.Watch.Debounce.Std()))
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	return srv.ListenAndServe(ctx)
}

// attachIndex loads persisted artifacts, falling back to a fresh ingest
// when none exist. A server with no corpus at all starts not-ready.
func attachIndex(ctx context.Context, cfg *config.Config, srv *server.Server, embedder embed.Embedder, logger *slog.Logger) error {
	idx, err := index.Load(cfg.Index.Path, cfg.Index.MetaPath)
	if err == nil {
		logger.Info("index_loaded",
			slog.String("path", cfg.Index.Path),
			slog.Int("documents", idx.Len()))
		srv.SetService(search.NewService(idx))
		return nil
	}
	logger.Warn("index_load_failed", slog.String("error", err.Error()))

	if !corpus.Exists(cfg.Data.Dir) {
		logger.Warn("no_corpus_found",
			slog.String("dir", cfg.Data.Dir),
			slog.String("hint", "server starts not-ready; run 'docdex index'"))
		return nil
	}

	built, _, err := buildIndex(ctx, cfg, embedder)
	if err != nil {
		return err
	}
	srv.SetService(search.NewService(built))
	return nil
}

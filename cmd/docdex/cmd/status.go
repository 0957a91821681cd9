package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/cache"
	"github.com/docdex/docdex/internal/corpus"
	"github.com/docdex/docdex/internal/index"
	"github.com/docdex/docdex/internal/output"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show corpus, cache, and index state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout())

			if sources, err := corpus.Load(cfg.Data.Dir); err == nil {
				out.Statusf("📚", "Corpus: %d documents in %s", len(sources), cfg.Data.Dir)
			} else {
				out.Warning("Corpus: " + cfg.Data.Dir + " not readable")
			}

			if _, err := os.Stat(cfg.Cache.Path); err == nil {
				if store, err := cache.Open(cfg.Cache.Path); err == nil {
					if n, err := store.Count(cmd.Context()); err == nil {
						out.Statusf("💾", "Cache: %d embeddings in %s", n, cfg.Cache.Path)
					}
					_ = store.Close()
				} else {
					out.Error("Cache: " + err.Error())
				}
			} else {
				out.Statusf("💾", "Cache: not created yet (%s)", cfg.Cache.Path)
			}

			idx, err := index.Load(cfg.Index.Path, cfg.Index.MetaPath)
			if err != nil {
				out.Statusf("🗂️ ", "Index: not built (run 'docdex index')")
				return nil
			}
			out.Statusf("🗂️ ", "Index: %d documents, %d dimensions (%s)",
				idx.Len(), idx.Dims(), cfg.Index.Path)
			return nil
		},
	}

	return cmd
}

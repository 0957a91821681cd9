package cmd

import (
	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/output"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Ingest the corpus and build the vector index",
		Long: `Read every .txt document under the data directory, embed documents
not already covered by the cache, and write the index artifacts.

Unchanged documents are served from the embedding cache and never
re-encoded.

Examples:
  docdex index
  docdex index --config ./docdex.yaml
  DOCDEX_EMBEDDER=static docdex index`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			embedder, err := newEmbedder(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = embedder.Close() }()

			out := output.New(cmd.OutOrStdout())
			out.Statusf("📚", "Indexing %s", cfg.Data.Dir)

			_, stats, err := buildIndex(cmd.Context(), cfg, embedder)
			if err != nil {
				return err
			}

			out.Successf("Indexed %d documents (%d dimensions) in %s",
				stats.Documents, stats.Dims, stats.Elapsed.Round(timeRound))
			out.Statusf("", "Index: %s", cfg.Index.Path)
			out.Statusf("", "Cache: %s", cfg.Cache.Path)
			return nil
		},
	}

	return cmd
}

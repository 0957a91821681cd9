package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/index"
	"github.com/docdex/docdex/internal/output"
	"github.com/docdex/docdex/internal/search"
	"github.com/docdex/docdex/internal/text"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit  int
	format string // "text", "json"
	expand bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed corpus",
		Long: `Embed the query and rank indexed documents by cosine similarity.

Examples:
  docdex search "lunar landing"
  docdex search "guidance computer" --limit 3
  docdex search "rocket engine" --expand --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.expand, "expand", false, "Expand the query with known synonyms")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.limit <= 0 {
		opts.limit = cfg.Search.TopK
	}

	svc, err := loadService(cfg)
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = embedder.Close() }()

	if opts.expand || cfg.Search.ExpandQueries {
		expanded := search.NewSynonymExpander().Expand(query)
		if expanded != query {
			slog.Debug("query_expanded",
				slog.String("original", query),
				slog.String("expanded", expanded))
			query = expanded
		}
	}

	queryVec, err := embedder.Embed(ctx, text.Normalize(query))
	if err != nil {
		return err
	}

	results, err := svc.Search(queryVec, opts.limit)
	if err != nil {
		return err
	}
	slog.Info("search_completed",
		slog.String("query", query),
		slog.Int("results", len(results)))

	out := output.New(cmd.OutOrStdout())
	if len(results) == 0 {
		out.Statusf("", "No results found for %q", query)
		return nil
	}

	switch opts.format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	default:
		return formatText(out, query, results)
	}
}

// loadService loads the persisted index artifacts into a search service.
func loadService(cfg *config.Config) (*search.Service, error) {
	idx, err := index.Load(cfg.Index.Path, cfg.Index.MetaPath)
	if err != nil {
		return nil, fmt.Errorf("no usable index (run 'docdex index' first): %w", err)
	}
	return search.NewService(idx), nil
}

// formatText prints ranked results in human-readable form.
func formatText(out *output.Writer, query string, results []search.Result) error {
	out.Statusf("🔍", "Found %d results for %q:", len(results), query)
	out.Newline()

	for i, r := range results {
		out.Statusf("", "%d. %s (score: %.4f)", i+1, r.DocID, r.Score)
		out.Statusf("", "   %s", r.Preview)
		out.Statusf("", "   %s | %d chars", r.Explanation.WhyThis, r.Explanation.DocLength)
		out.Newline()
	}
	return nil
}

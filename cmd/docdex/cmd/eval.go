package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/output"
	"github.com/docdex/docdex/internal/text"
)

// defaultEvalQueries exercise the index when no query file is given.
var defaultEvalQueries = []string{
	"space exploration missions",
	"computer guidance systems",
	"scientific research methods",
	"historical events",
	"engineering and design",
}

func newEvalCmd() *cobra.Command {
	var queriesFile string
	var limit int

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Measure search latency over a set of queries",
		Long: `Run a batch of queries against the loaded index and report per-query
and average latency. Reads queries from --queries (one per line) or
falls back to a built-in set.

Examples:
  docdex eval
  docdex eval --queries queries.txt --limit 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			queries := defaultEvalQueries
			if queriesFile != "" {
				loaded, err := readQueries(queriesFile)
				if err != nil {
					return err
				}
				queries = loaded
			}
			return runEval(cmd.Context(), cmd, queries, limit)
		},
	}

	cmd.Flags().StringVar(&queriesFile, "queries", "", "File with one query per line")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Results per query (default from config)")

	return cmd
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries in %s", path)
	}
	return queries, nil
}

func runEval(ctx context.Context, cmd *cobra.Command, queries []string, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = cfg.Search.TopK
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

	out := output.New(cmd.OutOrStdout())
	out.Statusf("⏱️ ", "Evaluating %d queries against %d documents", len(queries), svc.Len())
	out.Newline()

	var total time.Duration
	for _, query := range queries {
		start := time.Now()
		vec, err := embedder.Embed(ctx, text.Normalize(query))
		if err != nil {
			return err
		}
		results, err := svc.Search(vec, limit)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		total += elapsed

		top := "(no results)"
		if len(results) > 0 {
			top = fmt.Sprintf("%s (%.4f)", results[0].DocID, results[0].Score)
		}
		out.Statusf("", "%-40q %8s  top: %s", query, elapsed.Round(timeRound), top)
	}

	out.Newline()
	avg := total / time.Duration(len(queries))
	out.Successf("Average latency: %s over %d queries", avg.Round(timeRound), len(queries))
	return nil
}

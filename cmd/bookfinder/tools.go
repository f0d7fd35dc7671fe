package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/bookfinder-io/bookfinder/internal/domain/search/request"
)

func newPipelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline",
		Short: "Ingest CSV files from the data directory into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.pipeline.Run(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the catalog and persist it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.indexer.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func newSearchCmd() *cobra.Command {
	var (
		topK           int
		semanticWeight float64
		keywordWeight  float64
		genres         []string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid search against the persisted index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), args[0], topK, semanticWeight, keywordWeight, genres)
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 0, "maximum results (default 20)")
	cmd.Flags().Float64Var(&semanticWeight, "semantic-weight", 0, "embedding similarity weight (default 0.7)")
	cmd.Flags().Float64Var(&keywordWeight, "keyword-weight", 0, "keyword similarity weight (default 0.3)")
	cmd.Flags().StringSliceVar(&genres, "genres", nil, "genre substring filter, comma-separated")
	return cmd
}

func runSearch(
	ctx context.Context,
	query string,
	topK int,
	semanticWeight, keywordWeight float64,
	genres []string,
) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.indexer.Bootstrap(ctx)
	if a.holder.Corpus() == nil {
		return fmt.Errorf("no index found, run reindex first")
	}

	req, err := request.New(query, topK, semanticWeight, keywordWeight, genres)
	if err != nil {
		return err
	}

	results, err := a.search.Search(ctx, &req)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results")
		return nil
	}

	for i := range results {
		r := &results[i]
		book := r.Book()
		fmt.Printf("%2d. %-60s score=%.4f (sem=%.4f kw=%.4f)\n",
			i+1, truncate(book.Title, 60), r.Combined(), r.Semantic(), r.Keyword())
		fmt.Printf("    isbn=%s  %s\n", book.ISBN, truncate(book.Authors, 70))
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			a.indexer.Bootstrap(cmd.Context())

			dbStats, err := a.catalog.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"index":    a.indexer.Stats(),
				"database": dbStats,
			})
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

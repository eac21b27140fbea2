package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/flowdex/internal/domain/search/filter"
	"github.com/kailas-cloud/flowdex/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/flowdex/internal/logger"
	chiTransport "github.com/kailas-cloud/flowdex/internal/transport/chi"
)

var (
	searchServices   []string
	searchCategory   string
	searchComplexity string
	searchLimit      int
	searchNoEmbed    bool
	searchExplain    bool
)

func init() {
	searchCmd.Flags().StringSliceVar(&searchServices, "service", nil, "required service (repeatable)")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "exact category")
	searchCmd.Flags().StringVar(&searchComplexity, "complexity", "", "low, medium, high or unknown")
	searchCmd.Flags().IntVar(&searchLimit, "limit", request.DefaultLimit, "maximum results (1-100)")
	searchCmd.Flags().BoolVar(&searchNoEmbed, "no-embed", false, "lexical-only ranking")
	searchCmd.Flags().BoolVar(&searchExplain, "explain", false, "include per-signal scores and ranks")
}

// searchCmd runs one query against the corpus and prints JSON
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the corpus once and print JSON results",
	Long: `Load the corpus, run one search and print the results as JSON.
An empty query lists documents in corpus order.

Examples:
  flowdex search "send telegram alerts" --limit 5
  flowdex search "invoice" --service stripe --complexity high --no-embed
  flowdex search --category finance`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logpkg.NewLogger("cli", cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger, !searchNoEmbed)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.loadCorpus(ctx); err != nil {
		return err
	}

	f, err := filter.New(searchServices, searchCategory, searchComplexity)
	if err != nil {
		return err
	}
	req, err := request.New(strings.Join(args, " "), f, searchLimit, searchExplain)
	if err != nil {
		return err
	}

	resp, err := a.search.Search(ctx, &req)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(chiTransport.NewSearchResponse(resp))
}

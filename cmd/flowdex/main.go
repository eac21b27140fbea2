// Package main is the flowdex CLI: run the search service or query a corpus directly.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/flowdex/internal/version"
)

var (
	// envName selects config/<env>.yaml
	envName string
	// corpusDir overrides corpus.dir from the config file
	corpusDir string
	// logLevel overrides logging.level
	logLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flowdex",
	Short: "Hybrid search over workflow templates",
	Long: `flowdex ranks workflow templates for a natural-language query by blending
typo-tolerant lexical matching with embedding similarity.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "config environment (default: $ENV or local)")
	rootCmd.PersistentFlags().StringVar(&corpusDir, "corpus", "", "corpus directory (overrides corpus.dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(checkCmd)
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	logpkg "github.com/kailas-cloud/flowdex/internal/logger"
	chiTransport "github.com/kailas-cloud/flowdex/internal/transport/chi"
)

var errEmptyCorpus = errors.New("no documents accepted")

// checkCmd validates the corpus directory
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the corpus and print the load report",
	Long: `Read the corpus directory, validate every record and print the load report
as JSON. Exits non-zero when no document is accepted.

Examples:
  flowdex check --corpus ./workflows`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logpkg.NewLogger("cli", cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.loadCorpus(cmd.Context())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(chiTransport.NewReloadResponse(report)); err != nil {
		return err
	}
	if report.Accepted == 0 {
		return errEmptyCorpus
	}
	return nil
}

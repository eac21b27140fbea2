package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/flowdex/internal/logger"
	chiTransport "github.com/kailas-cloud/flowdex/internal/transport/chi"
	"github.com/kailas-cloud/flowdex/internal/version"
)

// serveCmd runs the HTTP search service
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP search service",
	Long: `Load the corpus and serve POST /search, GET /documents/{id},
POST /corpus/reload, GET /health and GET /metrics.

Examples:
  # Serve with config/local.yaml
  flowdex serve

  # Serve another corpus directory
  flowdex serve --corpus ./workflows`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting flowdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("corpus_dir", cfg.Corpus.Dir),
		zap.Bool("embeddings", cfg.Embedding.Enabled()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.loadCorpus(ctx); err != nil {
		return fmt.Errorf("initial corpus load: %w", err)
	}

	if cfg.Corpus.Watch {
		go func() {
			debounce := time.Duration(cfg.Corpus.DebounceMs) * time.Millisecond
			if err := a.catalog.Watch(ctx, a.loader, debounce); err != nil {
				logger.Error("corpus watcher stopped", zap.Error(err))
			}
		}()
	}

	server := chiTransport.NewServer(a.search, a.catalog, a.health, logger)
	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

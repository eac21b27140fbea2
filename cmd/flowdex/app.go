package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/flowdex/internal/config"
	"github.com/kailas-cloud/flowdex/internal/corpus"
	"github.com/kailas-cloud/flowdex/internal/db"
	dbRedis "github.com/kailas-cloud/flowdex/internal/db/redis"
	"github.com/kailas-cloud/flowdex/internal/domain"
	"github.com/kailas-cloud/flowdex/internal/metrics"
	"github.com/kailas-cloud/flowdex/internal/repository/corpusfs"
	"github.com/kailas-cloud/flowdex/internal/repository/embcache"
	openaiEmb "github.com/kailas-cloud/flowdex/internal/transport/openai"
	catalogU "github.com/kailas-cloud/flowdex/internal/usecase/catalog"
	embeddinguc "github.com/kailas-cloud/flowdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/flowdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/flowdex/internal/usecase/search"
)

// app is the composition root shared by every subcommand.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	loader  *corpusfs.Loader
	holder  *corpus.Catalog
	catalog *catalogU.Service
	search  *searchuc.Service
	health  *healthuc.Service
	cache   db.Store
}

// loadConfig reads config/<env>.yaml. When no file exists but --corpus is set,
// defaults are used so one-shot commands work without a config directory.
func loadConfig() (config.Config, string, error) {
	env := envName
	if env == "" {
		env = config.GetEnv()
	}
	cfg, err := config.Load(env)
	if err != nil {
		if corpusDir == "" {
			return config.Config{}, env, fmt.Errorf("load config: %w", err)
		}
		cfg = config.Config{HTTP: config.HTTPConfig{Port: 8080}}
		cfg.ApplyDefaults()
	}
	if corpusDir != "" {
		cfg.Corpus.Dir = corpusDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, env, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, env, nil
}

// newApp wires repositories, embedders and use cases. withEmbeddings=false
// leaves the semantic signal off and every ranked search runs lexical-only.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, withEmbeddings bool) (*app, error) {
	metrics.Register()

	a := &app{cfg: cfg, logger: logger}
	a.loader = corpusfs.New(cfg.Corpus.Dir, logger)
	a.holder = corpus.NewCatalog(logger)

	var docEmbedder, queryEmbedder domain.Embedder
	if withEmbeddings && cfg.Embedding.Enabled() {
		if cfg.Embedding.Cache.Driver != "none" {
			store, err := dbRedis.NewStore(dbRedis.Config{
				Addrs:    cfg.Embedding.Cache.Addrs,
				Password: cfg.Embedding.Cache.Password,
			})
			if err != nil {
				return nil, fmt.Errorf("create embedding cache store: %w", err)
			}
			readiness := time.Duration(cfg.Embedding.Cache.ReadinessTimeout) * time.Second
			if err := store.WaitForReady(ctx, readiness); err != nil {
				store.Close()
				return nil, fmt.Errorf("embedding cache not ready: %w", err)
			}
			a.cache = store
			logger.Info("Connected to embedding cache",
				zap.String("driver", cfg.Embedding.Cache.Driver),
				zap.Strings("addrs", cfg.Embedding.Cache.Addrs),
			)
		}

		var err error
		docEmbedder, err = buildEmbedder(cfg.Embedding, cfg.Embedding.DocumentInstruction, 0, a.cache, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		queryEmbedder, err = buildEmbedder(
			cfg.Embedding, cfg.Embedding.QueryInstruction, cfg.Embedding.QueryCacheSize, a.cache, logger,
		)
		if err != nil {
			a.Close()
			return nil, err
		}
		logger.Info("Embedders created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	a.catalog = catalogU.New(a.loader, a.holder, docEmbedder, catalogU.Options{
		Warm:        cfg.Corpus.WarmOnLoad,
		WarmWorkers: cfg.Corpus.WarmWorkers,
	}, logger)

	a.search = searchuc.New(a.holder, queryEmbedder, docEmbedder, searchuc.Config{
		Lexical: searchuc.LexicalConfig{
			Weights: searchuc.FieldWeights{
				Title:       cfg.Search.FieldWeights.Title,
				Description: cfg.Search.FieldWeights.Description,
				Services:    cfg.Search.FieldWeights.Services,
				Actions:     cfg.Search.FieldWeights.Actions,
				Keywords:    cfg.Search.FieldWeights.Keywords,
			},
			Threshold: *cfg.Search.LexicalThreshold,
			PoolSize:  cfg.Search.LexicalPool,
		},
		SemanticPoolSize: cfg.Search.SemanticPool,
		EmbedConcurrency: cfg.Embedding.Concurrency,
		Fusion: searchuc.FusionWeights{
			Lexical:  cfg.Search.Fusion.Lexical,
			Semantic: cfg.Search.Fusion.Semantic,
		},
	})

	// Pass nil interfaces (not typed nil pointers) for absent components.
	var pinger healthuc.DBPinger
	if a.cache != nil {
		pinger = a.cache
	}
	var embChecker healthuc.EmbeddingChecker
	if hc, ok := docEmbedder.(domain.HealthChecker); ok {
		embChecker = hc
	}
	a.health = healthuc.New(a.corpusReader, pinger, embChecker)
	return a, nil
}

func (a *app) corpusReader() healthuc.CorpusReader {
	if s := a.holder.Snapshot(); s != nil {
		return s
	}
	return nil
}

// Close releases the cache connection.
func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// buildEmbedder assembles the decorator chain:
// OpenAI -> KV cache -> LRU (queries only) -> Timeout -> Instrumented -> Instruction.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	instruction string,
	lruSize int,
	store db.KVStore,
	logger *zap.Logger,
) (domain.Embedder, error) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		embedder = embcache.New(embedder, store, cfg.Model, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	if lruSize > 0 {
		lru, err := embcache.NewLRU(embedder, lruSize, metrics.EmbeddingCacheTotal)
		if err != nil {
			return nil, fmt.Errorf("create query cache: %w", err)
		}
		embedder = lru
	}

	embedder = embeddinguc.NewTimeoutEmbedder(embedder, time.Duration(cfg.TimeoutMs)*time.Millisecond)
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)

	// Instruction prefix is outermost so cache keys include it.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction), nil
	}
	return embedder, nil
}

// loadCorpus performs the initial corpus load and logs the rejected records.
func (a *app) loadCorpus(ctx context.Context) (corpus.LoadReport, error) {
	report, err := a.catalog.Reload(ctx)
	if err != nil {
		return report, err
	}
	if report.Accepted == 0 {
		a.logger.Warn("corpus is empty", zap.String("dir", a.cfg.Corpus.Dir))
	}
	return report, nil
}

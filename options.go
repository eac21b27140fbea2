package flowdex

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	corpusDir string
	embedder  Embedder

	embedTimeout     time.Duration
	queryCacheSize   int
	embedConcurrency int

	fieldWeights     FieldWeights
	fusion           FusionWeights
	lexicalThreshold float64
	lexicalPool      int
	semanticPool     int

	warm   bool
	logger *zap.Logger
}

// FieldWeights weighs each searchable field in the lexical score.
type FieldWeights struct {
	Title       float64
	Description float64
	Services    float64
	Actions     float64
	Keywords    float64
}

// FusionWeights blends the lexical and semantic scores.
type FusionWeights struct {
	Lexical  float64
	Semantic float64
}

// WithCorpusDir sets the directory Reload reads workflow records from.
func WithCorpusDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.corpusDir = dir
	})
}

// WithEmbedder sets the embedding provider. Without one, search is lexical-only.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithEmbedFunc sets the embedding provider from a plain function.
func WithEmbedFunc(fn func(ctx context.Context, text string) ([]float32, error)) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = EmbedFunc(fn)
	})
}

// WithEmbedTimeout bounds each provider call. A timed-out call counts as a failure.
// Defaults to 5s.
func WithEmbedTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedTimeout = d
	})
}

// WithQueryCache keeps the embeddings of the last size distinct queries in memory.
func WithQueryCache(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryCacheSize = size
	})
}

// WithEmbedConcurrency caps concurrent document embedding calls per search. Defaults to 8.
func WithEmbedConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedConcurrency = n
	})
}

// WithFieldWeights overrides the lexical field weights (default 0.4/0.3/0.15/0.1/0.05).
func WithFieldWeights(w FieldWeights) Option {
	return optionFunc(func(c *clientConfig) {
		c.fieldWeights = w
	})
}

// WithFusionWeights overrides the lexical/semantic blend (default 0.6/0.4).
func WithFusionWeights(lexical, semantic float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.fusion = FusionWeights{Lexical: lexical, Semantic: semantic}
	})
}

// WithLexicalThreshold sets the minimum lexical score for a document to enter
// the lexical pool (default 0.3).
func WithLexicalThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.lexicalThreshold = t
	})
}

// WithPoolSizes sets how many candidates each matcher contributes (default 20/20).
func WithPoolSizes(lexical, semantic int) Option {
	return optionFunc(func(c *clientConfig) {
		c.lexicalPool = lexical
		c.semanticPool = semantic
	})
}

// WithWarmUp precomputes document embeddings after every load.
func WithWarmUp() Option {
	return optionFunc(func(c *clientConfig) {
		c.warm = true
	})
}

// WithLogger sets the zap logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

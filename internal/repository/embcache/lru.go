package embcache

import (
	"context"
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/flowdex/internal/domain"
)

// DefaultLRUSize bounds the in-process query embedding cache.
const DefaultLRUSize = 1024

// LRUEmbedder keeps recently used embeddings in process memory.
// Repeated queries skip the provider entirely.
type LRUEmbedder struct {
	inner      domain.Embedder
	cache      *lru.Cache[[32]byte, []float32]
	cacheTotal *prometheus.CounterVec
}

// NewLRU creates an in-process caching decorator holding up to size entries.
func NewLRU(inner domain.Embedder, size int, cacheTotal *prometheus.CounterVec) (*LRUEmbedder, error) {
	if size <= 0 {
		size = DefaultLRUSize
	}
	cache, err := lru.New[[32]byte, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &LRUEmbedder{inner: inner, cache: cache, cacheTotal: cacheTotal}, nil
}

// Embed returns a cached vector or delegates. Failures are not cached.
func (c *LRUEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := sha256.Sum256([]byte(text))
	if vec, ok := c.cache.Get(key); ok {
		c.inc("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.inc("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	c.cache.Add(key, result.Embedding)
	return result, nil
}

// Len returns the number of cached entries.
func (c *LRUEmbedder) Len() int { return c.cache.Len() }

// HealthCheck delegates to the inner embedder when it supports health checks.
func (c *LRUEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func (c *LRUEmbedder) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues("lru", result).Inc()
	}
}

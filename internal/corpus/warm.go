package corpus

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/flowdex/internal/domain"
)

// WarmStats reports the outcome of a warm-up pass.
type WarmStats struct {
	Embedded int
	Failed   int
}

// Warm precomputes document embeddings on a bounded worker pool.
// It only fills the memo; ranking results are the same with or without it.
func (s *Store) Warm(ctx context.Context, embedder domain.Embedder, workers int) (WarmStats, error) {
	if embedder == nil {
		return WarmStats{}, domain.ErrEmbedderNotConfigured
	}
	if workers <= 0 {
		workers = max(runtime.NumCPU()/2, 1)
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return WarmStats{}, fmt.Errorf("create warm pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		embedded atomic.Int64
		failed   atomic.Int64
	)
	for _, e := range s.entries {
		if ctx.Err() != nil {
			break
		}
		if e.embedding.Load() != nil {
			continue
		}
		id := e.doc.ID()
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if _, err := s.EmbeddingOf(ctx, id, embedder); err != nil {
				failed.Add(1)
				return
			}
			embedded.Add(1)
		}); err != nil {
			wg.Done()
			failed.Add(1)
		}
	}
	wg.Wait()

	stats := WarmStats{Embedded: int(embedded.Load()), Failed: int(failed.Load())}
	s.logger.Info("corpus warm-up finished",
		zap.Int("embedded", stats.Embedded),
		zap.Int("failed", stats.Failed),
	)
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("warm corpus: %w", err)
	}
	return stats, nil
}

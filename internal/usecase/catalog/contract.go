package catalog

import (
	"context"
	"time"

	"github.com/kailas-cloud/flowdex/internal/corpus"
	"github.com/kailas-cloud/flowdex/internal/domain"
	"github.com/kailas-cloud/flowdex/internal/repository/corpusfs"
)

// Source produces raw corpus records.
type Source interface {
	Load(ctx context.Context) (corpusfs.Batch, error)
}

// Holder stores the live corpus snapshot.
type Holder interface {
	Snapshot() *corpus.Store
	Swap(s *corpus.Store) *corpus.Store
}

// Embedder vectorizes document text for warm-up.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Watcher notifies about source changes.
type Watcher interface {
	Watch(ctx context.Context, debounce time.Duration, onChange func(context.Context)) error
}

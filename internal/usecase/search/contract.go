package search

import (
	"context"

	"github.com/kailas-cloud/flowdex/internal/corpus"
	"github.com/kailas-cloud/flowdex/internal/domain"
)

// Corpus provides the current corpus snapshot.
type Corpus interface {
	Snapshot() *corpus.Store
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

package flowdex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/flowdex/internal/domain"
)

// Embedder turns text into a fixed-length vector. Implementations must be
// safe for concurrent use and return vectors of one dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is the output of one provider call.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbedFunc adapts a plain function to the Embedder interface.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Embed calls f.
func (f EmbedFunc) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	vec, err := f(ctx, text)
	if err != nil {
		return EmbeddingResult{}, err
	}
	return EmbeddingResult{Embedding: vec}, nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/flowdex/internal/domain"
)

// DefaultTimeout bounds a single embedding call.
const DefaultTimeout = 5 * time.Second

// TimeoutEmbedder bounds every call to the inner embedder.
// The result is returned as soon as the deadline passes even if the inner
// embedder ignores its context.
type TimeoutEmbedder struct {
	inner   domain.Embedder
	timeout time.Duration
}

// NewTimeoutEmbedder wraps inner with a per-call deadline. Non-positive timeouts use DefaultTimeout.
func NewTimeoutEmbedder(inner domain.Embedder, timeout time.Duration) *TimeoutEmbedder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TimeoutEmbedder{inner: inner, timeout: timeout}
}

type embedOutcome struct {
	res domain.EmbeddingResult
	err error
}

// Embed calls the inner embedder with a deadline. Exceeding it yields ErrEmbeddingTimeout.
func (e *TimeoutEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan embedOutcome, 1)
	go func() {
		res, err := e.inner.Embed(ctx, text)
		done <- embedOutcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) {
			return domain.EmbeddingResult{}, fmt.Errorf("after %s: %w", e.timeout, domain.ErrEmbeddingTimeout)
		}
		return out.res, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.EmbeddingResult{}, fmt.Errorf("after %s: %w", e.timeout, domain.ErrEmbeddingTimeout)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", ctx.Err())
	}
}

// HealthCheck delegates to the inner embedder under the same deadline.
func (e *TimeoutEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := e.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
}

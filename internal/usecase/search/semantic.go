package search

import (
	"cmp"
	"context"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/flowdex/internal/corpus"
	"github.com/kailas-cloud/flowdex/internal/domain"
)

// DefaultEmbedConcurrency bounds parallel document embedding resolution per search.
const DefaultEmbedConcurrency = 8

// SemanticMatcher ranks documents by cosine similarity to the query embedding.
type SemanticMatcher struct {
	poolSize    int
	concurrency int
}

// NewSemanticMatcher creates a semantic matcher. Non-positive values fall back to defaults.
func NewSemanticMatcher(poolSize, concurrency int) *SemanticMatcher {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	if concurrency <= 0 {
		concurrency = DefaultEmbedConcurrency
	}
	return &SemanticMatcher{poolSize: poolSize, concurrency: concurrency}
}

// Match compares queryVec against every document embedding in store, resolving
// missing ones through docEmbed. Documents whose embedding cannot be resolved,
// has zero norm, or has a different dimension are skipped.
func (m *SemanticMatcher) Match(
	ctx context.Context, queryVec []float32, store *corpus.Store, docEmbed domain.Embedder,
) []Match {
	if len(queryVec) == 0 || store == nil || store.Len() == 0 {
		return nil
	}

	type slot struct {
		score float64
		ok    bool
	}
	slots := make([]slot, store.Len())
	ids := make([]string, store.Len())

	g := new(errgroup.Group)
	g.SetLimit(m.concurrency)
	for ord, doc := range store.All() {
		id := doc.ID()
		ids[ord] = id
		g.Go(func() error {
			vec, err := store.EmbeddingOf(ctx, id, docEmbed)
			if err != nil {
				return nil // no signal for this document
			}
			if s, ok := cosine(queryVec, vec); ok {
				slots[ord] = slot{score: s, ok: true}
			}
			return nil
		})
	}
	_ = g.Wait()

	matches := make([]Match, 0, len(slots))
	for ord, s := range slots {
		if s.ok {
			matches = append(matches, Match{DocID: ids[ord], Ordinal: ord, Score: s.score})
		}
	}
	slices.SortStableFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})
	if len(matches) > m.poolSize {
		matches = matches[:m.poolSize]
	}
	return matches
}

// cosine returns the cosine similarity of a and b clamped to [-1, 1].
// It reports false when either vector has zero norm or the dimensions differ.
func cosine(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return max(-1, min(1, s)), true
}

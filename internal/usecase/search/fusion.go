package search

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/kailas-cloud/flowdex/internal/corpus"
	"github.com/kailas-cloud/flowdex/internal/domain/search/filter"
	"github.com/kailas-cloud/flowdex/internal/domain/search/result"
)

// FusionWeights combines lexical and semantic scores.
type FusionWeights struct {
	Lexical  float64
	Semantic float64
}

// DefaultFusionWeights returns 0.6 lexical / 0.4 semantic.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Lexical: 0.6, Semantic: 0.4}
}

// Validate rejects negative weights and an all-zero pair.
func (w FusionWeights) Validate() error {
	if w.Lexical < 0 || w.Semantic < 0 {
		return fmt.Errorf("fusion weights must be >= 0")
	}
	if w.Lexical+w.Semantic <= 0 {
		return fmt.Errorf("fusion weights must sum to a positive number")
	}
	return nil
}

// fuse merges the two ranked pools into candidates, filters them, orders them
// and truncates to limit. A document missing from one pool scores 0 and is
// not ranked there.
//
// Order: combined score desc, then lexical rank asc (not ranked last), then
// insertion order asc.
func fuse(
	store *corpus.Store, lexical, semantic []Match, filters filter.Filters, w FusionWeights, limit int,
) []result.Candidate {
	type partial struct {
		ordinal  int
		lexical  result.Signal
		semantic result.Signal
	}
	merged := make(map[string]*partial, len(lexical)+len(semantic))
	order := make([]string, 0, len(lexical)+len(semantic))

	get := func(m Match) *partial {
		p, ok := merged[m.DocID]
		if !ok {
			p = &partial{ordinal: m.Ordinal}
			merged[m.DocID] = p
			order = append(order, m.DocID)
		}
		return p
	}
	for i, m := range lexical {
		get(m).lexical = result.Signal{Score: m.Score, Rank: result.RankAt(i + 1)}
	}
	for i, m := range semantic {
		get(m).semantic = result.Signal{Score: m.Score, Rank: result.RankAt(i + 1)}
	}

	candidates := make([]result.Candidate, 0, len(merged))
	for _, id := range order {
		doc, ok := store.Get(id)
		if !ok {
			continue
		}
		if !filters.Matches(doc) {
			continue
		}
		p := merged[id]
		candidates = append(candidates,
			result.NewCandidate(*doc, p.ordinal, p.lexical, p.semantic, w.Lexical, w.Semantic))
	}

	slices.SortFunc(candidates, compareCandidates)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// compareCandidates orders by combined score, then by lexical rank with unranked
// candidates after ranked ones, then by insertion order. A candidate holding a lexical
// rank therefore beats an unranked one at equal score even when it was inserted later;
// falling back to insertion order for that pair would not give a total order.
func compareCandidates(a, b result.Candidate) int {
	if c := cmp.Compare(b.Combined(), a.Combined()); c != 0 {
		return c
	}
	ar, br := a.Lexical().Rank, b.Lexical().Rank
	switch {
	case ar.Less(br):
		return -1
	case br.Less(ar):
		return 1
	}
	return cmp.Compare(a.Ordinal(), b.Ordinal())
}

// browse returns the first limit documents in insertion order that pass filters,
// each with a zero score.
func browse(store *corpus.Store, filters filter.Filters, limit int) []result.Result {
	out := make([]result.Result, 0, min(limit, store.Len()))
	for _, doc := range store.All() {
		if len(out) >= limit {
			break
		}
		if !filters.Matches(doc) {
			continue
		}
		out = append(out, result.New(*doc, 0))
	}
	return out
}

package search

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/kailas-cloud/flowdex/internal/corpus"
	"github.com/kailas-cloud/flowdex/internal/domain/document"
)

// Lexical matcher defaults.
const (
	DefaultLexicalThreshold = 0.3
	DefaultPoolSize         = 20

	defaultMinTokenSimilarity = 0.7
	containedTokenSimilarity  = 0.9
	minContainedTokenLen      = 3
	scorePrecision            = 1e4
)

// FieldWeights weighs per-field similarity when deciding whether a document is accepted.
type FieldWeights struct {
	Title       float64
	Description float64
	Services    float64
	Actions     float64
	Keywords    float64
}

// DefaultFieldWeights returns 0.4/0.3/0.15/0.1/0.05.
func DefaultFieldWeights() FieldWeights {
	return FieldWeights{Title: 0.4, Description: 0.3, Services: 0.15, Actions: 0.1, Keywords: 0.05}
}

// Of returns the weight of a field.
func (w FieldWeights) Of(f document.Field) float64 {
	switch f {
	case document.FieldTitle:
		return w.Title
	case document.FieldDescription:
		return w.Description
	case document.FieldServices:
		return w.Services
	case document.FieldActions:
		return w.Actions
	case document.FieldKeywords:
		return w.Keywords
	default:
		return 0
	}
}

// Sum returns the total weight.
func (w FieldWeights) Sum() float64 {
	return w.Title + w.Description + w.Services + w.Actions + w.Keywords
}

// Validate rejects negative weights and an all-zero set.
func (w FieldWeights) Validate() error {
	for _, f := range document.Fields() {
		if w.Of(f) < 0 {
			return fmt.Errorf("field weight %s must be >= 0", f)
		}
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("field weights must sum to a positive number")
	}
	return nil
}

// LexicalConfig tunes the lexical matcher. Zero values fall back to defaults.
type LexicalConfig struct {
	Weights   FieldWeights
	Threshold float64
	PoolSize  int
}

// Match is one matcher hit. Ordinal is the corpus insertion position.
type Match struct {
	DocID   string
	Ordinal int
	Score   float64
}

// LexicalMatcher scores documents by typo-tolerant token similarity over weighted fields.
type LexicalMatcher struct {
	weights   FieldWeights
	weightSum float64
	threshold float64
	poolSize  int
}

// NewLexicalMatcher creates a lexical matcher.
func NewLexicalMatcher(cfg LexicalConfig) *LexicalMatcher {
	if cfg.Weights == (FieldWeights{}) {
		cfg.Weights = DefaultFieldWeights()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultLexicalThreshold
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	return &LexicalMatcher{
		weights:   cfg.Weights,
		weightSum: cfg.Weights.Sum(),
		threshold: cfg.Threshold,
		poolSize:  cfg.PoolSize,
	}
}

// Match ranks the documents of store against query. A document is accepted when its
// weighted field similarity reaches the threshold; it is ranked by its lexical score,
// then by weighted similarity. An empty or token-less query matches nothing. Ties keep
// insertion order.
func (m *LexicalMatcher) Match(query string, store *corpus.Store) []Match {
	qTokens := uniqueTokens(document.Tokenize(query))
	if len(qTokens) == 0 || store == nil {
		return nil
	}

	type hit struct {
		Match
		weighted float64
	}
	var hits []hit
	for ord, doc := range store.All() {
		score, weighted := m.Score(qTokens, doc)
		if weighted < m.threshold {
			continue
		}
		hits = append(hits, hit{Match: Match{DocID: doc.ID(), Ordinal: ord, Score: score}, weighted: weighted})
	}

	slices.SortStableFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.weighted, a.weighted); c != 0 {
			return c
		}
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})
	if len(hits) > m.poolSize {
		hits = hits[:m.poolSize]
	}
	matches := make([]Match, len(hits))
	for i := range hits {
		matches[i] = hits[i].Match
	}
	return matches
}

// Score returns the lexical score of doc for the query tokens, which is the similarity
// of its best matching field, and the weighted similarity across all fields normalized
// by the weight sum. Both are rounded to four decimals.
func (m *LexicalMatcher) Score(qTokens []string, doc *document.Document) (score, weighted float64) {
	if len(qTokens) == 0 || m.weightSum <= 0 {
		return 0, 0
	}
	var total float64
	for _, f := range document.Fields() {
		w := m.weights.Of(f)
		if w == 0 {
			continue
		}
		sim := fieldSimilarity(qTokens, doc.FieldTokens(f))
		score = max(score, sim)
		total += w * sim
	}
	return round4(score), round4(total / m.weightSum)
}

func round4(v float64) float64 {
	return math.Round(v*scorePrecision) / scorePrecision
}

// fieldSimilarity averages, over query tokens, the best similarity against the field tokens.
func fieldSimilarity(qTokens, fTokens []string) float64 {
	if len(fTokens) == 0 {
		return 0
	}
	var sum float64
	for _, q := range qTokens {
		best := 0.0
		for _, t := range fTokens {
			if s := tokenSimilarity(q, t); s > best {
				best = s
				if best == 1 {
					break
				}
			}
		}
		sum += best
	}
	return sum / float64(len(qTokens))
}

// tokenSimilarity is 1 - levenshtein/maxLen, with partial credit for a query token
// contained in a longer field token. Similarities below the floor count as no match.
func tokenSimilarity(q, t string) float64 {
	if q == t {
		return 1
	}
	ql, tl := utf8.RuneCountInString(q), utf8.RuneCountInString(t)
	if ql >= minContainedTokenLen && strings.Contains(t, q) {
		return containedTokenSimilarity
	}
	longest := max(ql, tl)
	if longest == 0 {
		return 0
	}
	// length gap alone rules out reaching the floor
	if float64(abs(ql-tl))/float64(longest) > 1-defaultMinTokenSimilarity {
		return 0
	}
	sim := 1 - float64(levenshtein.ComputeDistance(q, t))/float64(longest)
	if sim < defaultMinTokenSimilarity {
		return 0
	}
	return sim
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

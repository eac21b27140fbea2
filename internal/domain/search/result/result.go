package result

import (
	"math"

	"github.com/kailas-cloud/flowdex/internal/domain/document"
)

// Rank is a 1-based position in one matcher's output, or "not ranked".
type Rank struct {
	pos int
}

// RankAt returns the rank for a 1-based position. Non-positive positions are "not ranked".
func RankAt(pos int) Rank {
	if pos <= 0 {
		return Rank{}
	}
	return Rank{pos: pos}
}

// NotRanked is the rank of a document absent from a matcher's output.
var NotRanked = Rank{}

// Value returns the position and whether the document was ranked.
func (r Rank) Value() (int, bool) { return r.pos, r.pos > 0 }

// IsRanked reports whether the document appeared in the matcher's output.
func (r Rank) IsRanked() bool { return r.pos > 0 }

// Less orders ranks ascending with "not ranked" after every real rank.
func (r Rank) Less(o Rank) bool {
	return r.sortKey() < o.sortKey()
}

func (r Rank) sortKey() int {
	if r.pos <= 0 {
		return math.MaxInt
	}
	return r.pos
}

// Signal is one matcher's verdict on a document.
type Signal struct {
	Score float64
	Rank  Rank
}

// Candidate is a document under consideration during fusion.
// The combined score is computed once at construction.
type Candidate struct {
	doc      document.Document
	ordinal  int
	lexical  Signal
	semantic Signal
	combined float64
}

// NewCandidate builds a candidate and fixes its combined score:
// lexical.Score*lexWeight + semantic.Score*semWeight.
func NewCandidate(
	doc document.Document, ordinal int, lexical, semantic Signal, lexWeight, semWeight float64,
) Candidate {
	return Candidate{
		doc:      doc,
		ordinal:  ordinal,
		lexical:  lexical,
		semantic: semantic,
		combined: lexical.Score*lexWeight + semantic.Score*semWeight,
	}
}

// Document returns the candidate document.
func (c *Candidate) Document() *document.Document { return &c.doc }

// Ordinal returns the corpus insertion position of the document.
func (c *Candidate) Ordinal() int { return c.ordinal }

// Lexical returns the lexical signal (zero score, NotRanked if absent).
func (c *Candidate) Lexical() Signal { return c.lexical }

// Semantic returns the semantic signal (zero score, NotRanked if absent).
func (c *Candidate) Semantic() Signal { return c.semantic }

// Combined returns the fused score.
func (c *Candidate) Combined() float64 { return c.combined }

// Result is a single search hit as exposed to callers.
type Result struct {
	doc       document.Document
	score     float64
	breakdown *Breakdown
}

// Breakdown is the optional diagnostic view of how a score was produced.
type Breakdown struct {
	LexicalScore  float64
	LexicalRank   Rank
	SemanticScore float64
	SemanticRank  Rank
}

// New creates a search result without a breakdown.
func New(doc document.Document, score float64) Result {
	return Result{doc: doc, score: score}
}

// FromCandidate converts a fused candidate into a result, keeping the breakdown if explain is set.
func FromCandidate(c *Candidate, explain bool) Result {
	r := Result{doc: c.doc, score: c.combined}
	if explain {
		r.breakdown = &Breakdown{
			LexicalScore:  c.lexical.Score,
			LexicalRank:   c.lexical.Rank,
			SemanticScore: c.semantic.Score,
			SemanticRank:  c.semantic.Rank,
		}
	}
	return r
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.doc.ID() }

// Document returns the matched document.
func (r *Result) Document() *document.Document { return &r.doc }

// Score returns the combined relevance score (0 in browse mode).
func (r *Result) Score() float64 { return r.score }

// Breakdown returns the per-signal diagnostics, or nil when not requested.
func (r *Result) Breakdown() *Breakdown { return r.breakdown }

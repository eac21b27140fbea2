package flowdex

import (
	"github.com/kailas-cloud/flowdex/internal/corpus"
	"github.com/kailas-cloud/flowdex/internal/domain"
	"github.com/kailas-cloud/flowdex/internal/domain/document"
	"github.com/kailas-cloud/flowdex/internal/domain/search/result"
)

// Sentinel errors re-exported for errors.Is checks.
var (
	ErrNotFound        = domain.ErrNotFound
	ErrInvalidQuery    = domain.ErrInvalidQuery
	ErrCorpusNotLoaded = domain.ErrCorpusNotLoaded
)

// Workflow is one workflow template record.
// On input SourceID is the caller's identifier; on output ID is the stable corpus id.
type Workflow struct {
	ID          string
	SourceID    string
	Title       string
	Description string
	Services    []string
	Actions     []string
	Keywords    []string
	Category    string
	Complexity  string
}

// Rejection names a record that was not loaded and why.
type Rejection struct {
	RawID  string
	Reason string
}

// LoadReport summarizes a corpus load.
type LoadReport struct {
	Accepted int
	Rejected []Rejection
}

// Explain breaks a ranked score down by signal. Ranks are 1-based; 0 means
// the document was not in that matcher's pool.
type Explain struct {
	LexicalScore  float64
	LexicalRank   int
	SemanticScore float64
	SemanticRank  int
}

// Hit is one search result.
type Hit struct {
	Workflow Workflow
	Score    float64
	Explain  *Explain
}

// SearchResponse carries the hits and how they were produced.
type SearchResponse struct {
	Hits []Hit
	// Browse is set for empty queries: hits are in corpus order with score 0.
	Browse bool
	// Degraded is set when ranking ran without the semantic signal.
	Degraded bool
}

func (w *Workflow) toRaw() document.Raw {
	return document.Raw{
		SourceID:    w.SourceID,
		Title:       w.Title,
		Description: w.Description,
		Services:    w.Services,
		Actions:     w.Actions,
		Keywords:    w.Keywords,
		Category:    w.Category,
		Complexity:  w.Complexity,
	}
}

func fromDocument(d *document.Document) Workflow {
	return Workflow{
		ID:          d.ID(),
		SourceID:    d.SourceID(),
		Title:       d.Title(),
		Description: d.Description(),
		Services:    d.Services(),
		Actions:     d.Actions(),
		Keywords:    d.Keywords(),
		Category:    d.Category(),
		Complexity:  string(d.Complexity()),
	}
}

func fromResult(r *result.Result) Hit {
	h := Hit{Workflow: fromDocument(r.Document()), Score: r.Score()}
	if b := r.Breakdown(); b != nil {
		lr, _ := b.LexicalRank.Value()
		sr, _ := b.SemanticRank.Value()
		h.Explain = &Explain{
			LexicalScore:  b.LexicalScore,
			LexicalRank:   lr,
			SemanticScore: b.SemanticScore,
			SemanticRank:  sr,
		}
	}
	return h
}

func fromLoadReport(r corpus.LoadReport) LoadReport {
	out := LoadReport{Accepted: r.Accepted}
	for _, rej := range r.Rejected {
		out.Rejected = append(out.Rejected, Rejection{RawID: rej.RawID, Reason: rej.Reason})
	}
	return out
}

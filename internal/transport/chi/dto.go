package chi

import (
	"github.com/kailas-cloud/flowdex/internal/corpus"
	"github.com/kailas-cloud/flowdex/internal/domain/document"
	"github.com/kailas-cloud/flowdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/flowdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/flowdex/internal/usecase/search"
)

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Query   string         `json:"query"`
	Filters *SearchFilters `json:"filters,omitempty"`
	Limit   *int           `json:"limit,omitempty"`
	Explain bool           `json:"explain,omitempty"`
}

// SearchFilters are the structured constraints of a search.
type SearchFilters struct {
	Services   []string `json:"services,omitempty"`
	Category   string   `json:"category,omitempty"`
	Complexity string   `json:"complexity,omitempty"`
}

// DocumentResponse is the public view of a workflow template.
type DocumentResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Services    []string `json:"services"`
	Actions     []string `json:"actions"`
	Keywords    []string `json:"keywords,omitempty"`
	Category    string   `json:"category"`
	Complexity  string   `json:"complexity"`
}

// SearchResultItem is one ranked document.
type SearchResultItem struct {
	DocumentResponse
	Score         float64  `json:"score"`
	LexicalScore  *float64 `json:"lexical_score,omitempty"`
	LexicalRank   *int     `json:"lexical_rank,omitempty"`
	SemanticScore *float64 `json:"semantic_score,omitempty"`
	SemanticRank  *int     `json:"semantic_rank,omitempty"`
}

// SearchResponse is the POST /search response.
type SearchResponse struct {
	Items    []SearchResultItem `json:"items"`
	Mode     string             `json:"mode"`
	Degraded bool               `json:"degraded"`
	Total    int                `json:"total"`
}

// ReloadResponse is the POST /corpus/reload response.
type ReloadResponse struct {
	Accepted int                `json:"accepted"`
	Rejected []corpus.Rejection `json:"rejected"`
}

// HealthResponse is the GET /health response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Documents int               `json:"documents"`
	Checks    map[string]string `json:"checks"`
}

func documentToResponse(d *document.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID(),
		Title:       d.Title(),
		Description: d.Description(),
		Services:    nonNil(d.Services()),
		Actions:     nonNil(d.Actions()),
		Keywords:    d.Keywords(),
		Category:    d.Category(),
		Complexity:  string(d.Complexity()),
	}
}

func searchResultToResponse(r *result.Result) SearchResultItem {
	item := SearchResultItem{
		DocumentResponse: documentToResponse(r.Document()),
		Score:            r.Score(),
	}
	if b := r.Breakdown(); b != nil {
		lex, sem := b.LexicalScore, b.SemanticScore
		item.LexicalScore = &lex
		item.SemanticScore = &sem
		item.LexicalRank = rankPtr(b.LexicalRank)
		item.SemanticRank = rankPtr(b.SemanticRank)
	}
	return item
}

// NewSearchResponse converts a search outcome into its wire form.
func NewSearchResponse(resp searchuc.Response) SearchResponse {
	items := make([]SearchResultItem, len(resp.Results))
	for i := range resp.Results {
		items[i] = searchResultToResponse(&resp.Results[i])
	}
	return SearchResponse{Items: items, Mode: string(resp.Mode), Degraded: resp.Degraded, Total: len(items)}
}

// NewReloadResponse converts a load report into its wire form.
func NewReloadResponse(r corpus.LoadReport) ReloadResponse {
	rejected := r.Rejected
	if rejected == nil {
		rejected = []corpus.Rejection{}
	}
	return ReloadResponse{Accepted: r.Accepted, Rejected: rejected}
}

func healthResponseFrom(r healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{Status: string(r.Status), Documents: r.Documents, Checks: checks}
}

func rankPtr(r result.Rank) *int {
	v, ok := r.Value()
	if !ok {
		return nil
	}
	return &v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

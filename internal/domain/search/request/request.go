package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/flowdex/internal/domain"
	"github.com/kailas-cloud/flowdex/internal/domain/search/filter"
	"github.com/kailas-cloud/flowdex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 100
)

// Request is a validated search query.
type Request struct {
	text    string
	filters filter.Filters
	limit   int
	explain bool
}

// New validates and normalizes search parameters.
// An empty text is valid and selects browse mode. limit <= 0 is treated as unset and
// becomes DefaultLimit rather than the bottom of the range; limit > MaxLimit is clamped
// to MaxLimit. An out-of-range limit is never an error.
func New(text string, filters filter.Filters, limit int, explain bool) (Request, error) {
	text = strings.TrimSpace(text)
	if len(text) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	return Request{
		text:    text,
		filters: filters,
		limit:   ClampLimit(limit),
		explain: explain,
	}, nil
}

// ClampLimit maps any integer onto the accepted limit range.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Text returns the trimmed query text.
func (r *Request) Text() string { return r.text }

// Filters returns the structured constraints.
func (r *Request) Filters() filter.Filters { return r.filters }

// Limit returns the maximum number of results.
func (r *Request) Limit() int { return r.limit }

// Explain reports whether the per-signal score breakdown should be returned.
func (r *Request) Explain() bool { return r.explain }

// Mode returns Browse for an empty query and Ranked otherwise.
func (r *Request) Mode() mode.Mode {
	if r.text == "" {
		return mode.Browse
	}
	return mode.Ranked
}

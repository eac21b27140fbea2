package filter

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/flowdex/internal/domain"
	"github.com/kailas-cloud/flowdex/internal/domain/document"
)

// MaxServices is the maximum number of requested services per filter.
const MaxServices = 32

// Filters holds the structured constraints of a search request.
// The zero value matches every document.
type Filters struct {
	services   []string // lowercased, deduplicated
	category   string
	complexity document.Complexity
}

// New validates and creates Filters. Empty values mean "no constraint".
func New(services []string, category, complexity string) (Filters, error) {
	if len(services) > MaxServices {
		return Filters{}, fmt.Errorf("%w: too many services (max %d)", domain.ErrInvalidQuery, MaxServices)
	}

	var c document.Complexity
	if strings.TrimSpace(complexity) != "" {
		parsed, err := document.ParseComplexity(complexity)
		if err != nil {
			return Filters{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
		c = parsed
	}

	seen := make(map[string]struct{}, len(services))
	var svc []string
	for _, s := range services {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		svc = append(svc, s)
	}

	return Filters{services: svc, category: strings.TrimSpace(category), complexity: c}, nil
}

// Services returns the requested services (lowercased).
func (f Filters) Services() []string { return f.services }

// Category returns the requested category ("" if unset).
func (f Filters) Category() string { return f.category }

// Complexity returns the requested complexity ("" if unset).
func (f Filters) Complexity() document.Complexity { return f.complexity }

// IsEmpty reports whether the filters impose no constraint.
func (f Filters) IsEmpty() bool {
	return len(f.services) == 0 && f.category == "" && f.complexity == ""
}

// Matches reports whether doc satisfies every constraint.
// Services: at least one document service must contain a requested service
// as a case-insensitive substring.
func (f Filters) Matches(doc *document.Document) bool {
	if f.category != "" && doc.Category() != f.category {
		return false
	}
	if f.complexity != "" && doc.Complexity() != f.complexity {
		return false
	}
	if len(f.services) == 0 {
		return true
	}
	for _, have := range doc.Services() {
		have = strings.ToLower(have)
		for _, want := range f.services {
			if strings.Contains(have, want) {
				return true
			}
		}
	}
	return false
}

package document

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kailas-cloud/flowdex/internal/domain"
)

// Complexity is the coarse effort tag of a workflow template.
type Complexity string

// Complexity values.
const (
	ComplexityLow     Complexity = "low"
	ComplexityMedium  Complexity = "medium"
	ComplexityHigh    Complexity = "high"
	ComplexityUnknown Complexity = "unknown"
)

// ParseComplexity maps a raw tag to a Complexity. Empty input is Unknown.
func ParseComplexity(s string) (Complexity, error) {
	switch c := Complexity(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ComplexityUnknown, nil
	case ComplexityLow, ComplexityMedium, ComplexityHigh, ComplexityUnknown:
		return c, nil
	default:
		return "", fmt.Errorf("invalid complexity %q", s)
	}
}

// IsValid checks if the complexity is one of the supported values.
func (c Complexity) IsValid() bool {
	return c == ComplexityLow || c == ComplexityMedium || c == ComplexityHigh || c == ComplexityUnknown
}

// Field names a weighted textual field used for lexical matching.
type Field int

// Searchable fields in weight order.
const (
	FieldTitle Field = iota
	FieldDescription
	FieldServices
	FieldActions
	FieldKeywords
	numFields
)

// Fields lists all searchable fields.
func Fields() []Field {
	return []Field{FieldTitle, FieldDescription, FieldServices, FieldActions, FieldKeywords}
}

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldDescription:
		return "description"
	case FieldServices:
		return "services"
	case FieldActions:
		return "actions"
	case FieldKeywords:
		return "keywords"
	default:
		return "unknown"
	}
}

// Raw is an unvalidated corpus record as produced by a loader.
type Raw struct {
	SourceID    string
	Title       string
	Description string
	Services    []string
	Actions     []string
	Keywords    []string
	Category    string
	Complexity  string
}

// Document is one workflow template (immutable value object).
type Document struct {
	id          string
	sourceID    string
	title       string
	description string
	services    []string
	actions     []string
	keywords    []string
	category    string
	complexity  Complexity
	searchText  string
	tokens      [numFields][]string
}

// New validates a raw record and creates a Document with the given id.
// Title and description must be non-empty. Validation failures are *domain.ValidationError.
func New(id string, raw Raw) (Document, error) {
	if id == "" {
		return Document{}, domain.NewValidationError(raw.SourceID, "id is required")
	}
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return Document{}, domain.NewValidationError(raw.SourceID, "title is required")
	}
	description := strings.TrimSpace(raw.Description)
	if description == "" {
		return Document{}, domain.NewValidationError(raw.SourceID, "description is required")
	}
	complexity, err := ParseComplexity(raw.Complexity)
	if err != nil {
		return Document{}, domain.NewValidationError(raw.SourceID, err.Error())
	}

	d := Document{
		id:          id,
		sourceID:    raw.SourceID,
		title:       title,
		description: description,
		services:    cleanList(raw.Services),
		actions:     cleanList(raw.Actions),
		keywords:    cleanList(raw.Keywords),
		category:    strings.TrimSpace(raw.Category),
		complexity:  complexity,
	}
	for _, f := range Fields() {
		d.tokens[f] = Tokenize(d.FieldText(f))
	}
	d.searchText = buildSearchText(&d)
	return d, nil
}

// ID returns the stable document identifier.
func (d *Document) ID() string { return d.id }

// SourceID returns the loader-level identifier the document was read from.
func (d *Document) SourceID() string { return d.sourceID }

// Title returns the template title.
func (d *Document) Title() string { return d.title }

// Description returns the template description.
func (d *Document) Description() string { return d.description }

// Services returns the integration names.
func (d *Document) Services() []string { return d.services }

// Actions returns the action names.
func (d *Document) Actions() []string { return d.actions }

// Keywords returns the free-form keywords.
func (d *Document) Keywords() []string { return d.keywords }

// Category returns the corpus partition the document was loaded from.
func (d *Document) Category() string { return d.category }

// Complexity returns the effort tag.
func (d *Document) Complexity() Complexity { return d.complexity }

// SearchText returns the concatenation of all textual fields (embedding input).
func (d *Document) SearchText() string { return d.searchText }

// FieldText returns the text of a single searchable field. List fields are joined with ", ".
func (d *Document) FieldText(f Field) string {
	switch f {
	case FieldTitle:
		return d.title
	case FieldDescription:
		return d.description
	case FieldServices:
		return strings.Join(d.services, ", ")
	case FieldActions:
		return strings.Join(d.actions, ", ")
	case FieldKeywords:
		return strings.Join(d.keywords, ", ")
	default:
		return ""
	}
}

// FieldTokens returns the precomputed lexical tokens of a field.
func (d *Document) FieldTokens(f Field) []string {
	if f < 0 || f >= numFields {
		return nil
	}
	return d.tokens[f]
}

// Tokenize lowercases s and splits it on anything that is not a letter or digit.
// Single-rune tokens are dropped.
func Tokenize(s string) []string {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := parts[:0]
	for _, p := range parts {
		if len([]rune(p)) > 1 {
			out = append(out, p)
		}
	}
	return out
}

func buildSearchText(d *Document) string {
	parts := []string{d.title, d.description}
	for _, list := range [][]string{d.services, d.actions, d.keywords} {
		if len(list) > 0 {
			parts = append(parts, strings.Join(list, " "))
		}
	}
	return strings.Join(parts, " ")
}

func cleanList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

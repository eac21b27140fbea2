package filter

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kailas-cloud/flowdex/internal/domain"
	"github.com/kailas-cloud/flowdex/internal/domain/document"
)

func makeDoc(t *testing.T, category, complexity string, services ...string) document.Document {
	t.Helper()
	d, err := document.New("id", document.Raw{
		Title:       "t",
		Description: "d",
		Services:    services,
		Category:    category,
		Complexity:  complexity,
	})
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	return d
}

func TestNew_Normalizes(t *testing.T) {
	f, err := New([]string{" Telegram ", "telegram", "", "Slack"}, " marketing ", "HIGH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(f.Services(), ","); got != "telegram,slack" {
		t.Errorf("Services() = %q", got)
	}
	if f.Category() != "marketing" {
		t.Errorf("Category() = %q", f.Category())
	}
	if f.Complexity() != document.ComplexityHigh {
		t.Errorf("Complexity() = %q", f.Complexity())
	}
	if f.IsEmpty() {
		t.Error("IsEmpty() should be false")
	}
}

func TestNew_Empty(t *testing.T) {
	f, err := New(nil, "", "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsEmpty() {
		t.Error("expected empty filters")
	}
	var zero Filters
	if !zero.IsEmpty() {
		t.Error("zero value should be empty")
	}
}

func TestNew_InvalidComplexity(t *testing.T) {
	_, err := New(nil, "", "extreme")
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestNew_TooManyServices(t *testing.T) {
	services := make([]string, MaxServices+1)
	for i := range services {
		services[i] = fmt.Sprintf("svc-%d", i)
	}
	_, err := New(services, "", "")
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestMatches(t *testing.T) {
	doc := makeDoc(t, "communication", "low", "Telegram Bot", "Google Sheets")

	tests := []struct {
		name       string
		services   []string
		category   string
		complexity string
		want       bool
	}{
		{"no constraints", nil, "", "", true},
		{"service substring case-insensitive", []string{"telegram"}, "", "", true},
		{"any requested service", []string{"discord", "sheets"}, "", "", true},
		{"service absent", []string{"discord"}, "", "", false},
		{"category match", nil, "communication", "", true},
		{"category mismatch", nil, "marketing", "", false},
		{"complexity match", nil, "", "low", true},
		{"complexity mismatch", nil, "", "high", false},
		{"all constraints", []string{"bot"}, "communication", "low", true},
		{"one constraint fails", []string{"bot"}, "communication", "medium", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.services, tt.category, tt.complexity)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := f.Matches(&doc); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatches_DocumentWithoutServices(t *testing.T) {
	doc := makeDoc(t, "general", "")
	f, _ := New([]string{"slack"}, "", "")
	if f.Matches(&doc) {
		t.Error("document without services must not match a service filter")
	}
}

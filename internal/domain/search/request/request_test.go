package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/flowdex/internal/domain"
	"github.com/kailas-cloud/flowdex/internal/domain/search/filter"
	"github.com/kailas-cloud/flowdex/internal/domain/search/mode"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("  gmail slack ", filter.Filters{}, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Text() != "gmail slack" {
		t.Errorf("Text() = %q", r.Text())
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
	if r.Mode() != mode.Ranked {
		t.Errorf("Mode() = %q, want ranked", r.Mode())
	}
	if r.Explain() {
		t.Error("Explain() = true")
	}
	if !r.Filters().IsEmpty() {
		t.Error("expected empty filters")
	}
}

func TestNew_EmptyTextIsBrowse(t *testing.T) {
	r, err := New("   ", filter.Filters{}, 5, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Mode() != mode.Browse {
		t.Errorf("Mode() = %q, want browse", r.Mode())
	}
	if r.Limit() != 5 {
		t.Errorf("Limit() = %d", r.Limit())
	}
	if !r.Explain() {
		t.Error("Explain() = false")
	}
}

func TestNew_QueryTooLong(t *testing.T) {
	_, err := New(strings.Repeat("a", MaxQueryLength+1), filter.Filters{}, 10, false)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, DefaultLimit},
		{0, DefaultLimit},
		{1, 1},
		{42, 42},
		{MaxLimit, MaxLimit},
		{MaxLimit + 1, MaxLimit},
		{1 << 30, MaxLimit},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

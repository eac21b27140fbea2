package embcache

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/flowdex/internal/domain"
)

func TestLRU_HitSkipsInner(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}, TotalTokens: 4}}
	c, err := NewLRU(inner, 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	for range 3 {
		res, err := c.Embed(context.Background(), "gmail slack")
		if err != nil || len(res.Embedding) != 2 {
			t.Fatalf("Embed = %v, %v", res, err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}

func TestLRU_Evicts(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	c, err := NewLRU(inner, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range []string{"a", "b", "c"} {
		if _, err := c.Embed(context.Background(), q); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	// "a" was evicted
	if _, err := c.Embed(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 4 {
		t.Errorf("inner calls = %d, want 4", inner.calls)
	}
}

func TestLRU_ErrorsNotCached(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("down")}
	c, err := NewLRU(inner, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if _, err := c.Embed(context.Background(), "q"); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.calls != 2 || c.Len() != 0 {
		t.Errorf("calls = %d, len = %d", inner.calls, c.Len())
	}
}

package corpus

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/flowdex/internal/domain"
	"github.com/kailas-cloud/flowdex/internal/domain/document"
)

// idNamespace seeds UUIDv5 document ids so the same record keeps its id across reloads.
var idNamespace = uuid.MustParse("6f1c2b2e-8f7d-5a3e-9c41-2d7e0b9a4c10")

// Rejection describes one record that did not make it into the corpus.
type Rejection struct {
	RawID  string `json:"raw_id"`
	Reason string `json:"reason"`
}

// LoadReport summarizes a corpus load.
type LoadReport struct {
	Accepted int         `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
}

// Reject records a rejected record.
func (r *LoadReport) Reject(rawID, reason string) {
	r.Rejected = append(r.Rejected, Rejection{RawID: rawID, Reason: reason})
}

type entry struct {
	doc       document.Document
	embedding atomic.Pointer[[]float32]
}

// Store is an immutable set of documents plus a lazily filled embedding memo.
// Embeddings are computed at most once per document; failures are not memoized.
type Store struct {
	entries  []*entry
	index    map[string]int
	fill     singleflight.Group
	logger   *zap.Logger
	loadedAt time.Time
}

// Load validates raw records and builds a Store. Invalid records are logged and
// reported, never fatal. An empty result is a valid, empty corpus.
func Load(raws []document.Raw, logger *zap.Logger) (*Store, LoadReport) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		entries:  make([]*entry, 0, len(raws)),
		index:    make(map[string]int, len(raws)),
		logger:   logger,
		loadedAt: time.Now(),
	}
	var report LoadReport

	for i := range raws {
		raw := raws[i]
		rawID := RawIdentifier(raw, i)
		if raw.SourceID == "" {
			raw.SourceID = rawID
		}

		doc, err := document.New(DocumentID(raw), raw)
		if err != nil {
			var verr *domain.ValidationError
			reason := err.Error()
			if errors.As(err, &verr) {
				reason = verr.Reason
			}
			report.Reject(rawID, reason)
			logger.Warn("document rejected", zap.String("raw_id", rawID), zap.String("reason", reason))
			continue
		}
		if _, dup := s.index[doc.ID()]; dup {
			reason := "duplicate id " + doc.ID()
			report.Reject(rawID, reason)
			logger.Warn("document rejected", zap.String("raw_id", rawID), zap.String("reason", reason))
			continue
		}

		s.index[doc.ID()] = len(s.entries)
		s.entries = append(s.entries, &entry{doc: doc})
	}

	report.Accepted = len(s.entries)
	logger.Info("corpus loaded",
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", len(report.Rejected)),
	)
	return s, report
}

// RawIdentifier names a raw record for diagnostics: its source id, or its position.
func RawIdentifier(raw document.Raw, pos int) string {
	if raw.SourceID != "" {
		return raw.SourceID
	}
	return "#" + strconv.Itoa(pos)
}

// DocumentID derives the stable identifier of a record from its category and source id.
func DocumentID(raw document.Raw) string {
	return uuid.NewSHA1(idNamespace, []byte(raw.Category+"/"+raw.SourceID)).String()
}

// Len returns the number of documents.
func (s *Store) Len() int { return len(s.entries) }

// LoadedAt returns when the store was built.
func (s *Store) LoadedAt() time.Time { return s.loadedAt }

// All iterates documents in insertion order. The yielded index is the insertion ordinal.
func (s *Store) All() iter.Seq2[int, *document.Document] {
	return func(yield func(int, *document.Document) bool) {
		for i, e := range s.entries {
			if !yield(i, &e.doc) {
				return
			}
		}
	}
}

// Get looks up a document by id.
func (s *Store) Get(id string) (*document.Document, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.entries[i].doc, true
}

// Ordinal returns the insertion position of a document.
func (s *Store) Ordinal(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Embedded reports how many documents currently have a memoized embedding.
func (s *Store) Embedded() int {
	n := 0
	for _, e := range s.entries {
		if e.embedding.Load() != nil {
			n++
		}
	}
	return n
}

// EmbeddingOf returns the memoized embedding of a document, computing it with
// embedder on first use. Concurrent callers for the same document share one
// provider call; other documents are not blocked. The shared call ignores the
// cancellation of whichever caller started it, so it is bounded only by the
// embedder's own timeout. The returned slice must not be modified.
func (s *Store) EmbeddingOf(ctx context.Context, id string, embedder domain.Embedder) ([]float32, error) {
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	e := s.entries[i]
	if v := e.embedding.Load(); v != nil {
		return *v, nil
	}
	if embedder == nil {
		return nil, domain.ErrEmbedderNotConfigured
	}

	fillCtx := context.WithoutCancel(ctx)
	v, err, _ := s.fill.Do(id, func() (any, error) {
		if v := e.embedding.Load(); v != nil {
			return *v, nil
		}
		res, err := embedder.Embed(fillCtx, e.doc.SearchText())
		if err != nil {
			return nil, err
		}
		if err := domain.ValidateVector(res.Embedding); err != nil {
			return nil, err
		}
		vec := res.Embedding
		e.embedding.Store(&vec)
		return vec, nil
	})
	if err != nil {
		s.logger.Warn("document embedding failed", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("embed document %s: %w", id, err)
	}
	vec, _ := v.([]float32)
	return vec, nil
}

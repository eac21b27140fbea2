package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/flowdex/internal/corpus"
	"github.com/kailas-cloud/flowdex/internal/domain"
	"github.com/kailas-cloud/flowdex/internal/domain/document"
	"github.com/kailas-cloud/flowdex/internal/metrics"
)

// Options tunes reload behaviour.
type Options struct {
	// Warm precomputes document embeddings after each successful reload.
	Warm        bool
	WarmWorkers int
}

// Service owns corpus reloads and document lookups.
type Service struct {
	source   Source
	holder   Holder
	embedder Embedder
	opts     Options
	logger   *zap.Logger

	// Serializes reloads; readers never wait on it.
	mu sync.Mutex
}

// New creates a catalog service. source and embedder may be nil.
func New(source Source, holder Holder, embedder Embedder, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, holder: holder, embedder: embedder, opts: opts, logger: logger}
}

// Reload reads the source and atomically replaces the corpus. On a source
// error the previous corpus stays live. Per-record failures end up in the report.
func (s *Service) Reload(ctx context.Context) (corpus.LoadReport, error) {
	if s.source == nil {
		return corpus.LoadReport{}, domain.ErrCorpusNotLoaded
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	batch, err := s.source.Load(ctx)
	if err != nil {
		metrics.CorpusReloadsTotal.WithLabelValues("error").Inc()
		s.logger.Error("corpus reload failed", zap.Error(err))
		return corpus.LoadReport{}, fmt.Errorf("load corpus source: %w", err)
	}

	store, report := corpus.Load(batch.Documents, s.logger)
	report.Rejected = append(batch.Rejected, report.Rejected...)
	s.holder.Swap(store)

	metrics.CorpusReloadsTotal.WithLabelValues("ok").Inc()
	metrics.CorpusDocuments.Set(float64(report.Accepted))
	metrics.CorpusRejectedTotal.Add(float64(len(report.Rejected)))
	s.logger.Info("corpus reloaded",
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", len(report.Rejected)),
		zap.Duration("took", time.Since(start)),
	)

	if s.opts.Warm && s.embedder != nil {
		if _, err := store.Warm(ctx, s.embedder, s.opts.WarmWorkers); err != nil {
			s.logger.Warn("corpus warm-up interrupted", zap.Error(err))
		}
	}
	return report, nil
}

// Ingest replaces the corpus with in-memory records.
func (s *Service) Ingest(raws []document.Raw) corpus.LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, report := corpus.Load(raws, s.logger)
	s.holder.Swap(store)
	metrics.CorpusReloadsTotal.WithLabelValues("ok").Inc()
	metrics.CorpusDocuments.Set(float64(report.Accepted))
	metrics.CorpusRejectedTotal.Add(float64(len(report.Rejected)))
	return report
}

// Get returns a document of the current corpus by id.
func (s *Service) Get(_ context.Context, id string) (document.Document, error) {
	store := s.holder.Snapshot()
	if store == nil {
		return document.Document{}, domain.ErrCorpusNotLoaded
	}
	doc, ok := store.Get(id)
	if !ok {
		return document.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return *doc, nil
}

// Stats describes the live corpus.
type Stats struct {
	Documents int
	Embedded  int
	LoadedAt  time.Time
}

// Stats reports the size of the current corpus.
func (s *Service) Stats() Stats {
	store := s.holder.Snapshot()
	if store == nil {
		return Stats{}
	}
	return Stats{Documents: store.Len(), Embedded: store.Embedded(), LoadedAt: store.LoadedAt()}
}

// Watch reloads the corpus whenever w reports a change, until ctx is done.
func (s *Service) Watch(ctx context.Context, w Watcher, debounce time.Duration) error {
	return w.Watch(ctx, debounce, func(ctx context.Context) {
		if _, err := s.Reload(ctx); err != nil {
			s.logger.Warn("corpus auto-reload failed, keeping previous corpus", zap.Error(err))
		}
	})
}

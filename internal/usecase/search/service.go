package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/flowdex/internal/domain"
	"github.com/kailas-cloud/flowdex/internal/domain/search/mode"
	"github.com/kailas-cloud/flowdex/internal/domain/search/request"
	"github.com/kailas-cloud/flowdex/internal/domain/search/result"
	"github.com/kailas-cloud/flowdex/internal/logger"
	"github.com/kailas-cloud/flowdex/internal/metrics"
)

// Config tunes the search pipeline. Zero values fall back to defaults.
type Config struct {
	Lexical          LexicalConfig
	SemanticPoolSize int
	EmbedConcurrency int
	Fusion           FusionWeights
}

// Response is the outcome of one search call.
type Response struct {
	Results []result.Result
	Mode    mode.Mode
	// Degraded is set when a ranked search ran without the semantic signal.
	Degraded bool
}

// Service runs hybrid lexical + semantic search over the current corpus.
type Service struct {
	corpus     Corpus
	queryEmbed Embedder
	docEmbed   Embedder
	lexical    *LexicalMatcher
	semantic   *SemanticMatcher
	fusion     FusionWeights
}

// New creates a search service. Either embedder may be nil, in which case
// ranked searches are lexical-only.
func New(c Corpus, queryEmbed, docEmbed Embedder, cfg Config) *Service {
	if cfg.Fusion == (FusionWeights{}) {
		cfg.Fusion = DefaultFusionWeights()
	}
	return &Service{
		corpus:     c,
		queryEmbed: queryEmbed,
		docEmbed:   docEmbed,
		lexical:    NewLexicalMatcher(cfg.Lexical),
		semantic:   NewSemanticMatcher(cfg.SemanticPoolSize, cfg.EmbedConcurrency),
		fusion:     cfg.Fusion,
	}
}

// Search executes a request. Embedding failures never fail the call: the
// semantic signal is dropped and Response.Degraded is set.
func (s *Service) Search(ctx context.Context, req *request.Request) (Response, error) {
	start := time.Now()
	store := s.corpus.Snapshot()
	if store == nil {
		return Response{}, domain.ErrCorpusNotLoaded
	}
	limit := request.ClampLimit(req.Limit())

	if req.Mode() == mode.Browse {
		results := browse(store, req.Filters(), limit)
		observe(mode.Browse, start, len(results))
		return Response{Results: results, Mode: mode.Browse}, nil
	}

	ctx = logger.With(ctx, zap.Int("query_len", len(req.Text())), zap.Int("limit", limit))
	var (
		lexical, semantic []Match
		degraded          bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t := time.Now()
		lexical = s.lexical.Match(req.Text(), store)
		metrics.SearchDuration.WithLabelValues("lexical").Observe(time.Since(t).Seconds())
		return nil
	})
	g.Go(func() error {
		t := time.Now()
		defer func() {
			metrics.SearchDuration.WithLabelValues("semantic").Observe(time.Since(t).Seconds())
		}()
		vec, err := s.embedQuery(gctx, req.Text())
		if err != nil {
			degraded = true
			logger.FromContext(ctx).Debug("semantic signal unavailable, lexical only", zap.Error(err))
			return nil
		}
		semantic = s.semantic.Match(gctx, vec, store, s.docEmbed)
		return nil
	})
	_ = g.Wait()

	t := time.Now()
	candidates := fuse(store, lexical, semantic, req.Filters(), s.fusion, limit)
	results := make([]result.Result, len(candidates))
	for i := range candidates {
		results[i] = result.FromCandidate(&candidates[i], req.Explain())
	}
	metrics.SearchDuration.WithLabelValues("fusion").Observe(time.Since(t).Seconds())

	if degraded {
		metrics.SearchDegradedTotal.Inc()
	}
	observe(mode.Ranked, start, len(results))
	return Response{Results: results, Mode: mode.Ranked, Degraded: degraded}, nil
}

func (s *Service) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.queryEmbed == nil || s.docEmbed == nil {
		return nil, domain.ErrEmbedderNotConfigured
	}
	res, err := s.queryEmbed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if err := domain.ValidateVector(res.Embedding); err != nil {
		return nil, err
	}
	if _, ok := cosine(res.Embedding, res.Embedding); !ok {
		return nil, errors.New("zero-norm query embedding")
	}
	return res.Embedding, nil
}

func observe(m mode.Mode, start time.Time, n int) {
	metrics.SearchRequestsTotal.WithLabelValues(string(m)).Inc()
	metrics.SearchDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	metrics.SearchResults.Observe(float64(n))
}

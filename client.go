package flowdex

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/flowdex/internal/corpus"
	"github.com/kailas-cloud/flowdex/internal/domain"
	"github.com/kailas-cloud/flowdex/internal/domain/document"
	"github.com/kailas-cloud/flowdex/internal/domain/search/filter"
	"github.com/kailas-cloud/flowdex/internal/domain/search/mode"
	"github.com/kailas-cloud/flowdex/internal/domain/search/request"
	"github.com/kailas-cloud/flowdex/internal/repository/corpusfs"
	"github.com/kailas-cloud/flowdex/internal/repository/embcache"
	cataloguc "github.com/kailas-cloud/flowdex/internal/usecase/catalog"
	embeddinguc "github.com/kailas-cloud/flowdex/internal/usecase/embedding"
	searchuc "github.com/kailas-cloud/flowdex/internal/usecase/search"
)

// Client is the flowdex entry point. It is safe for concurrent use; loads
// swap the corpus atomically while searches keep reading a consistent snapshot.
type Client struct {
	holder  *corpus.Catalog
	catalog *cataloguc.Service
	search  *searchuc.Service
	logger  *zap.Logger
}

// New creates a Client with an empty corpus.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{embedTimeout: embeddinguc.DefaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	docEmbedder, queryEmbedder, err := buildEmbedders(cfg)
	if err != nil {
		return nil, err
	}

	// Pass nil interfaces (not typed nil pointers) when no directory is set.
	var source cataloguc.Source
	if cfg.corpusDir != "" {
		source = corpusfs.New(cfg.corpusDir, cfg.logger)
	}

	holder := corpus.NewCatalog(cfg.logger)
	return &Client{
		holder:  holder,
		catalog: cataloguc.New(source, holder, docEmbedder, cataloguc.Options{Warm: cfg.warm}, cfg.logger),
		search: searchuc.New(holder, queryEmbedder, docEmbedder, searchuc.Config{
			Lexical: searchuc.LexicalConfig{
				Weights:   searchuc.FieldWeights(cfg.fieldWeights),
				Threshold: cfg.lexicalThreshold,
				PoolSize:  cfg.lexicalPool,
			},
			SemanticPoolSize: cfg.semanticPool,
			EmbedConcurrency: cfg.embedConcurrency,
			Fusion:           searchuc.FusionWeights(cfg.fusion),
		}),
		logger: cfg.logger,
	}, nil
}

func validateConfig(cfg *clientConfig) error {
	if cfg.fieldWeights != (FieldWeights{}) {
		if err := searchuc.FieldWeights(cfg.fieldWeights).Validate(); err != nil {
			return fmt.Errorf("flowdex: %w", err)
		}
	}
	if cfg.fusion != (FusionWeights{}) {
		if err := searchuc.FusionWeights(cfg.fusion).Validate(); err != nil {
			return fmt.Errorf("flowdex: %w", err)
		}
	}
	if cfg.lexicalThreshold < 0 || cfg.lexicalThreshold > 1 {
		return fmt.Errorf("flowdex: lexical threshold must be within [0, 1], got %v", cfg.lexicalThreshold)
	}
	return nil
}

// buildEmbedders assembles the document and query chains: the query chain
// adds an in-memory LRU in front of the provider.
func buildEmbedders(cfg *clientConfig) (doc, query domain.Embedder, err error) {
	if cfg.embedder == nil {
		return nil, nil, nil
	}
	var base domain.Embedder = &embedderAdapter{inner: cfg.embedder}

	doc = embeddinguc.NewTimeoutEmbedder(base, cfg.embedTimeout)
	query = doc
	if cfg.queryCacheSize > 0 {
		lru, err := embcache.NewLRU(base, cfg.queryCacheSize, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("flowdex: query cache: %w", err)
		}
		query = embeddinguc.NewTimeoutEmbedder(lru, cfg.embedTimeout)
	}
	return doc, query, nil
}

// LoadCorpus replaces the corpus with records. Invalid records are reported,
// never fatal; an empty slice yields an empty corpus.
func (c *Client) LoadCorpus(records []Workflow) LoadReport {
	raws := make([]document.Raw, len(records))
	for i := range records {
		raws[i] = records[i].toRaw()
	}
	return fromLoadReport(c.catalog.Ingest(raws))
}

// Reload re-reads the corpus directory set with WithCorpusDir and swaps it in.
// On error the previous corpus stays live.
func (c *Client) Reload(ctx context.Context) (LoadReport, error) {
	report, err := c.catalog.Reload(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrCorpusNotLoaded) {
			return LoadReport{}, errors.New("flowdex: no corpus directory configured (use WithCorpusDir)")
		}
		return LoadReport{}, fmt.Errorf("flowdex: reload: %w", err)
	}
	return fromLoadReport(report), nil
}

// Len returns the number of documents in the current corpus.
func (c *Client) Len() int {
	return c.holder.Snapshot().Len()
}

// Get returns a workflow by its corpus id.
func (c *Client) Get(ctx context.Context, id string) (Workflow, error) {
	doc, err := c.catalog.Get(ctx, id)
	if err != nil {
		return Workflow{}, fmt.Errorf("flowdex: %w", err)
	}
	return fromDocument(&doc), nil
}

// SearchOptions narrows and sizes a search. The zero value means no filters
// and the default limit.
type SearchOptions struct {
	// Services keeps documents with at least one service containing any of
	// these, case-insensitively.
	Services   []string
	Category   string
	Complexity string
	// Limit is clamped to 1..100; 0 selects the default of 10.
	Limit   int
	Explain bool
}

// Search ranks the corpus for query. An empty query browses the corpus.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) (SearchResponse, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	f, err := filter.New(opts.Services, opts.Category, opts.Complexity)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("flowdex: %w", err)
	}
	req, err := request.New(query, f, opts.Limit, opts.Explain)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("flowdex: %w", err)
	}

	resp, err := c.search.Search(ctx, &req)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("flowdex: search: %w", err)
	}

	hits := make([]Hit, len(resp.Results))
	for i := range resp.Results {
		hits[i] = fromResult(&resp.Results[i])
	}
	return SearchResponse{Hits: hits, Browse: resp.Mode == mode.Browse, Degraded: resp.Degraded}, nil
}

// Find starts a fluent search for query.
func (c *Client) Find(query string) *SearchBuilder {
	return &SearchBuilder{client: c, query: query}
}

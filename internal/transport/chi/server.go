package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/flowdex/internal/corpus"
	"github.com/kailas-cloud/flowdex/internal/domain/document"
	"github.com/kailas-cloud/flowdex/internal/domain/search/filter"
	"github.com/kailas-cloud/flowdex/internal/domain/search/request"
	"github.com/kailas-cloud/flowdex/internal/metrics"
	healthuc "github.com/kailas-cloud/flowdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/flowdex/internal/usecase/search"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Searcher runs ranked or browse searches.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (searchuc.Response, error)
}

// Catalog reads and reloads the corpus.
type Catalog interface {
	Get(ctx context.Context, id string) (document.Document, error)
	Reload(ctx context.Context) (corpus.LoadReport, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server is the HTTP adapter over the search and catalog services.
type Server struct {
	search        Searcher
	catalog       Catalog
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, catalog Catalog, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search:        search,
		catalog:       catalog,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := gochi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Post("/search", s.Search)
	r.Get("/documents/{id}", s.GetDocument)
	r.Post("/corpus/reload", s.ReloadCorpus)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, CodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}

	req, err := searchRequestFrom(body)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewSearchResponse(resp))
}

// GetDocument handles GET /documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.catalog.Get(r.Context(), gochi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc))
}

// ReloadCorpus handles POST /corpus/reload.
func (s *Server) ReloadCorpus(w http.ResponseWriter, r *http.Request) {
	report, err := s.catalog.Reload(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewReloadResponse(report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponseFrom(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func searchRequestFrom(body SearchRequest) (request.Request, error) {
	var f filter.Filters
	if body.Filters != nil {
		var err error
		f, err = filter.New(body.Filters.Services, body.Filters.Category, body.Filters.Complexity)
		if err != nil {
			return request.Request{}, fmt.Errorf("filters: %w", err)
		}
	}
	limit := 0
	if body.Limit != nil {
		limit = *body.Limit
	}
	req, err := request.New(body.Query, f, limit, body.Explain)
	if err != nil {
		return request.Request{}, fmt.Errorf("search request: %w", err)
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Search still answers, possibly lexical-only.
	Degraded Status = "degraded"
	// Unhealthy indicates no corpus is loaded.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckEmpty indicates a loaded but empty corpus.
	CheckEmpty CheckResult = "empty"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Documents int
	Checks    map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	corpus    func() CorpusReader
	db        DBPinger
	embedding EmbeddingChecker
}

// New creates a Service. corpus returns the live snapshot (nil when none).
// db and embedding can be nil.
func New(corpus func() CorpusReader, db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{corpus: corpus, db: db, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var docs int

	status := Healthy
	if c := s.corpus(); c == nil {
		checks["corpus"] = CheckError
		status = Unhealthy
	} else {
		docs = c.Len()
		checks["corpus"] = CheckOK
		if docs == 0 {
			checks["corpus"] = CheckEmpty
		}
	}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if status == Healthy {
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Documents: docs, Checks: checks}
}

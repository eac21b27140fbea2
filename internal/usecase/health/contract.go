package health

import "context"

// CorpusReader reports the size of the live corpus.
type CorpusReader interface {
	Len() int
}

// DBPinger checks availability of the embedding cache store.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

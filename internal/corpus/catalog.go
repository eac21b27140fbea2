package corpus

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/flowdex/internal/domain/document"
)

// Catalog holds the current Store and swaps it atomically on reload.
// Readers take a Snapshot once per call and never observe a partial corpus.
type Catalog struct {
	current atomic.Pointer[Store]
	logger  *zap.Logger
}

// NewCatalog creates a catalog holding an empty corpus.
func NewCatalog(logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{logger: logger}
	empty, _ := Load(nil, zap.NewNop())
	c.current.Store(empty)
	return c
}

// Snapshot returns the current store.
func (c *Catalog) Snapshot() *Store {
	return c.current.Load()
}

// Load builds a new store from raw records and swaps it in.
// Embeddings of the previous store are not carried over.
func (c *Catalog) Load(raws []document.Raw) LoadReport {
	s, report := Load(raws, c.logger)
	c.Swap(s)
	return report
}

// Swap replaces the current store and returns the previous one.
func (c *Catalog) Swap(s *Store) *Store {
	return c.current.Swap(s)
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// Register registers all flowdex collectors with the default registry.
// Safe to call more than once; must be called from main before serving /metrics.
func Register() {
	registerOnce.Do(func() {
		var all []prometheus.Collector
		all = append(all, embeddingCollectors()...)
		all = append(all, searchCollectors()...)
		all = append(all, corpusCollectors()...)
		all = append(all, httpCollectors()...)
		prometheus.MustRegister(all...)
	})
}

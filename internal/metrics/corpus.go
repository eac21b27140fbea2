package metrics

import "github.com/prometheus/client_golang/prometheus"

// Corpus Prometheus metrics.
var (
	CorpusDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "corpus_documents",
			Help:      "Documents in the current corpus snapshot",
		},
	)

	CorpusRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "corpus_rejected_total",
			Help:      "Records rejected during corpus loads",
		},
	)

	CorpusReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "corpus_reloads_total",
			Help:      "Corpus reload attempts by status",
		},
		[]string{"status"}, // "ok" / "error"
	)
)

func corpusCollectors() []prometheus.Collector {
	return []prometheus.Collector{CorpusDocuments, CorpusRejectedTotal, CorpusReloadsTotal}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	EngineScan    = "scan"
	EngineOffline = "offline"

	OutcomeHits      = "hits"
	OutcomeNoHits    = "no_hits"
	OutcomeBlank     = "blank"
	OutcomeTransport = "transport_error"
	OutcomePattern   = "pattern_error"
	OutcomeNotReady  = "not_ready"
	OutcomeError     = "error"
)

var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of search invocations",
		},
		[]string{"engine", "outcome"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds, corpus fetch included",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"engine"},
	)

	OfflineIndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "offline_index_documents",
			Help:      "Documents in the offline search index",
		},
	)

	AssetCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_cache_total",
			Help:      "Asset cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

func init() {
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(OfflineIndexDocuments)
	prometheus.MustRegister(AssetCacheTotal)
}

// ObserveSearch records one search invocation that started at start.
func ObserveSearch(engine string, outcome string, start time.Time) {
	SearchRequestsTotal.WithLabelValues(engine, outcome).Inc()
	SearchDuration.WithLabelValues(engine).Observe(time.Since(start).Seconds())
}

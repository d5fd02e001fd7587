package pick

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	pathLabel   = "path"
	resultLabel = "result"

	pathBuffer = "buffer"
	pathRay    = "ray"

	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

var (
	pickQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pick_queries_total",
		Help: "The total number of pick queries.",
	}, []string{pathLabel, resultLabel})

	pickQuerySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pick_query_seconds",
		Help:    "The duration of pick queries.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	}, []string{pathLabel})

	pickAllocatedIDs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pick_allocated_ids",
		Help: "The number of identifiers held by registered structures.",
	})
)

func instrumentQuery(path, result string, seconds float64) {
	pickQueriesTotal.
		With(prometheus.Labels{pathLabel: path, resultLabel: result}).
		Inc()
	pickQuerySeconds.
		With(prometheus.Labels{pathLabel: path}).
		Observe(seconds)
}

func instrumentAllocatedIDs(n uint64) {
	pickAllocatedIDs.Set(float64(n))
}

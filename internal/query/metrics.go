package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts cache behaviour per operation
type Metrics struct {
	Hits    *prometheus.CounterVec
	Misses  *prometheus.CounterVec
	Fetches *prometheus.CounterVec
	Joins   *prometheus.CounterVec
	Errors  *prometheus.CounterVec
}

// NewMetrics registers the query metrics with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	labels := []string{"operation"}
	return &Metrics{
		Hits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moviesearch_query_cache_hits_total",
			Help: "Fetches answered from fresh cached data.",
		}, labels),
		Misses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moviesearch_query_cache_misses_total",
			Help: "Fetches that found no fresh cached data.",
		}, labels),
		Fetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moviesearch_query_fetches_total",
			Help: "Calls made to a fetch function.",
		}, labels),
		Joins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moviesearch_query_dedup_joins_total",
			Help: "Callers that joined an in-flight fetch for the same key.",
		}, labels),
		Errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moviesearch_query_errors_total",
			Help: "Fetch function failures.",
		}, labels),
	}
}

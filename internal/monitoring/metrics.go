// Package monitoring exposes Prometheus metrics for table loads and station lookups.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "freezethaw"

// Metrics holds the counters and histograms recorded by the lookup service.
type Metrics struct {
	TableLoads    *prometheus.CounterVec // labels: outcome={loaded,empty}
	RecordsLoaded *prometheus.GaugeVec   // labels: season
	Queries       *prometheus.CounterVec // labels: status={found,no_match,no_state,no_data}
	Cache         *prometheus.CounterVec // labels: result={hit,miss}
	QueryDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.TableLoads,
		m.RecordsLoaded,
		m.Queries,
		m.Cache,
		m.QueryDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TableLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_loads_total",
			Help:      "Season table loads by outcome.",
		}, []string{"outcome"}),
		RecordsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Valid station records in the most recent load of each season.",
		}, []string{"season"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Station lookups by result status.",
		}, []string{"status"}),
		Cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_total",
			Help:      "Season table cache lookups by result.",
		}, []string{"result"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of a complete station lookup.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

// ObserveLoad records the outcome of a table load. The per-season gauge is
// only set for non-empty loads, so requests for seasons that do not exist
// never create a series.
func (m *Metrics) ObserveLoad(season string, records int) {
	if m == nil {
		return
	}
	if records == 0 {
		m.TableLoads.WithLabelValues("empty").Inc()
		return
	}
	m.TableLoads.WithLabelValues("loaded").Inc()
	m.RecordsLoaded.WithLabelValues(season).Set(float64(records))
}

// ObserveQuery records a lookup's status and duration in seconds.
func (m *Metrics) ObserveQuery(status string, seconds float64) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(status).Inc()
	m.QueryDuration.Observe(seconds)
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.Cache.WithLabelValues("hit").Inc()
	} else {
		m.Cache.WithLabelValues("miss").Inc()
	}
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "impact_sim"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// simulation service.
type Metrics struct {
	ActiveSessions  prometheus.Gauge
	GuardRejections *prometheus.CounterVec // labels: transition
	StaleDiscards   *prometheus.CounterVec // labels: operation={catalog,impact}
	PersistFailures prometheus.Counter
	CatalogLoads    *prometheus.CounterVec // labels: outcome={success,error}
	CatalogLoadTime prometheus.Histogram
	CatalogSize     prometheus.Histogram
	ImpactRequests  *prometheus.CounterVec // labels: outcome={success,error}
	ImpactDuration  prometheus.Histogram

	// Upstream HTTP metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: endpoint, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: endpoint
	FeedCache        *prometheus.CounterVec   // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.ActiveSessions,
		m.GuardRejections,
		m.StaleDiscards,
		m.PersistFailures,
		m.CatalogLoads,
		m.CatalogLoadTime,
		m.CatalogSize,
		m.ImpactRequests,
		m.ImpactDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.FeedCache,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      help("Number of live simulation sessions."),
		}),
		GuardRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_rejections_total",
			Help:      help("Stage transitions rejected because a prerequisite was missing."),
		}, []string{"transition"}),
		StaleDiscards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_discarded_total",
			Help:      help("Async responses dropped because their session generation was superseded."),
		}, []string{"operation"}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "point_persist_failures_total",
			Help:      help("Best-effort point writes that failed and were ignored."),
		}),
		CatalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_loads_total",
			Help:      help("Catalog fetch-and-merge runs by outcome."),
		}, []string{"outcome"}),
		CatalogLoadTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_load_duration_seconds",
			Help:      help("Duration of a catalog fetch-and-merge run."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CatalogSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_size",
			Help:      help("Number of asteroids in a merged catalog."),
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 250},
		}),
		ImpactRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "impact_requests_total",
			Help:      help("Impact computations by outcome."),
		}, []string{"outcome"}),
		ImpactDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "impact_duration_seconds",
			Help:      help("Duration of an impact computation round trip."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      help("Upstream API requests by endpoint and outcome."),
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      help("Upstream API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "neows_feed_cache_total",
			Help:      help("NeoWs feed cache lookups by result."),
		}, []string{"result"}),
	}
}

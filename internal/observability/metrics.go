package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "site_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the site monitor.
type Metrics struct {
	Refreshes        prometheus.Counter
	RefreshErrors    prometheus.Counter
	SitesAssessed    prometheus.Counter
	ReportsPublished prometheus.Counter
	MonitorRunning   prometheus.Gauge

	RefreshDuration prometheus.Histogram
	RiskLevel       prometheus.Histogram

	// Alert source metrics.
	AlertsFetched      prometheus.Counter
	AlertFetches       *prometheus.CounterVec // labels: outcome={success,error,empty}
	AlertCache         *prometheus.CounterVec // labels: result={hit,miss}
	AlertFetchDuration prometheus.Histogram
}

// NewMetrics creates and registers all monitor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Total refresh cycles started.",
		}),
		RefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_errors_total",
			Help:      "Refresh cycles that failed before producing reports.",
		}),
		SitesAssessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sites_assessed_total",
			Help:      "Total site reports built.",
		}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Total site reports written to the sink topic.",
		}),
		MonitorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-assess-publish cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RiskLevel: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_level",
			Help:      "Distribution of computed site risk levels.",
			Buckets:   []float64{0, 30, 50, 70, 90, 100},
		}),
		AlertsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_fetched_total",
			Help:      "Total raw alerts returned by the alert source.",
		}),
		AlertFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_fetches_total",
			Help:      "Alert source requests by outcome.",
		}, []string{"outcome"}),
		AlertCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_cache_total",
			Help:      "Alert cache lookups by result.",
		}, []string{"result"}),
		AlertFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alert_fetch_duration_seconds",
			Help:      "NWS API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Refreshes,
		m.RefreshErrors,
		m.SitesAssessed,
		m.ReportsPublished,
		m.MonitorRunning,
		m.RefreshDuration,
		m.RiskLevel,
		m.AlertsFetched,
		m.AlertFetches,
		m.AlertCache,
		m.AlertFetchDuration,
	}
}

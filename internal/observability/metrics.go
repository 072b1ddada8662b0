package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the risk engine.
type Metrics struct {
	AssessmentsTotal   *prometheus.CounterVec // labels: outcome={success,error}
	AnalyzersSkipped   *prometheus.CounterVec // labels: analyzer={erosion,flood,threat}
	AssessmentDuration prometheus.Histogram

	// Feature resolution metrics.
	ProviderRequests  *prometheus.CounterVec   // labels: provider={openmeteo,noaa,clay}, outcome={success,error}
	ProviderDuration  *prometheus.HistogramVec // labels: provider
	ProviderFallbacks *prometheus.CounterVec   // labels: field
	FeatureCache      *prometheus.CounterVec   // labels: result={hit,miss}

	// Monitor metrics.
	MonitorRunning   prometheus.Gauge
	MonitorSweeps    prometheus.Counter
	AlertsPublished  prometheus.Counter
	AlertsSuppressed prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		AssessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coastal_risk",
			Name:      "assessments_total",
			Help:      "Total assessment requests by outcome.",
		}, []string{"outcome"}),
		AnalyzersSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coastal_risk",
			Name:      "analyzers_skipped_total",
			Help:      "Analyzers skipped inside otherwise successful assessments.",
		}, []string{"analyzer"}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coastal_risk",
			Name:      "assessment_duration_seconds",
			Help:      "Duration of a complete resolve-analyze-aggregate cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coastal_risk",
			Name:      "provider_requests_total",
			Help:      "External provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coastal_risk",
			Name:      "provider_request_duration_seconds",
			Help:      "External provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider"}),
		ProviderFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coastal_risk",
			Name:      "provider_fallbacks_total",
			Help:      "Feature fields resolved from fallback values after a provider failure.",
		}, []string{"field"}),
		FeatureCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coastal_risk",
			Name:      "feature_cache_total",
			Help:      "Feature cache lookups by result.",
		}, []string{"result"}),
		MonitorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "coastal_risk",
			Name:      "monitor_running",
			Help:      "1 when the scheduled monitor is active, 0 when shut down.",
		}),
		MonitorSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal_risk",
			Name:      "monitor_sweeps_total",
			Help:      "Completed monitor sweeps over the stored AOI set.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal_risk",
			Name:      "alerts_published_total",
			Help:      "Alert-eligible composite reports published to the alert topic.",
		}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal_risk",
			Name:      "alerts_suppressed_total",
			Help:      "Alerts suppressed by the deduplication window.",
		}),
	}

	prometheus.MustRegister(
		m.AssessmentsTotal,
		m.AnalyzersSkipped,
		m.AssessmentDuration,
		m.ProviderRequests,
		m.ProviderDuration,
		m.ProviderFallbacks,
		m.FeatureCache,
		m.MonitorRunning,
		m.MonitorSweeps,
		m.AlertsPublished,
		m.AlertsSuppressed,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		AssessmentsTotal:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coastal_risk", Name: "assessments_total"}, []string{"outcome"}),
		AnalyzersSkipped:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coastal_risk", Name: "analyzers_skipped_total"}, []string{"analyzer"}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "coastal_risk", Name: "assessment_duration_seconds"}),
		ProviderRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coastal_risk", Name: "provider_requests_total"}, []string{"provider", "outcome"}),
		ProviderDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "coastal_risk", Name: "provider_request_duration_seconds"}, []string{"provider"}),
		ProviderFallbacks:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coastal_risk", Name: "provider_fallbacks_total"}, []string{"field"}),
		FeatureCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coastal_risk", Name: "feature_cache_total"}, []string{"result"}),
		MonitorRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "coastal_risk", Name: "monitor_running"}),
		MonitorSweeps:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "coastal_risk", Name: "monitor_sweeps_total"}),
		AlertsPublished:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "coastal_risk", Name: "alerts_published_total"}),
		AlertsSuppressed:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "coastal_risk", Name: "alerts_suppressed_total"}),
	}
}

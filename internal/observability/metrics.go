// Package observability holds the Prometheus instrumentation for the
// RainScout service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// planner core and its upstream clients.
type Metrics struct {
	// Upstream client metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	UpstreamDuration   *prometheus.HistogramVec // labels: service={geocoder,risk,scan}
	UpstreamFailures   *prometheus.CounterVec   // labels: service, kind={transport,schema,rate_limited}

	// Planner metrics.
	RiskQueries      *prometheus.CounterVec // labels: outcome={success,validation_failed,upstream_failed}
	AlternativeScans *prometheus.CounterVec // labels: outcome={better_options,no_better_options,validation_failed,upstream_failed}
	SessionsActive   prometheus.Gauge
}

func build() *Metrics {
	return &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainscout",
			Name:      "geocode_requests_total",
			Help:      "Geocoding requests by method and outcome.",
		}, []string{"method", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rainscout",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"service"}),
		UpstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainscout",
			Name:      "upstream_failures_total",
			Help:      "Upstream failures by service and failure kind.",
		}, []string{"service", "kind"}),
		RiskQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainscout",
			Name:      "risk_queries_total",
			Help:      "Primary risk queries by outcome.",
		}, []string{"outcome"}),
		AlternativeScans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainscout",
			Name:      "alternative_scans_total",
			Help:      "Alternative-location scans by outcome.",
		}, []string{"outcome"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainscout",
			Name:      "sessions_active",
			Help:      "Number of live planning sessions.",
		}),
	}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := build()
	prometheus.MustRegister(
		m.GeocodeRequests,
		m.UpstreamDuration,
		m.UpstreamFailures,
		m.RiskQueries,
		m.AlternativeScans,
		m.SessionsActive,
	)
	return m
}

// NewMetricsForTesting creates Metrics with no registry registration to
// avoid "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return build()
}

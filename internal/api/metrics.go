package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the API collectors.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResolvedTotal   *prometheus.CounterVec
	LoadErrorsTotal *prometheus.CounterVec
	CacheHitsTotal  prometheus.Counter
}

// NewMetrics creates and registers the API collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "positions",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "positions",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		ResolvedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "positions",
			Name:      "resolved_total",
			Help:      "Rendered positions by the ordering rule that fired.",
		}, []string{"rule"}),
		LoadErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "positions",
			Name:      "load_errors_total",
			Help:      "Position load failures by kind.",
		}, []string{"kind"}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "positions",
			Name:      "cache_hits_total",
			Help:      "Position reads answered from stored views after a chain failure.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.ResolvedTotal, m.LoadErrorsTotal, m.CacheHitsTotal)
	}
	return m
}

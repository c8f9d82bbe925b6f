// Package metrics owns the prometheus registry for the demo server: HTTP
// request metrics with safe labels (method, route, status) plus counters for
// the request-context outcomes worth watching (negotiation misses,
// conditional-request hits, rate-limit denials).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keithlinneman/webctx/internal/version"
)

type ServerMetrics struct {
	reg     *prometheus.Registry
	handler http.Handler

	inflight  prometheus.Gauge
	reqTotal  *prometheus.CounterVec
	reqDur    *prometheus.HistogramVec
	respBytes *prometheus.HistogramVec
	buildInfo *prometheus.GaugeVec

	negotiationMissTotal *prometheus.CounterVec
	conditionalHitTotal  prometheus.Counter
	ratelimitDeniedTotal prometheus.Counter
}

// New returns a fresh registry with standard collectors plus HTTP metrics.
func New() *ServerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &ServerMetrics{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests",
		}),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		}, []string{"method", "route", "status"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency by method and route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		respBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Response size by method and route",
			Buckets: []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576},
		}, []string{"method", "route"}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build metadata (value is always 1)",
		}, []string{"app", "version", "commit", "go_version"}),
		negotiationMissTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_negotiation_miss_total",
			Help: "Requests whose Accept header matched nothing we offer (406), by route",
		}, []string{"route"}),
		conditionalHitTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_conditional_hit_total",
			Help: "Requests answered 304 because the client's validators were fresh",
		}),
		ratelimitDeniedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_requests_rate_limited_total",
			Help: "Total requests rejected by rate limiter",
		}),
	}

	reg.MustRegister(
		m.inflight,
		m.reqTotal,
		m.reqDur,
		m.respBytes,
		m.buildInfo,
		m.negotiationMissTotal,
		m.conditionalHitTotal,
		m.ratelimitDeniedTotal,
	)

	vi := version.Get()
	m.buildInfo.WithLabelValues(version.AppName, vi.Version, vi.Commit, vi.GoVersion).Set(1)

	m.reg = reg
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true, // exemplar support
	})
	return m
}

// Handler serves the /metrics endpoint.
func (m *ServerMetrics) Handler() http.Handler { return m.handler }

// Registry exposes the underlying registry for tests.
func (m *ServerMetrics) Registry() *prometheus.Registry { return m.reg }

func (m *ServerMetrics) NegotiationMiss(route string) {
	m.negotiationMissTotal.WithLabelValues(route).Inc()
}

func (m *ServerMetrics) ConditionalHit() { m.conditionalHitTotal.Inc() }

func (m *ServerMetrics) RateLimitDenied() { m.ratelimitDeniedTotal.Inc() }

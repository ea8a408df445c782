// Package metrics exposes the application's prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "matchday"

// Metrics groups the collectors registered on one registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	writes          *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	blockedDeletes  prometheus.Counter
	scoredPredicts  prometheus.Counter
	scoringFailures prometheus.Counter
}

// New builds the collectors and registers them, plus the go and process
// collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writes_total",
			Help:      "Accepted writes by record kind and operation.",
		}, []string{"kind", "op"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_rejections_total",
			Help:      "Rejected writes by record kind and reason.",
		}, []string{"kind", "reason"}),
		blockedDeletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocked_team_deletes_total",
			Help:      "Team deletes refused because matches reference the team.",
		}),
		scoredPredicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_scored_total",
			Help:      "Predictions that received result points.",
		}),
		scoringFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_failures_total",
			Help:      "Scoring passes that ended in an error.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.writes,
		m.rejections,
		m.blockedDeletes,
		m.scoredPredicts,
		m.scoringFailures,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Write counts an accepted create, update or delete.
func (m *Metrics) Write(kind, op string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(kind, op).Inc()
}

// Rejected counts a write refused by validation or the store.
func (m *Metrics) Rejected(kind, reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(kind, reason).Inc()
}

// BlockedDelete counts a refused team delete.
func (m *Metrics) BlockedDelete() {
	if m == nil {
		return
	}
	m.blockedDeletes.Inc()
}

// Scored counts predictions that received points.
func (m *Metrics) Scored(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.scoredPredicts.Add(float64(n))
}

// ScoringFailed counts a failed scoring pass.
func (m *Metrics) ScoringFailed() {
	if m == nil {
		return
	}
	m.scoringFailures.Inc()
}

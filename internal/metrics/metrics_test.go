package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Write("team", "create")
	m.Write("team", "create")
	m.Rejected("prediction", "probability_sum")
	m.BlockedDelete()
	m.Scored(3)
	m.Scored(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.writes.WithLabelValues("team", "create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("prediction", "probability_sum")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.blockedDeletes))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.scoredPredicts))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Write("team", "create")
		m.Rejected("team", "name")
		m.BlockedDelete()
		m.Scored(1)
		m.ScoringFailed()
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/health", "GET", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "matchday_http_requests_total")
}

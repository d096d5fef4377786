package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCall(t *testing.T) {
	m := NewMetrics()

	m.RecordCall("main", "GET", "200", 20*time.Millisecond)
	m.RecordCall("main", "GET", "404", 10*time.Millisecond)
	m.RecordCall("main", "POST", "error", 5*time.Millisecond)
	m.RecordFailover("main")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("main", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("main", "POST", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallFailovers.WithLabelValues("main")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalCalls)
	assert.Equal(t, int64(2), snap.FailedCalls)
	assert.InDelta(t, 0.035, snap.CallSeconds, 1e-9)
}

func TestCollectorAndProfilerCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordTrace()
	m.RecordTrace()
	m.RecordRejectedEvent("negative_duration")
	m.RecordProfileStored()
	m.RecordProfileEvicted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TracesRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TracesRejected.WithLabelValues("negative_duration")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProfilesStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProfilesEvicted))
	assert.Equal(t, int64(1), m.Snapshot().RejectedEvents)
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordCall("main", "GET", "200", time.Millisecond)
		m.RecordFailover("main")
		m.RecordTrace()
		m.RecordRejectedEvent("missing_method")
		m.RecordProfileStored()
		m.RecordProfileEvicted()
		m.RecordHTTPRequest("GET", "/", "200", time.Millisecond)
	})
}

func TestIsolatedRegistries(t *testing.T) {
	// two instances must not collide on registration
	a := NewMetrics()
	b := NewMetrics()

	a.RecordTrace()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.TracesRecorded))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.TracesRecorded))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/2", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.HTTPRequests)
	assert.Equal(t, int64(1), snap.HTTPErrorsTotal)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_requests_total"))
}

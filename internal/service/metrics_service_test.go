package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCacheHitRatio(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	assert.InDelta(t, 0.75, testutil.ToFloat64(m.cacheHitRatio), 1e-9)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
}

func TestMetricsExposition(t *testing.T) {
	m := NewMetricsService()
	m.RecordTransition("scholarship_application", "approved")
	m.RecordNotification("stored")
	m.ObserveSummaryLoad(summaryLabel(cacheKeyFundingReportPfx+"p-1:pdf"), time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `nextstep_lifecycle_transitions_total{entity="scholarship_application",state="approved"} 1`)
	assert.Contains(t, body, `nextstep_notifications_total{outcome="stored"} 1`)
	assert.Contains(t, body, `summary="report:funding"`)
	assert.NotContains(t, body, "p-1")
}

func TestMetricsCacheLatencyIsExposed(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, 2*time.Millisecond)
	m.ObserveCacheWrite(time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "nextstep_cache_get_duration_seconds_count 2")
	assert.Contains(t, body, "nextstep_cache_set_duration_seconds_count 1")
}

func TestNilMetricsServiceIsNoop(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.RecordCacheOperation(true, time.Millisecond)
		m.ObserveCacheWrite(time.Millisecond)
		m.ObserveSummaryLoad("stats:research", time.Millisecond)
		m.RecordTransition("project", "funded")
		m.RecordNotification("dropped")
	})

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

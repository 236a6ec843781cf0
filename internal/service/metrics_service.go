package service

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "nextstep"

// MetricsService owns a private Prometheus registry for HTTP traffic, the
// summary cache, lifecycle transitions and notification delivery. A nil
// *MetricsService is a valid no-op.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	summaryLoad     *prometheus.HistogramVec
	transitions     *prometheus.CounterVec
	notifications   *prometheus.CounterVec

	hits   uint64
	misses uint64
}

func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP requests by route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route template and status.",
	}, []string{"method", "route", "status"})

	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Summary cache lookups by result.",
	}, []string{"result"})
	m.cacheLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "get_duration_seconds",
		Help:      "Latency of summary cache reads.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	m.cacheWrite = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "set_duration_seconds",
		Help:      "Latency of summary cache writes.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	m.cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "hit_ratio",
		Help:      "Hits over all summary cache lookups since start.",
	})
	m.summaryLoad = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "summary_load_duration_seconds",
		Help:      "Time spent computing a summary from the database after a cache miss.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"summary"})

	m.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "lifecycle_transitions_total",
		Help:      "State changes of scholarships, projects, mentorships and collaborations.",
	}, []string{"entity", "state"})
	m.notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "notifications_total",
		Help:      "Notification dispatch outcomes.",
	}, []string{"outcome"})

	m.registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLookups, m.cacheLatency, m.cacheWrite, m.cacheHitRatio, m.summaryLoad,
		m.transitions, m.notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
	m.requestTotal.WithLabelValues(method, route, code).Inc()
}

// RecordCacheOperation counts a summary cache read and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, d time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(d.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.hits, 1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.misses, 1)
	}
	hits := atomic.LoadUint64(&m.hits)
	total := hits + atomic.LoadUint64(&m.misses)
	m.cacheHitRatio.Set(float64(hits) / float64(total))
}

func (m *MetricsService) ObserveCacheWrite(d time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(d.Seconds())
}

// ObserveSummaryLoad times the database work behind a cached summary.
func (m *MetricsService) ObserveSummaryLoad(summary string, d time.Duration) {
	if m == nil {
		return
	}
	m.summaryLoad.WithLabelValues(summary).Observe(d.Seconds())
}

// RecordTransition counts entity entering state.
func (m *MetricsService) RecordTransition(entity, state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(entity, state).Inc()
}

func (m *MetricsService) RecordNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

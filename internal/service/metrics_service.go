package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/edu-scheduler-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP, cache, database and scheduler activity.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	busyFetches        *prometheus.CounterVec
	staleGridLoads     prometheus.Counter
	verdicts           *prometheus.CounterVec
	normalizeWarnings  prometheus.Counter
	gridSessions       prometheus.Gauge
	sessionJobs        *prometheus.CounterVec
	classesCreated     prometheus.Counter
	conflictRejections prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	busyFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_busy_fetch_total",
		Help: "Busy interval resolutions by owner kind and outcome",
	}, []string{"owner_kind", "result"})

	staleGridLoads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_stale_grid_loads_total",
		Help: "Busy interval results discarded because the grid dependencies changed",
	})

	verdicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_verdicts_total",
		Help: "Conflict verdicts computed by state",
	}, []string{"state"})

	normalizeWarnings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_normalization_warnings_total",
		Help: "Selected occurrences dropped during normalization",
	})

	gridSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_grid_sessions",
		Help: "Open slot grid sessions",
	})

	sessionJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "class_session_jobs_total",
		Help: "Session calendar materialization jobs by outcome",
	}, []string{"result"})

	classesCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "classes_created_total",
		Help: "Classes created with a weekly schedule",
	})

	conflictRejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "class_conflict_rejections_total",
		Help: "Class submissions rejected by the server side conflict check",
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, dbQueryDuration, goroutines,
		busyFetches, staleGridLoads, verdicts, normalizeWarnings, gridSessions, sessionJobs, classesCreated, conflictRejections)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,

		busyFetches:        busyFetches,
		staleGridLoads:     staleGridLoads,
		verdicts:           verdicts,
		normalizeWarnings:  normalizeWarnings,
		gridSessions:       gridSessions,
		sessionJobs:        sessionJobs,
		classesCreated:     classesCreated,
		conflictRejections: conflictRejections,
	}
}

// Registry exposes the collector registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordBusyFetch counts a busy interval resolution. result is success, cache_hit or error.
func (m *MetricsService) RecordBusyFetch(kind models.OwnerKind, result string) {
	if m == nil {
		return
	}
	m.busyFetches.WithLabelValues(string(kind), result).Inc()
}

// RecordStaleGridLoad counts a load result that arrived after the grid moved on.
func (m *MetricsService) RecordStaleGridLoad() {
	if m == nil {
		return
	}
	m.staleGridLoads.Inc()
}

// RecordVerdicts counts verdicts by state.
func (m *MetricsService) RecordVerdicts(verdicts []models.ConflictVerdict) {
	if m == nil {
		return
	}
	for _, v := range verdicts {
		m.verdicts.WithLabelValues(string(v.State)).Inc()
	}
}

// RecordNormalizationWarnings counts dropped selections.
func (m *MetricsService) RecordNormalizationWarnings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.normalizeWarnings.Add(float64(n))
}

// SetGridSessions reports the number of open grid sessions.
func (m *MetricsService) SetGridSessions(n int) {
	if m == nil {
		return
	}
	m.gridSessions.Set(float64(n))
}

// RecordSessionJob counts a materialization job outcome.
func (m *MetricsService) RecordSessionJob(result string) {
	if m == nil {
		return
	}
	m.sessionJobs.WithLabelValues(result).Inc()
}

// RecordClassCreated counts a created class.
func (m *MetricsService) RecordClassCreated() {
	if m == nil {
		return
	}
	m.classesCreated.Inc()
}

// RecordConflictRejection counts a submission refused because of conflicts.
func (m *MetricsService) RecordConflictRejection() {
	if m == nil {
		return
	}
	m.conflictRejections.Inc()
}

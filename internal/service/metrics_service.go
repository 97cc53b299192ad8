package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

// Recognition outcomes recorded by ObserveRecognition.
const (
	RecognitionMatched   = "matched"
	RecognitionUnknown   = "unknown"
	RecognitionDuplicate = "duplicate"
	RecognitionFailed    = "failed"
)

// MetricsService owns the Prometheus registry and keeps running totals for snapshots.
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
	reportDuration  *prometheus.HistogramVec
	attendanceMarks *prometheus.CounterVec
	recognitions    *prometheus.CounterVec
	faceService     *prometheus.HistogramVec
	exportJobs      *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
	markCount            uint64
	recognitionCount     uint64
}

// NewMetricsService registers the HTTP, cache, store and attendance collectors.
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
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
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
		Help:    "Duration of event store reads",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	reportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "report_build_duration_seconds",
		Help:    "Time spent fetching and aggregating a report",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})

	attendanceMarks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_marks_total",
		Help: "Attendance marks by outcome",
	}, []string{"status"})

	recognitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "face_recognitions_total",
		Help: "Recognition requests by outcome",
	}, []string{"outcome"})

	faceService := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "face_service_request_seconds",
		Help:    "Latency of calls to the face recognition service",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"operation", "result"})

	exportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "export_jobs_total",
		Help: "Report export jobs by terminal status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		dbQueryDuration, reportDuration,
		attendanceMarks, recognitions, faceService, exportJobs,
		goroutines,
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		reportDuration:  reportDuration,
		attendanceMarks: attendanceMarks,
		recognitions:    recognitions,
		faceService:     faceService,
		exportJobs:      exportJobs,
	}
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache hit or miss and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records event store read timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveReport records the end-to-end build time of a report.
func (m *MetricsService) ObserveReport(report string, duration time.Duration) {
	if m == nil {
		return
	}
	m.reportDuration.WithLabelValues(report).Observe(duration.Seconds())
}

// RecordAttendanceMark counts a stored mark by its status.
func (m *MetricsService) RecordAttendanceMark(status models.AttendanceStatus) {
	if m == nil {
		return
	}
	m.attendanceMarks.WithLabelValues(string(status)).Inc()
	atomic.AddUint64(&m.markCount, 1)
}

// ObserveRecognition counts a recognition request by outcome.
func (m *MetricsService) ObserveRecognition(outcome string) {
	if m == nil {
		return
	}
	m.recognitions.WithLabelValues(outcome).Inc()
	atomic.AddUint64(&m.recognitionCount, 1)
}

// ObserveFaceService records one call to the face recognition service.
func (m *MetricsService) ObserveFaceService(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.faceService.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// RecordExportJob counts an export job reaching a terminal status.
func (m *MetricsService) RecordExportJob(status models.ExportStatus) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(string(status)).Inc()
}

// Snapshot returns aggregated totals for the metrics summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	dbDuration := atomic.LoadUint64(&m.dbQueryDurationTotal)

	var cacheRatio float64
	if lookups := hits + misses; lookups > 0 {
		cacheRatio = float64(hits) / float64(lookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgDBMs float64
	if dbCount > 0 {
		avgDBMs = float64(dbDuration) / float64(dbCount) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		DBQueryCount:             dbCount,
		AverageDBQueryDurationMs: avgDBMs,
		AttendanceMarked:         atomic.LoadUint64(&m.markCount),
		Recognitions:             atomic.LoadUint64(&m.recognitionCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

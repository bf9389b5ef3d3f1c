package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Verification lookup outcomes used as metric labels.
const (
	OutcomeVerified  = "verified"
	OutcomeInvalid   = "invalid"
	OutcomeExpired   = "expired"
	OutcomeIntegrity = "integrity_failure"
	OutcomeError     = "error"
)

// SystemMetrics is a lightweight snapshot served next to the Prometheus endpoint.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	DocumentsGenerated       uint64    `json:"documentsGenerated"`
	AverageGenerationMs      float64   `json:"averageGenerationMs"`
	VerificationsSucceeded   uint64    `json:"verificationsSucceeded"`
	VerificationsRejected    uint64    `json:"verificationsRejected"`
	PhotoFallbacks           uint64    `json:"photoFallbacks"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	documentsTotal     *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	verificationTotal  *prometheus.CounterVec
	photoFallbacks     prometheus.Counter
	batchJobs          *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	documentCount        uint64
	generationTotal      uint64
	verifiedCount        uint64
	rejectedCount        uint64
	photoFallbackCount   uint64
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

	documentsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_generated_total",
		Help: "Academic documents generated by kind",
	}, []string{"kind"})

	generationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "document_generation_seconds",
		Help:    "End to end document generation latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"kind"})

	verificationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "verification_lookups_total",
		Help: "Verification lookups by outcome",
	}, []string{"outcome"})

	photoFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "document_photo_fallbacks_total",
		Help: "Documents rendered without the requested identity photo",
	})

	batchJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_batch_jobs_total",
		Help: "Class batch jobs by final status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, documentsTotal, generationDuration, verificationTotal, photoFallbacks, batchJobs, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		documentsTotal:     documentsTotal,
		generationDuration: generationDuration,
		verificationTotal:  verificationTotal,
		photoFallbacks:     photoFallbacks,
		batchJobs:          batchJobs,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
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

// ObserveDocument records one generated document.
func (m *MetricsService) ObserveDocument(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.documentsTotal.WithLabelValues(kind).Inc()
	m.generationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	atomic.AddUint64(&m.documentCount, 1)
	atomic.AddUint64(&m.generationTotal, uint64(duration.Nanoseconds()))
}

// RecordVerification counts a lookup outcome.
func (m *MetricsService) RecordVerification(outcome string) {
	if m == nil {
		return
	}
	m.verificationTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeVerified {
		atomic.AddUint64(&m.verifiedCount, 1)
		return
	}
	atomic.AddUint64(&m.rejectedCount, 1)
}

// RecordPhotoFallback counts a document rendered without its photo.
func (m *MetricsService) RecordPhotoFallback() {
	if m == nil {
		return
	}
	m.photoFallbacks.Inc()
	atomic.AddUint64(&m.photoFallbackCount, 1)
}

// RecordBatchJob counts a finished class batch.
func (m *MetricsService) RecordBatchJob(status string) {
	if m == nil {
		return
	}
	m.batchJobs.WithLabelValues(status).Inc()
}

// Snapshot returns aggregated metrics for the JSON metrics endpoint.
func (m *MetricsService) Snapshot() SystemMetrics {
	if m == nil {
		return SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	documents := atomic.LoadUint64(&m.documentCount)
	genDuration := atomic.LoadUint64(&m.generationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	var avgGenerationMs float64
	if documents > 0 {
		avgGenerationMs = float64(genDuration) / float64(documents) / float64(time.Millisecond)
	}

	return SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		DocumentsGenerated:       documents,
		AverageGenerationMs:      avgGenerationMs,
		VerificationsSucceeded:   atomic.LoadUint64(&m.verifiedCount),
		VerificationsRejected:    atomic.LoadUint64(&m.rejectedCount),
		PhotoFallbacks:           atomic.LoadUint64(&m.photoFallbackCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

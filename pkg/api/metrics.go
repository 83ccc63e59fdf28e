package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Archive operation metrics
	archiveOperationsTotal   *prometheus.CounterVec
	archiveOperationDuration *prometheus.HistogramVec
	datalogsStored           prometheus.Gauge

	// Ingest metrics
	ingestedBytes  *prometheus.HistogramVec
	ingestedFrames *prometheus.CounterVec

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec

	// Health check metrics
	healthChecksTotal *prometheus.CounterVec
}

// NewMetrics creates all Prometheus metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecudl_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ecudl_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ecudl_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		archiveOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecudl_archive_operations_total",
				Help: "Total number of archive operations",
			},
			[]string{"operation", "status"},
		),

		archiveOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ecudl_archive_operation_duration_seconds",
				Help:    "Archive operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		datalogsStored: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ecudl_datalogs_stored",
				Help: "Number of datalogs in the archive at the last listing",
			},
		),

		ingestedBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ecudl_ingested_bytes",
				Help:    "Size of ingested datalogs as stored",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
			[]string{"family"},
		),

		ingestedFrames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecudl_ingested_frames_total",
				Help: "Total number of frames ingested",
			},
			[]string{"family"},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecudl_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecudl_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordArchiveOperation records an archive operation
func (m *Metrics) RecordArchiveOperation(operation string, success bool, duration time.Duration) {
	m.archiveOperationsTotal.WithLabelValues(operation, status(success)).Inc()
	m.archiveOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordIngest records the size and frame count of an ingested datalog
func (m *Metrics) RecordIngest(family string, storedBytes int64, frames int) {
	m.ingestedBytes.WithLabelValues(family).Observe(float64(storedBytes))
	m.ingestedFrames.WithLabelValues(family).Add(float64(frames))
}

// UpdateArchiveStats sets the stored datalog gauge
func (m *Metrics) UpdateArchiveStats(datalogs int) {
	m.datalogsStored.Set(float64(datalogs))
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	m.authRequestsTotal.WithLabelValues(status(success)).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	m.healthChecksTotal.WithLabelValues(status(success)).Inc()
}

func status(success bool) string {
	if success {
		return statusSuccess
	}
	return statusError
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware counts authentication outcomes of requests that
// carried an API key.
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		inner := next(h)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			inner.ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

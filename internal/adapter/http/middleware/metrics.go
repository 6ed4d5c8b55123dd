package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iho/loanledger/internal/infrastructure/metrics"
)

// MetricsMiddleware records HTTP request metrics.
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

// NewMetricsMiddleware creates a new MetricsMiddleware.
func NewMetricsMiddleware(m *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: m}
}

// Wrap wraps an http.Handler with metrics recording.
func (m *MetricsMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.metrics.HTTPInFlight.Inc()
		defer m.metrics.HTTPInFlight.Dec()

		wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		m.metrics.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		m.metrics.HTTPDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// normalizePath collapses path parameters to keep label cardinality low.
// /api/v1/loans/01ABC123/repayments -> /api/v1/loans/:id/repayments
func normalizePath(path string) string {
	const loansPrefix = "/api/v1/loans/"

	if strings.HasPrefix(path, loansPrefix) {
		rest := path[len(loansPrefix):]
		if rest == "" || rest == "mine" {
			return path
		}

		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			return loansPrefix + ":id" + rest[idx:]
		}

		return loansPrefix + ":id"
	}

	return path
}

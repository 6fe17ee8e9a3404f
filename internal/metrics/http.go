package metrics

import (
	"strconv"
	"time"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/core"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m core.Recorder) gin.HandlerFunc {
	// If NoopMetrics, return a lightweight middleware that does nothing
	if _, ok := m.(*NoopMetrics); ok {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	// Type assert to concrete Metrics for Prometheus access
	metrics, ok := m.(*Metrics)
	if !ok {
		// Fallback if unknown implementation
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()

		// Increment in-flight counter
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		// Process request
		c.Next()

		// Record metrics after request completes
		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := normalizePath(c.FullPath()) // Use route pattern, not actual path
		status := strconv.Itoa(c.Writer.Status())

		// Record request count
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()

		// Record request duration
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// normalizePath converts the actual request path to route pattern
// Returns the route pattern (e.g., "/accounts/:id") or "unknown" if no match
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

// RecordLinkAttempt records a rideshare account link attempt
func (m *Metrics) RecordLinkAttempt(provider, result string) {
	m.LinkAttemptsTotal.WithLabelValues(provider, result).Inc()
}

// RecordDisconnect records a rideshare account disconnect
func (m *Metrics) RecordDisconnect(provider, result string) {
	m.DisconnectsTotal.WithLabelValues(provider, result).Inc()
}

// RecordRevocation records an upstream token revocation attempt
func (m *Metrics) RecordRevocation(provider, result string) {
	m.RevocationsTotal.WithLabelValues(provider, result).Inc()
}

// RecordUpstreamCall records the latency of a provider API call
func (m *Metrics) RecordUpstreamCall(provider, operation string, d time.Duration) {
	m.UpstreamCallDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
}

// RecordLogin records a login attempt
func (m *Metrics) RecordLogin(success bool) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.LoginTotal.WithLabelValues(result).Inc()
}

// RecordTokenValidation records a bearer token validation
func (m *Metrics) RecordTokenValidation(result string) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
}

// SetAccountsCount updates the per-type account gauges
func (m *Metrics) SetAccountsCount(accountType string, total, connected int) {
	m.AccountsTotal.WithLabelValues(accountType).Set(float64(total))
	m.AccountsConnected.WithLabelValues(accountType).Set(float64(connected))
}

// RecordDatabaseQueryError records a database error during metric collection
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}

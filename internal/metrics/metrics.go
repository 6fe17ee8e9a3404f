package metrics

import (
	"sync"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ core.Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Rideshare Linking Metrics
	LinkAttemptsTotal    *prometheus.CounterVec
	DisconnectsTotal     *prometheus.CounterVec
	RevocationsTotal     *prometheus.CounterVec
	UpstreamCallDuration *prometheus.HistogramVec

	// Authentication Metrics
	LoginTotal           *prometheus.CounterVec
	TokenValidationTotal *prometheus.CounterVec

	// Account Metrics
	AccountsTotal     *prometheus.GaugeVec
	AccountsConnected *prometheus.GaugeVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) core.Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	m := &Metrics{
		// Rideshare Linking Metrics
		LinkAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rideshare_link_attempts_total",
				Help: "Total number of rideshare account link attempts",
			},
			[]string{
				"provider",
				"result",
			}, // result: success, upstream_auth_failure, upstream_unreachable, invalid_response, error
		),
		DisconnectsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rideshare_disconnects_total",
				Help: "Total number of rideshare account disconnects",
			},
			[]string{"provider", "result"}, // result: success, error
		),
		RevocationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rideshare_revocations_total",
				Help: "Total number of upstream token revocation attempts",
			},
			[]string{"provider", "result"}, // result: accepted, unreachable
		),
		UpstreamCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rideshare_upstream_call_duration_seconds",
				Help:    "Time taken for rideshare provider API calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "operation"}, // operation: exchange, profile, revoke
		),

		// Authentication Metrics
		LoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_total",
				Help: "Total number of login attempts",
			},
			[]string{"result"}, // success, failure
		),
		TokenValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_token_validation_total",
				Help: "Total number of bearer token validations",
			},
			[]string{"result"}, // valid, invalid, expired
		),

		// Account Metrics
		AccountsTotal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "accounts_total",
				Help: "Current number of accounts by type",
			},
			[]string{"type"},
		),
		AccountsConnected: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "accounts_connected",
				Help: "Current number of accounts holding a live provider token",
			},
			[]string{"type"},
		),

		// HTTP Request Metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001,
					0.005,
					0.010,
					0.025,
					0.050,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
					5.0,
					10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		// Database Query Metrics
		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors during metric collection",
			},
			[]string{"operation"}, // count_accounts, count_connected
		),
	}

	return m
}

package core

import (
	"time"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
)

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Rideshare linking
	RecordLinkAttempt(provider, result string)
	RecordDisconnect(provider, result string)
	RecordRevocation(provider, result string)
	RecordUpstreamCall(provider, operation string, duration time.Duration)

	// Authentication
	RecordLogin(success bool)
	RecordTokenValidation(result string)

	// Gauge Setters (for periodic updates)
	SetAccountsCount(accountType string, total, connected int)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}

// MetricsStore defines the DB operations needed by the gauge update job.
type MetricsStore interface {
	CountAccountsByType(accountType models.AccountType) (int64, error)
	CountConnectedByType(accountType models.AccountType) (int64, error)
}

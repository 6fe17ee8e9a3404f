package metrics

import (
	"time"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/core"
)

// NoopMetrics is a no-operation implementation of core.Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements core.Recorder interface at compile time
var _ core.Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() core.Recorder {
	return &NoopMetrics{}
}

// Rideshare Linking - noop implementations
func (n *NoopMetrics) RecordLinkAttempt(provider, result string)                            {}
func (n *NoopMetrics) RecordDisconnect(provider, result string)                             {}
func (n *NoopMetrics) RecordRevocation(provider, result string)                             {}
func (n *NoopMetrics) RecordUpstreamCall(provider, operation string, d time.Duration)       {}

// Authentication - noop implementations
func (n *NoopMetrics) RecordLogin(success bool)              {}
func (n *NoopMetrics) RecordTokenValidation(result string)   {}

// Gauge Setters - noop implementations
func (n *NoopMetrics) SetAccountsCount(accountType string, total, connected int) {}

// Database Operations - noop implementations
func (n *NoopMetrics) RecordDatabaseQueryError(operation string) {}

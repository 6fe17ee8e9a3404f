package rideshare

import "errors"

var (
	// ErrUpstreamAuth is returned when the provider rejected a code
	// exchange or profile fetch with a non-success status.
	ErrUpstreamAuth = errors.New("rideshare provider rejected the request")

	// ErrUpstreamUnreachable is returned on transport-level failures
	// reaching the provider (timeout, connection reset, DNS failure).
	ErrUpstreamUnreachable = errors.New("rideshare provider is unreachable")

	// ErrInvalidResponse is returned when the provider responded with a
	// body this client cannot use (malformed JSON, missing fields).
	ErrInvalidResponse = errors.New("invalid response from rideshare provider")
)

package services

import "errors"

var (
	// ErrAccountNotFound is returned when the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUsernameTaken is returned when registering a username or email
	// that already exists.
	ErrUsernameTaken = errors.New("username or email already in use")

	// ErrUnsupportedProvider is returned when the requested provider has
	// no registered adapter.
	ErrUnsupportedProvider = errors.New("unsupported rideshare provider")

	// ErrWrongProvider is returned when an operation names an account
	// whose type does not match the provider in the request path. The
	// caller addressed a real account through the wrong provider route.
	ErrWrongProvider = errors.New("account type does not match requested provider")

	// ErrInvalidAccountType is returned when creating an account with a
	// type outside the known set.
	ErrInvalidAccountType = errors.New("invalid account type")
)

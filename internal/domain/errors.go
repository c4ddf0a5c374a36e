package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores and
// services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Player errors
var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrPlayerAlreadyExists = errors.New("player already exists")
	ErrInvalidUsername     = errors.New("invalid username")
)

// Performance record errors
var (
	ErrRecordNotFound = errors.New("performance record not found")
)

// Game input errors
var (
	ErrInvalidGameType = errors.New("invalid game type")
	ErrInvalidOutcome  = errors.New("invalid game outcome")
)

// General errors
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrStorageFailure = errors.New("storage failure")
)

// IsNotFound reports whether err is any of the not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrRecordNotFound)
}

// IsInvalidInput reports whether err was caused by rejected input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidGameType) ||
		errors.Is(err, ErrInvalidOutcome) ||
		errors.Is(err, ErrInvalidUsername)
}

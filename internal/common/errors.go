// Package common defines shared constants and sentinel errors used across
// client and server layers of boardpass. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Ceremony errors. A response arrived without a matching pending
	// challenge, or echoed a challenge the server never issued.
	ErrChallengeMismatch = errors.New("challenge missing or does not match the pending request")
)

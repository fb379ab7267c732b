// Package common defines shared constants and sentinel errors used across
// the inventory server, its repositories and the admin CLI. Callers should
// use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Authentication outcomes. ErrInvalidCredentials covers both an unknown
	// username and a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Session lifecycle errors: the presented token is absent, expired,
	// forged, or no longer resolves to a user.
	ErrSessionInvalid = errors.New("session invalid")

	// Authorization outcomes.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

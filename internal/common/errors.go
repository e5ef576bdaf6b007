// Package common defines shared constants and sentinel errors used across
// storage, service and transport layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Credential errors.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInactiveAccount    = errors.New("inactive user")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrPasswordTooLong    = errors.New("password is too long")

	// Token errors. ErrInvalidToken covers malformed, forged, expired and
	// wrong-type tokens alike.
	ErrInvalidToken          = errors.New("invalid token")
	ErrTokenRevokedOrUnknown = errors.New("refresh token revoked or not found")
)

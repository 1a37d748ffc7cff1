// Package common defines shared constants and sentinel errors used across
// client and server layers of SafeDrop. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorInvalidArgument = errors.New("invalid argument")

	// Exchange errors.
	//
	// ErrorForbidden is returned when the caller is not allowed to act on a
	// message (e.g. the sender redeeming their own attachment).
	ErrorForbidden = errors.New("forbidden")
	// ErrorGone is returned when the attachment has been burned by the
	// Core Store (exhausted, expired or never redeemable).
	ErrorGone = errors.New("gone")
	// ErrorService is a transient failure of the Core Store (unreachable,
	// timed out or speaking an unexpected protocol). It never implies burn.
	ErrorService = errors.New("core store unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

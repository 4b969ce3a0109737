package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Authentication flow errors. Each maps to a distinct user-facing failure so
// callers know whether to retry, resend, or re-register.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("account not verified")

	ErrNoCodeIssued = errors.New("no verification code issued")
	ErrCodeExpired  = errors.New("verification code expired")
	ErrCodeMismatch = errors.New("verification code mismatch")

	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	ErrStateInvalid     = errors.New("invalid oauth state")
	ErrStateExpired     = errors.New("oauth state expired")
	ErrProviderMismatch = errors.New("oauth provider mismatch")

	ErrUnknownProvider  = errors.New("unknown oauth provider")
	ErrDeliveryFailed   = errors.New("delivery failed")
	ErrStoreUnavailable = errors.New("store unavailable")
)

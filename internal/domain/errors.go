package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidOTP      = errors.New("invalid or expired OTP")
	ErrAlreadyVerified = errors.New("already verified")
	ErrBadRequest      = errors.New("bad request")
)

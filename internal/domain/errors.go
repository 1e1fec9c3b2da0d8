package domain

import "errors"

// Request-scoped errors surfaced to API callers. Handlers map these to HTTP
// status codes; none of them should take the process down.
var (
	ErrNotFound           = errors.New("not found")
	ErrCapacityExceeded   = errors.New("not enough seats available")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrInvalidPackageType = errors.New("unknown subscription package type")
	ErrValidation         = errors.New("invalid request")
	ErrHoldActive         = errors.New("a booking for this departure is already in progress")
)

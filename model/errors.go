package model

import "errors"

// Sentinel errors shared by the stores and handlers. Handlers map these to
// response status codes, so store implementations must return them (possibly
// wrapped) rather than ad-hoc errors for these conditions.
var (
	ErrNotFound              = errors.New("resource not found")
	ErrValidation            = errors.New("validation failed")
	ErrInsufficientInventory = errors.New("not enough tickets available")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrNotCancellable        = errors.New("booking cannot be cancelled")
	ErrEventHasBookings      = errors.New("event has active bookings")
)

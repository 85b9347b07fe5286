package bookings

import "errors"

var (
	// ErrMissingField is returned when a required booking field is absent.
	ErrMissingField = errors.New("missing required field")

	// ErrNotFound is returned when a booking does not exist.
	ErrNotFound = errors.New("booking not found")

	// ErrInvalidStatus is returned for a status outside the four-value enum.
	ErrInvalidStatus = errors.New("unknown booking status")

	// ErrIllegalTransition is returned when a status update would skip or
	// reverse the lifecycle graph.
	ErrIllegalTransition = errors.New("illegal status transition")
)

package errs

import "errors"

// Error taxonomy surfaced to callers. Specific errors are marked with one of
// these and tested with Is.
var (
	// Capability link errors
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token expired")
	ErrTokenAlreadyUsed = errors.New("token already used")

	// Negotiation errors
	ErrAlreadyDecided = errors.New("proposal already decided")

	// Booking errors
	ErrBookingConflict = errors.New("booking conflict")
	ErrForbidden       = errors.New("forbidden")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")

	// Delivery and setup errors
	ErrProviderError = errors.New("mail provider error")
	ErrConfiguration = errors.New("configuration error")
)

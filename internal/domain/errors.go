package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrOrderNotFound       = errors.New("order_not_found")
	ErrQuoteNotFound       = errors.New("quote_not_found")
	ErrParticipantNotFound = errors.New("participant_not_found")
	ErrInvalidState        = errors.New("invalid_state")
	ErrForbidden           = errors.New("forbidden")
	ErrNoMatch             = errors.New("no_match")
	ErrStaleLink           = errors.New("stale_link")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

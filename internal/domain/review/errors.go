package review

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInvalidRatings = errors.New("ratings must be between 1 and 5")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("review_not_found")

	// errAlreadyTerminal aborts a verification transaction that lost the race
	// to another verifier.
	errAlreadyTerminal = errors.New("review already has a terminal verdict")
)

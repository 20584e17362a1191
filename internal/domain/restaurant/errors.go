package restaurant

import "errors"

var (
	ErrNotFound       = errors.New("restaurant_not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

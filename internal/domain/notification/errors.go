package notification

import "errors"

var (
	ErrNotFound     = errors.New("notification not found")
	ErrUnauthorized = errors.New("authentication required")
)

package chat

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrUnknownChannel = errors.New("unknown_channel")
	ErrUnauthorized   = errors.New("unauthorized")
)

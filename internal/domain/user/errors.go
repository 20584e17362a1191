package user

import "errors"

var (
	ErrNotFound     = errors.New("user_not_found")
	ErrUnauthorized = errors.New("unauthorized")
)

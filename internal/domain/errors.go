package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest marks a request built incorrectly by application code.
	ErrInvalidRequest = errors.New("invalid request")
)

package store

import "errors"

var (
	// ErrNotFound indicates a record was not located.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate indicates a unique constraint was violated.
	ErrDuplicate = errors.New("store: duplicate")
)

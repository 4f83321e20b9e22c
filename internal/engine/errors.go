package engine

import "errors"

var (
	// ErrInvalidName rejects names that are empty, hidden, or not a single path segment.
	ErrInvalidName = errors.New("invalid name")
	// ErrNotFound is returned when a category or file does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a move would replace an existing file.
	ErrConflict = errors.New("already exists")
)

package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a document is not found.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidKey is returned when a stored key cannot be decoded back to a URI.
	ErrInvalidKey = errors.New("invalid document key")
)

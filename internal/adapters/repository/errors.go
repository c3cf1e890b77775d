package repository

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates the record does not exist.
	ErrNotFound = errors.New("record not found")
)

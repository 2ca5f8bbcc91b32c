// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrTimeout is returned when a sync exchange expires before a
	// matching response arrives.
	ErrTimeout = errors.New("timed out")
)

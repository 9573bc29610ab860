package domain

import "errors"

var (
	// ErrNotFound is returned when a table, field, record, canvas or view does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique name is already taken.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput is returned when a payload fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

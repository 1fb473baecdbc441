package domain

import "errors"

var (
	// ErrValidation marks malformed or incomplete caller input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing entity within the caller's tenant scope.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks an operation rejected by the entity's current state.
	ErrConflict = errors.New("conflict")
)

// Package apperr defines the error sentinels shared across planthub layers.
package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrDuplicate   = errors.New("already exists")
	ErrValidation  = errors.New("validation failed")
	ErrPersistence = errors.New("persistence failed")
)

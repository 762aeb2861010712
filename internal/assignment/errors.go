package assignment

import "errors"

var (
	ErrEmptyTitle     = errors.New("title cannot be empty")
	ErrMissingDue     = errors.New("due date is required")
	ErrInvalidDue     = errors.New("due date must be YYYY-MM-DD")
	ErrDuplicateTitle = errors.New("an assignment with this name already exists")
	ErrNotFound       = errors.New("assignment not found")

	// ErrMirror wraps persistence failures. The local change has already
	// been applied when it is returned.
	ErrMirror = errors.New("persisting assignment failed")
)

package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a list or task id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks input rejected before any write was attempted.
	ErrValidation = errors.New("validation failed")
)

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is, or wraps, ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

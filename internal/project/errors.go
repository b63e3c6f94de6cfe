package project

import "errors"

// Domain errors.
var (
	// ErrNotFound covers both a missing resource and one owned by another
	// account. The two are never distinguished.
	ErrNotFound = errors.New("not found")

	ErrNoIdentity         = errors.New("request has no identity")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidDates       = errors.New("invalid dates")
	ErrInvalidStatus      = errors.New("invalid status")
)

package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrMissingIdentity occurs when a request carries no tenant.
	ErrMissingIdentity = errors.New("tenant identity missing")
	// ErrInvalidIdentity occurs when tenant or user headers are not valid ids.
	ErrInvalidIdentity = errors.New("tenant identity invalid")
)

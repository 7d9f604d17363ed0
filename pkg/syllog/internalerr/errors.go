package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrMalformed        = errors.New("malformed statement")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// Resolution signals. Neither is a failure of the engine itself.
	ErrRefuted       = errors.New("refuted")
	ErrDepthExceeded = errors.New("search depth exceeded")
)

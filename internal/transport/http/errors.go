package http

import "errors"

// Static error definitions for better error handling.
var (
	// ErrNilRequest indicates that the HTTP request is nil.
	ErrNilRequest = errors.New("request is nil")
	// ErrInvalidTimeoutOption indicates that the timeout option has an unsupported type.
	ErrInvalidTimeoutOption = errors.New("timeout option must be a duration or a duration string")
)

package fetch

import "errors"

// Static error definitions for better error handling.
var (
	// ErrBodyConsumed indicates that the response body has already been read once.
	ErrBodyConsumed = errors.New("response body already consumed")
	// ErrUnsupportedFormContent indicates that the body is neither multipart nor urlencoded.
	ErrUnsupportedFormContent = errors.New("unsupported content type for form data")
)

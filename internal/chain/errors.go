package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/oshokin/fetchchain/internal/fetch"
)

// Static error definitions for better error handling.
var (
	// ErrUnknownErrorMode indicates that the error mode is neither text nor json.
	ErrUnknownErrorMode = errors.New("unknown error mode")
	// ErrDecodeErrorBody indicates that the body of a failed response could not be decoded.
	ErrDecodeErrorBody = errors.New("failed to decode error response body")
	// ErrNilTransport indicates that a chain was dispatched without a transport.
	ErrNilTransport = errors.New("transport is nil")
)

// DispatchError is returned when the transport reports a non-2xx status.
// Text holds the body in text mode and JSON in JSON mode. A JSON mode body
// that failed to decode is kept in Text, and the DispatchError then arrives
// wrapped in an ErrDecodeErrorBody error.
type DispatchError struct {
	// Status is the HTTP status code.
	Status int
	// Response is the raw response; its body has already been consumed.
	Response fetch.Response
	// Text holds the body when Mode is ErrorModeText.
	Text string
	// JSON holds the body when Mode is ErrorModeJSON and it decoded.
	JSON any
	// Mode is the error mode that was active at dispatch time.
	Mode ErrorMode
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body())
}

// Body returns the decoded body as text, re-encoding JSON bodies.
func (e *DispatchError) Body() string {
	if e.Mode != ErrorModeJSON || (e.JSON == nil && e.Text != "") {
		return e.Text
	}

	data, err := json.Marshal(e.JSON)
	if err != nil {
		return fmt.Sprint(e.JSON)
	}

	return string(data)
}

// IsNotFound checks if the error is a 404.
func (e *DispatchError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// IsUnauthorized checks if the error is a 401 or 403.
func (e *DispatchError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsServerError checks if the error is in the 5xx range.
func (e *DispatchError) IsServerError() bool {
	return e.Status >= http.StatusInternalServerError
}

// AsDispatchError extracts a *DispatchError from err.
func AsDispatchError(err error) (*DispatchError, bool) {
	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		return dispatchErr, true
	}

	return nil, false
}

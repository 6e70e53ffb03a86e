package http

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDInjector is an http.RoundTripper that tags each outgoing request
// with a random X-Request-Id unless one is already present.
type RequestIDInjector struct {
	next     http.RoundTripper
	generate func() string
}

// NewRequestIDInjector wraps next, generating identifiers with uuid.NewString.
func NewRequestIDInjector(next http.RoundTripper) http.RoundTripper {
	return &RequestIDInjector{
		next:     next,
		generate: uuid.NewString,
	}
}

// RoundTrip implements the http.RoundTripper interface.
func (t *RequestIDInjector) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	if req.Header.Get(RequestIDHeader) != "" {
		return t.next.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set(RequestIDHeader, t.generate())

	return t.next.RoundTrip(clone)
}

package http

import (
	"net/http"

	"github.com/oshokin/fetchchain/internal/utils"
)

// userAgentHeader is the HTTP header name for User-Agent.
const userAgentHeader = "User-Agent"

// UserAgentInjector is an http.RoundTripper that fills in a missing User-Agent header.
// A User-Agent set through the request options always wins.
type UserAgentInjector struct {
	next              http.RoundTripper
	userAgentProvider utils.UserAgentProvider
}

// NewUserAgentInjector wraps next with the given provider.
func NewUserAgentInjector(next http.RoundTripper, userAgentProvider utils.UserAgentProvider) http.RoundTripper {
	return &UserAgentInjector{
		next:              next,
		userAgentProvider: userAgentProvider,
	}
}

// RoundTrip implements the http.RoundTripper interface.
func (t *UserAgentInjector) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	if req.Header.Get(userAgentHeader) != "" {
		return t.next.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set(userAgentHeader, t.userAgentProvider.GetUserAgent())

	return t.next.RoundTrip(clone)
}

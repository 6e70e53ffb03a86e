package fetch

//go:generate $MOCKGEN -source=transport.go -destination=mocks/transport_mock.go

import (
	"context"
	"net/http"
)

// Transport performs one request described by a URL and an option mapping.
type Transport interface {
	// Fetch sends the request and returns the raw response.
	// A non-nil error means no response was obtained at all.
	Fetch(ctx context.Context, url string, opts Options) (Response, error)
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(ctx context.Context, url string, opts Options) (Response, error)

// Fetch calls f(ctx, url, opts).
func (f TransportFunc) Fetch(ctx context.Context, url string, opts Options) (Response, error) {
	return f(ctx, url, opts)
}

// Response is a raw response handle whose body can be decoded in several shapes.
// Each body decoder may be called at most once per response.
// A response whose body is never decoded must be closed.
type Response interface {
	// OK reports whether the status is in the 2xx range.
	OK() bool
	// Status returns the numeric HTTP status.
	Status() int
	// Header returns the response headers.
	Header() http.Header
	// Text decodes the body as a string.
	Text() (string, error)
	// JSON decodes the body into a generic value.
	JSON() (any, error)
	// Blob returns the body together with its media type.
	Blob() (*Blob, error)
	// FormData decodes a multipart or urlencoded body.
	FormData() (FormData, error)
	// ArrayBuffer returns the body as raw bytes.
	ArrayBuffer() ([]byte, error)
	// Close releases an unread body. It is a no-op once a decoder ran.
	Close() error
}

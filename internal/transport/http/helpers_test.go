package http

import (
	"io"
	"net/http"
	"strings"
)

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// recordingTransport answers every request with 200 and remembers what it saw.
func recordingTransport(seen *[]*http.Request) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		*seen = append(*seen, req)

		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"text/plain"}},
			Body:       io.NopCloser(strings.NewReader("ok")),
			Request:    req,
		}, nil
	})
}

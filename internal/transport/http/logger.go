package http

import (
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/oshokin/fetchchain/internal/logger"
	"github.com/oshokin/fetchchain/internal/utils"
)

// LogTransport is an http.RoundTripper that dumps requests and responses at debug level.
type LogTransport struct {
	// next is the underlying HTTP round tripper.
	next http.RoundTripper
	// maxLogLength caps the size of each dump.
	maxLogLength uint64
}

// NewLogTransport wraps next. A zero maxLogLength means DefaultMaxLogLength.
func NewLogTransport(next http.RoundTripper, maxLogLength uint64) http.RoundTripper {
	if maxLogLength == 0 {
		maxLogLength = DefaultMaxLogLength
	}

	return &LogTransport{
		next:         next,
		maxLogLength: maxLogLength,
	}
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LogTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	// Skip dumping unless the logger is at debug level.
	if !logger.IsDebugLevel() {
		return t.next.RoundTrip(req)
	}

	ctx := logger.WithKV(req.Context(), "request_id", req.Header.Get(RequestIDHeader))
	// Dump before sending; DumpRequestOut restores the body it reads.
	requestDump := t.dumpRequest(req)
	startTime := time.Now()

	resp, err := t.next.RoundTrip(req)

	duration := time.Since(startTime)

	if err != nil {
		logger.DebugKV(ctx, "Round trip failed",
			"method", req.Method,
			"url", req.URL.String(),
			"duration", duration,
			"error", err)

		return nil, err
	}

	logger.DebugKV(ctx, "Round trip",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration", duration,
		"request", requestDump,
		// DumpResponse buffers the body and puts a copy back on resp.
		"response", t.dumpResponse(resp))

	return resp, nil
}

func (t *LogTransport) dumpRequest(req *http.Request) string {
	dump, err := httputil.DumpRequestOut(req, utils.IsTextContentType(req.Header.Get("Content-Type")))
	if err != nil {
		return err.Error()
	}

	return t.truncate(dump)
}

func (t *LogTransport) dumpResponse(resp *http.Response) string {
	dump, err := httputil.DumpResponse(resp, utils.IsTextContentType(resp.Header.Get("Content-Type")))
	if err != nil {
		return err.Error()
	}

	return t.truncate(dump)
}

func (t *LogTransport) truncate(data []byte) string {
	if uint64(len(data)) > t.maxLogLength {
		return string(data[:t.maxLogLength]) + "... [truncated]"
	}

	return string(data)
}

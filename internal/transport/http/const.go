package http

import (
	"time"

	"github.com/oshokin/fetchchain/internal/version"
)

const (
	// DefaultTimeout is the default timeout duration for HTTP requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxLogLength is the default maximum size (in bytes) of a logged request or response dump.
	DefaultMaxLogLength = 64 * 1024 // 64 KB

	// RequestIDHeader is the header carrying the per-request identifier.
	RequestIDHeader = "X-Request-Id"
)

// DefaultUserAgent is the User-Agent sent when the request does not carry one.
//
//nolint:gochecknoglobals // Derived from the build version set with -ldflags.
var DefaultUserAgent = "fetchchain/" + version.Short() + " (+https://github.com/oshokin/fetchchain)"

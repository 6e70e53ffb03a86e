package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oshokin/fetchchain/internal/fetch"
	"github.com/oshokin/fetchchain/internal/logger"
	"github.com/oshokin/fetchchain/internal/utils"
)

const (
	contentTypeHeader     = "Content-Type"
	jsonContentType       = "application/json"
	urlEncodedContentType = "application/x-www-form-urlencoded"
)

// ClientOptions configures the *http.Client built by NewClient.
type ClientOptions struct {
	// Timeout bounds every request; zero means DefaultTimeout.
	Timeout time.Duration
	// UserAgent is sent when a request has none; empty means DefaultUserAgent.
	UserAgent string
	// MaxLogLength caps debug dumps; zero means DefaultMaxLogLength.
	MaxLogLength uint64
	// Base is the innermost round tripper; nil means http.DefaultTransport.
	Base http.RoundTripper
}

// NewClient builds an *http.Client whose transport injects request IDs and
// User-Agent headers and dumps traffic at debug level.
func NewClient(opts ClientOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	if opts.Base == nil {
		opts.Base = http.DefaultTransport
	}

	return &http.Client{
		Transport: NewRequestIDInjector(
			NewUserAgentInjector(
				NewLogTransport(opts.Base, opts.MaxLogLength),
				utils.NewStaticUserAgentProvider(opts.UserAgent, DefaultUserAgent))),
		Timeout: opts.Timeout,
	}
}

// Fetcher implements fetch.Transport on top of an *http.Client.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher. A nil client means NewClient(ClientOptions{}).
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = NewClient(ClientOptions{})
	}

	return &Fetcher{client: client}
}

// knownOptionKeys lists the option keys the Fetcher understands.
//
//nolint:gochecknoglobals // Immutable lookup table.
var knownOptionKeys = map[string]struct{}{
	fetch.KeyMethod:  {},
	fetch.KeyHeaders: {},
	fetch.KeyBody:    {},
	fetch.KeyTimeout: {},
}

// Fetch implements fetch.Transport.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts fetch.Options) (fetch.Response, error) {
	// Unknown keys pass through merging untouched and are only reported here.
	for key := range opts {
		if _, ok := knownOptionKeys[key]; !ok {
			logger.Debugf(ctx, "Ignoring unsupported option %q for %s", key, rawURL)
		}
	}

	timeout, err := parseTimeout(opts[fetch.KeyTimeout])
	if err != nil {
		return nil, err
	}

	// The deadline must outlive Fetch: it also bounds reading the body.
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	request, err := newRequest(ctx, rawURL, opts)
	if err != nil {
		cancel()

		return nil, err
	}

	response, err := f.client.Do(request)
	if err != nil {
		cancel()

		return nil, err
	}

	// Closing the body, by a decoder or Response.Close, releases the deadline.
	body := &cancelOnClose{ReadCloser: response.Body, cancel: cancel}

	return fetch.NewResponse(response.StatusCode, response.Header, body), nil
}

// newRequest turns an option mapping into an *http.Request.
func newRequest(ctx context.Context, rawURL string, opts fetch.Options) (*http.Request, error) {
	method := strings.ToUpper(opts.Method())
	if method == "" {
		method = http.MethodGet
	}

	headers := opts.Headers()

	body, contentType, err := encodeBody(opts[fetch.KeyBody])
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		request.Header.Set(key, value)
	}

	if contentType != "" && request.Header.Get(contentTypeHeader) == "" {
		request.Header.Set(contentTypeHeader, contentType)
	}

	return request, nil
}

// encodeBody returns the body reader and the content type implied by its Go type.
func encodeBody(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return http.NoBody, "", nil
	case string:
		return strings.NewReader(v), "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case io.Reader:
		return v, "", nil
	case fetch.FormData:
		return encodeMultipart(v)
	case url.Values:
		return strings.NewReader(v.Encode()), urlEncodedContentType, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}

		return bytes.NewReader(data), jsonContentType, nil
	}
}

func encodeMultipart(form fetch.FormData) (io.Reader, string, error) {
	var (
		buf    bytes.Buffer
		writer = multipart.NewWriter(&buf)
	)

	for _, field := range form {
		if err := writer.WriteField(field.Key, field.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %q: %w", field.Key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

func parseTimeout(value any) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("failed to parse timeout option: %w", err)
		}

		return timeout, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrInvalidTimeoutOption, value)
	}
}

// cancelOnClose releases the per-request deadline once the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()

	return c.ReadCloser.Close()
}

package fetch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const (
	contentTypeHeader     = "Content-Type"
	multipartFormType     = "multipart/form-data"
	urlEncodedFormType    = "application/x-www-form-urlencoded"
	defaultBlobMediaType  = "application/octet-stream"
	multipartBoundaryName = "boundary"
)

// StreamResponse is a Response backed by a single-read body stream.
type StreamResponse struct {
	status int
	header http.Header

	mu       sync.Mutex
	body     io.ReadCloser
	consumed bool
}

// NewResponse wraps a status, headers and a body stream into a Response.
// The body is closed after the first decode.
func NewResponse(status int, header http.Header, body io.ReadCloser) *StreamResponse {
	if header == nil {
		header = make(http.Header)
	}

	if body == nil {
		body = http.NoBody
	}

	return &StreamResponse{
		status: status,
		header: header,
		body:   body,
	}
}

// NewBytesResponse is a convenience constructor over an in-memory body.
func NewBytesResponse(status int, header http.Header, body []byte) *StreamResponse {
	return NewResponse(status, header, io.NopCloser(bytes.NewReader(body)))
}

// OK reports whether the status is in the 2xx range.
func (r *StreamResponse) OK() bool {
	return r.status >= http.StatusOK && r.status < http.StatusMultipleChoices
}

// Status returns the numeric HTTP status.
func (r *StreamResponse) Status() int {
	return r.status
}

// Header returns the response headers.
func (r *StreamResponse) Header() http.Header {
	return r.header
}

// Consumed reports whether a decoder already read the body.
func (r *StreamResponse) Consumed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.consumed
}

// Text decodes the body as a string.
func (r *StreamResponse) Text() (string, error) {
	data, err := r.read()
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// JSON decodes the body into a generic value.
func (r *StreamResponse) JSON() (any, error) {
	data, err := r.read()
	if err != nil {
		return nil, err
	}

	var result any
	if err = json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode JSON body: %w", err)
	}

	return result, nil
}

// Blob returns the body together with its media type.
func (r *StreamResponse) Blob() (*Blob, error) {
	data, err := r.read()
	if err != nil {
		return nil, err
	}

	mediaType := r.header.Get(contentTypeHeader)
	if mediaType == "" {
		mediaType = defaultBlobMediaType
	}

	return &Blob{Type: mediaType, Data: data}, nil
}

// FormData decodes a multipart or urlencoded body.
func (r *StreamResponse) FormData() (FormData, error) {
	data, err := r.read()
	if err != nil {
		return nil, err
	}

	mediaType, params, err := mime.ParseMediaType(r.header.Get(contentTypeHeader))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormContent, err)
	}

	switch mediaType {
	case multipartFormType:
		return parseMultipart(data, params[multipartBoundaryName])
	case urlEncodedFormType:
		return parseURLEncoded(string(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormContent, mediaType)
	}
}

// ArrayBuffer returns the body as raw bytes.
func (r *StreamResponse) ArrayBuffer() ([]byte, error) {
	return r.read()
}

// Close discards the body without reading it.
// Later decoders fail with ErrBodyConsumed.
func (r *StreamResponse) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.consumed {
		return nil
	}

	r.consumed = true

	return r.body.Close()
}

func (r *StreamResponse) read() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.consumed {
		return nil, ErrBodyConsumed
	}

	r.consumed = true

	defer r.body.Close() //nolint:errcheck // Error on close is not critical here.

	data, err := io.ReadAll(r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func parseMultipart(data []byte, boundary string) (FormData, error) {
	var (
		reader = multipart.NewReader(bytes.NewReader(data), boundary)
		form   FormData
	)

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read multipart body: %w", err)
		}

		value, err := io.ReadAll(part)
		part.Close() //nolint:errcheck,gosec // Error on close is not critical here.

		if err != nil {
			return nil, fmt.Errorf("failed to read multipart field %q: %w", part.FormName(), err)
		}

		form = append(form, FormField{Key: part.FormName(), Value: string(value)})
	}
}

// parseURLEncoded keeps the original field order, which url.ParseQuery does not.
func parseURLEncoded(body string) (FormData, error) {
	var form FormData

	for pair := range strings.SplitSeq(body, "&") {
		if pair == "" {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("failed to unescape form key %q: %w", rawKey, err)
		}

		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("failed to unescape form value for %q: %w", key, err)
		}

		form = append(form, FormField{Key: key, Value: value})
	}

	return form, nil
}

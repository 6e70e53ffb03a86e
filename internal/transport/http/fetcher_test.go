package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/fetchchain/internal/fetch"
	"github.com/oshokin/fetchchain/internal/version"
)

// capturedRequest is what the test server saw.
type capturedRequest struct {
	method      string
	path        string
	rawQuery    string
	contentType string
	userAgent   string
	requestID   string
	custom      string
	body        string
	form        url.Values
}

func newCaptureServer(t *testing.T, status int, responseBody string) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()

	captured := make(chan capturedRequest, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		record := capturedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			rawQuery:    r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			userAgent:   r.Header.Get("User-Agent"),
			requestID:   r.Header.Get(RequestIDHeader),
			custom:      r.Header.Get("X-Custom"),
		}

		if strings.HasPrefix(record.contentType, "multipart/") {
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				record.form = r.MultipartForm.Value
			}
		} else {
			data, _ := io.ReadAll(r.Body) //nolint:errcheck // Test server.
			record.body = string(data)
		}

		captured <- record

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, responseBody)
	}))

	t.Cleanup(server.Close)

	return server, captured
}

// TestFetcher_Fetch tests translation of option mappings into HTTP requests.
func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   fetch.Options
		status int
		check  func(t *testing.T, got capturedRequest)
	}{
		{
			name:   "missing method defaults to GET",
			opts:   fetch.Options{},
			status: http.StatusOK,
			check: func(t *testing.T, got capturedRequest) {
				t.Helper()

				assert.Equal(t, http.MethodGet, got.method)
				assert.Equal(t, DefaultUserAgent, got.userAgent)
				assert.NotEmpty(t, got.requestID)
			},
		},
		{
			name: "string body keeps explicit content type",
			opts: fetch.Options{
				fetch.KeyMethod:  "post",
				fetch.KeyHeaders: map[string]any{"Content-Type": "application/json", "X-Custom": 7},
				fetch.KeyBody:    `{"a":1}`,
			},
			status: http.StatusCreated,
			check: func(t *testing.T, got capturedRequest) {
				t.Helper()

				assert.Equal(t, http.MethodPost, got.method)
				assert.Equal(t, "application/json", got.contentType)
				assert.Equal(t, "7", got.custom)
				assert.JSONEq(t, `{"a":1}`, got.body)
			},
		},
		{
			name: "structured body is encoded as JSON",
			opts: fetch.Options{
				fetch.KeyMethod: http.MethodPut,
				fetch.KeyBody:   map[string]any{"b": []int{1, 2}},
			},
			status: http.StatusOK,
			check: func(t *testing.T, got capturedRequest) {
				t.Helper()

				assert.Equal(t, "application/json", got.contentType)

				var decoded map[string]any
				require.NoError(t, json.Unmarshal([]byte(got.body), &decoded))
				assert.Equal(t, []any{float64(1), float64(2)}, decoded["b"])
			},
		},
		{
			name: "form data is sent as multipart",
			opts: fetch.Options{
				fetch.KeyMethod: http.MethodPost,
				fetch.KeyBody: fetch.FormData{}.
					Append("name", "n").
					Append("tags[]", "x").
					Append("tags[]", "y"),
			},
			status: http.StatusOK,
			check: func(t *testing.T, got capturedRequest) {
				t.Helper()

				assert.Contains(t, got.contentType, "multipart/form-data")
				assert.Equal(t, []string{"n"}, got.form["name"])
				assert.Equal(t, []string{"x", "y"}, got.form["tags[]"])
			},
		},
		{
			name: "url values are sent urlencoded",
			opts: fetch.Options{
				fetch.KeyMethod: http.MethodPatch,
				fetch.KeyBody:   url.Values{"a": []string{"1"}},
			},
			status: http.StatusOK,
			check: func(t *testing.T, got capturedRequest) {
				t.Helper()

				assert.Equal(t, "application/x-www-form-urlencoded", got.contentType)
				assert.Equal(t, "a=1", got.body)
			},
		},
		{
			name: "unknown keys are ignored",
			opts: fetch.Options{
				"credentials": "include",
				"mode":        "cors",
			},
			status: http.StatusNotFound,
			check: func(t *testing.T, got capturedRequest) {
				t.Helper()

				assert.Equal(t, http.MethodGet, got.method)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, captured := newCaptureServer(t, tt.status, "reply")
			fetcher := NewFetcher(nil)

			resp, err := fetcher.Fetch(context.Background(), server.URL+"/path?x=1", tt.opts)
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.Status())
			assert.Equal(t, tt.status >= 200 && tt.status < 300, resp.OK())

			text, err := resp.Text()
			require.NoError(t, err)
			assert.Equal(t, "reply", text)

			got := <-captured
			assert.Equal(t, "/path", got.path)
			assert.Equal(t, "x=1", got.rawQuery)
			tt.check(t, got)
		})
	}
}

// TestFetcher_Timeout tests the per-request timeout option.
func TestFetcher_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))

	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	fetcher := NewFetcher(nil)

	_, err := fetcher.Fetch(context.Background(), server.URL, fetch.Options{fetch.KeyTimeout: "50ms"})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = fetcher.Fetch(context.Background(), server.URL, fetch.Options{fetch.KeyTimeout: 10 * time.Millisecond})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestFetcher_InvalidOptions tests option validation errors.
func TestFetcher_InvalidOptions(t *testing.T) {
	t.Parallel()

	fetcher := NewFetcher(nil)

	_, err := fetcher.Fetch(context.Background(), "http://example.test", fetch.Options{fetch.KeyTimeout: 5})
	require.ErrorIs(t, err, ErrInvalidTimeoutOption)

	_, err = fetcher.Fetch(context.Background(), "http://example.test", fetch.Options{fetch.KeyTimeout: "soon"})
	require.Error(t, err)

	_, err = fetcher.Fetch(context.Background(), "http://example.test", fetch.Options{fetch.KeyMethod: "BAD METHOD"})
	require.Error(t, err)

	_, err = fetcher.Fetch(context.Background(), "http://example.test",
		fetch.Options{fetch.KeyMethod: http.MethodPost, fetch.KeyBody: make(chan int)})
	require.Error(t, err)
}

// TestNewClient tests default client settings.
func TestNewClient(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientOptions{})
	assert.Equal(t, DefaultTimeout, client.Timeout)
	assert.IsType(t, &RequestIDInjector{}, client.Transport)

	client = NewClient(ClientOptions{Timeout: time.Second})
	assert.Equal(t, time.Second, client.Timeout)
}

// TestDefaultUserAgent tests that the fallback User-Agent names the build version.
func TestDefaultUserAgent(t *testing.T) {
	t.Parallel()

	assert.True(t, strings.HasPrefix(DefaultUserAgent, "fetchchain/"+version.Short()+" "), DefaultUserAgent)
}

package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRequestIDInjector_GeneratesID tests that a missing request ID is generated.
func TestRequestIDInjector_GeneratesID(t *testing.T) {
	t.Parallel()

	var seen []*http.Request

	injector := NewRequestIDInjector(recordingTransport(&seen))

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.test", nil)
	require.NoError(t, err)

	resp, err := injector.RoundTrip(req)
	require.NoError(t, err)

	defer resp.Body.Close() //nolint:errcheck // Test cleanup, error is not critical.

	require.Len(t, seen, 1)

	_, err = uuid.Parse(seen[0].Header.Get(RequestIDHeader))
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get(RequestIDHeader))
}

// TestRequestIDInjector_KeepsExistingID tests that a caller-supplied request ID is forwarded unchanged.
func TestRequestIDInjector_KeepsExistingID(t *testing.T) {
	t.Parallel()

	var seen []*http.Request

	injector := &RequestIDInjector{
		next: recordingTransport(&seen),
		generate: func() string {
			t.Fatal("generate must not be called")

			return ""
		},
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.test", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "fixed-id")

	resp, err := injector.RoundTrip(req)
	require.NoError(t, err)

	defer resp.Body.Close() //nolint:errcheck // Test cleanup, error is not critical.

	require.Len(t, seen, 1)
	assert.Equal(t, "fixed-id", seen[0].Header.Get(RequestIDHeader))
}

// TestRequestIDInjector_NilRequest tests that a nil request is rejected.
func TestRequestIDInjector_NilRequest(t *testing.T) {
	t.Parallel()

	injector := NewRequestIDInjector(http.DefaultTransport)

	resp, err := injector.RoundTrip(nil) //nolint:bodyclose // Body is empty on error.
	require.ErrorIs(t, err, ErrNilRequest)
	assert.Nil(t, resp)
}

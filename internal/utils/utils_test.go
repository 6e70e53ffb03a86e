package utils

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseKeyValue tests the ParseKeyValue function.
func TestParseKeyValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		sep         string
		expected    KeyValue
		expectedErr error
	}{
		{
			name:     "header with colon",
			input:    "Accept: application/json",
			sep:      ":",
			expected: KeyValue{Key: "Accept", Value: "application/json"},
		},
		{
			name:     "value keeps later separators",
			input:    "q=a=b",
			sep:      "=",
			expected: KeyValue{Key: "q", Value: "a=b"},
		},
		{
			name:     "empty value",
			input:    "flag=",
			sep:      "=",
			expected: KeyValue{Key: "flag", Value: ""},
		},
		{
			name:        "missing separator",
			input:       "novalue",
			sep:         "=",
			expectedErr: ErrMissingSeparator,
		},
		{
			name:        "empty key",
			input:       " =value",
			sep:         "=",
			expectedErr: ErrEmptyKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := ParseKeyValue(tt.input, tt.sep)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestParseKeyValues tests the ParseKeyValues function.
func TestParseKeyValues(t *testing.T) {
	t.Parallel()

	pairs, err := ParseKeyValues([]string{"b=2", "a=1", "b=3"}, "=")
	require.NoError(t, err)
	assert.Equal(t, []KeyValue{
		{Key: "b", Value: "2"},
		{Key: "a", Value: "1"},
		{Key: "b", Value: "3"},
	}, pairs)

	_, err = ParseKeyValues([]string{"a=1", "broken"}, "=")
	require.ErrorIs(t, err, ErrMissingSeparator)
}

// TestGroupKeyValues tests the GroupKeyValues function.
func TestGroupKeyValues(t *testing.T) {
	t.Parallel()

	order, values := GroupKeyValues([]KeyValue{
		{Key: "tags", Value: "x"},
		{Key: "name", Value: "n"},
		{Key: "tags", Value: "y"},
	})

	assert.Equal(t, []string{"tags", "name"}, order)
	assert.Equal(t, []string{"x", "y"}, values["tags"])
	assert.Equal(t, []string{"n"}, values["name"])
}

// TestSafeUint64ToInt64 tests the SafeUint64ToInt64 function.
func TestSafeUint64ToInt64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), SafeUint64ToInt64(0))
	assert.Equal(t, int64(12345), SafeUint64ToInt64(12345))
	assert.Equal(t, int64(math.MaxInt64), SafeUint64ToInt64(math.MaxInt64))
	assert.Equal(t, int64(math.MaxInt64), SafeUint64ToInt64(math.MaxUint64))
}

// TestSanitizeFilename tests the SanitizeFilename function.
func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "normal filename",
			input:    "report.json",
			expected: "report.json",
		},
		{
			name:     "invalid characters",
			input:    "a<b>c:d\"e|f?g*h",
			expected: "a_b_c_d_e_f_g_h",
		},
		{
			name:     "trailing dots",
			input:    "file...",
			expected: "file",
		},
		{
			name:     "only dots",
			input:    "...",
			expected: "_",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

// TestRemoteFilename tests the RemoteFilename function.
func TestRemoteFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "last path segment",
			input:    "https://example.com/files/archive.tar.gz?x=1",
			expected: "archive.tar.gz",
		},
		{
			name:     "no path",
			input:    "https://example.com",
			expected: "index.html",
		},
		{
			name:     "trailing slash",
			input:    "https://example.com/",
			expected: "index.html",
		},
		{
			name:     "unparsable url",
			input:    "http://[::1",
			expected: "index.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, RemoteFilename(tt.input))
		})
	}
}

// TestIsFileExist tests the IsFileExist function.
func TestIsFileExist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filePath := filepath.Join(dir, "test_file")

	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o600))

	exists, err := IsFileExist(filePath)
	require.NoError(t, err)
	assert.True(t, exists)

	// Directories do not count as files.
	exists, err = IsFileExist(dir)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = IsFileExist(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestReadUniqueLinesFromFile tests the ReadUniqueLinesFromFile function.
func TestReadUniqueLinesFromFile(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "urls.txt")
	content := "https://a\n# comment\n\nhttps://b\nhttps://a\n  https://c  \n"

	require.NoError(t, os.WriteFile(filePath, []byte(content), 0o600))

	lines, err := ReadUniqueLinesFromFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a", "https://b", "https://c"}, lines)

	_, err = ReadUniqueLinesFromFile("/non/existing/file")
	require.Error(t, err)
}

// TestIsTextContentType tests the IsTextContentType function.
func TestIsTextContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		expected    bool
	}{
		{
			name:        "text/plain",
			contentType: "text/plain",
			expected:    true,
		},
		{
			name:        "text/html with charset",
			contentType: "text/html; charset=utf-8",
			expected:    true,
		},
		{
			name:        "application/json",
			contentType: "application/json",
			expected:    true,
		},
		{
			name:        "application/problem+json",
			contentType: "application/problem+json",
			expected:    true,
		},
		{
			name:        "application/samlmetadata+xml",
			contentType: "application/samlmetadata+xml",
			expected:    true,
		},
		{
			name:        "urlencoded form",
			contentType: "application/x-www-form-urlencoded",
			expected:    true,
		},
		{
			name:        "multipart form",
			contentType: "multipart/form-data; boundary=abc",
			expected:    false,
		},
		{
			name:        "image/jpeg",
			contentType: "image/jpeg",
			expected:    false,
		},
		{
			name:        "text with invalid charset",
			contentType: "text/plain; charset=invalid",
			expected:    false,
		},
		{
			name:        "empty",
			contentType: "",
			expected:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, IsTextContentType(tt.contentType))
		})
	}
}

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// defaultRemoteFilename is used when a URL has no usable last path segment.
const defaultRemoteFilename = "index.html"

// Static error definitions for better error handling.
var (
	// ErrMissingSeparator indicates that a key/value pair has no separator.
	ErrMissingSeparator = errors.New("missing separator")
	// ErrEmptyKey indicates that a key/value pair has an empty key.
	ErrEmptyKey = errors.New("empty key")
)

var (
	// invalidCharsPattern includes ASCII control characters (0-31) and Windows-restricted characters: < > : " / \ | ? *.
	//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
	invalidCharsPattern = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

	// textContentTypePatterns match content types considered to be text-based.
	//nolint:gochecknoglobals // These are immutable, pre-compiled regex patterns and used as constants.
	textContentTypePatterns = []*regexp.Regexp{
		regexp.MustCompile("^text/.+"),
		regexp.MustCompile(`^application/(.+\+)?json$`),
		regexp.MustCompile(`^application/(.+\+)?xml$`),
		regexp.MustCompile("^application/x-www-form-urlencoded$"),
	}
)

// KeyValue is one parsed "key<sep>value" pair.
type KeyValue struct {
	Key   string
	Value string
}

// ParseKeyValue splits text on the first occurrence of sep.
// Surrounding whitespace is trimmed from the key and the value.
func ParseKeyValue(text, sep string) (KeyValue, error) {
	key, value, found := strings.Cut(text, sep)
	if !found {
		return KeyValue{}, fmt.Errorf("%w %q in '%s'", ErrMissingSeparator, sep, text)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return KeyValue{}, fmt.Errorf("%w in '%s'", ErrEmptyKey, text)
	}

	return KeyValue{Key: key, Value: strings.TrimSpace(value)}, nil
}

// ParseKeyValues parses every entry with ParseKeyValue, keeping the input order.
func ParseKeyValues(entries []string, sep string) ([]KeyValue, error) {
	result := make([]KeyValue, 0, len(entries))

	for _, entry := range entries {
		kv, err := ParseKeyValue(entry, sep)
		if err != nil {
			return nil, err
		}

		result = append(result, kv)
	}

	return result, nil
}

// GroupKeyValues folds pairs into an ordered list of keys with their values.
// A key seen more than once collects every value in order.
func GroupKeyValues(pairs []KeyValue) ([]string, map[string][]string) {
	var (
		order  []string
		values = make(map[string][]string, len(pairs))
	)

	for _, kv := range pairs {
		if _, seen := values[kv.Key]; !seen {
			order = append(order, kv.Key)
		}

		values[kv.Key] = append(values[kv.Key], kv.Value)
	}

	return order, values
}

// SafeUint64ToInt64 converts a uint64 value to an int64 safely,
// ensuring that the value does not exceed the maximum limit of int64.
func SafeUint64ToInt64(val uint64) int64 {
	if val > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(val)
}

// SanitizeFilename replaces characters that are invalid on Windows or Unix-like
// systems and makes sure the result is not empty.
func SanitizeFilename(name string) string {
	if name == "" {
		return ""
	}

	result := invalidCharsPattern.ReplaceAllString(name, "_")
	result = strings.TrimRight(result, ".")

	if result == "" {
		result = "_"
	}

	return result
}

// RemoteFilename derives a local file name from the last path segment of rawURL.
func RemoteFilename(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return defaultRemoteFilename
	}

	base := path.Base(parsed.Path)
	if base == "." || base == "/" || base == "" {
		return defaultRemoteFilename
	}

	return SanitizeFilename(base)
}

// IsFileExist checks if a file exists at the specified path.
// It returns true if the file exists and is not a directory, false if the file does not exist,
// and an error if there was an issue accessing the file.
func IsFileExist(path string) (bool, error) {
	stat, err := os.Stat(path)
	if err == nil {
		return !stat.IsDir(), nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// ReadUniqueLinesFromFile reads a text file and returns a slice of unique non-empty lines.
// Lines starting with '#' are treated as comments.
func ReadUniqueLinesFromFile(path string) ([]string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer file.Close() //nolint:errcheck // Error on close is not critical here.

	var (
		uniqueLines = make(map[string]struct{})
		lines       []string
		scanner     = bufio.NewScanner(file)
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if _, exists := uniqueLines[line]; !exists {
			uniqueLines[line] = struct{}{}

			lines = append(lines, line)
		}
	}

	if err = scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// IsTextContentType checks if the given content type represents a text-based format:
// text/*, JSON and XML (including +json and +xml suffixes) or urlencoded forms.
// The charset, if present, must be utf-8 or us-ascii.
func IsTextContentType(contentType string) bool {
	parsedType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	for _, pattern := range textContentTypePatterns {
		if !pattern.MatchString(parsedType) {
			continue
		}

		charset := strings.ToLower(params["charset"])

		return charset == "" || charset == "utf-8" || charset == "us-ascii"
	}

	return false
}

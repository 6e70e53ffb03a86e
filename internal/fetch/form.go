package fetch

import (
	"fmt"
	"strconv"
)

// FormField is a single key/value entry of a FormData body.
type FormField struct {
	Key   string
	Value string
}

// FormData is an ordered multipart form body.
// Keys may repeat; order of insertion is preserved on the wire.
type FormData []FormField

// Append returns f with a new entry added at the end.
func (f FormData) Append(key string, value any) FormData {
	return append(f, FormField{Key: key, Value: stringify(value)})
}

// Get returns the first value stored under key.
func (f FormData) Get(key string) (string, bool) {
	for _, field := range f {
		if field.Key == key {
			return field.Value, true
		}
	}

	return "", false
}

// GetAll returns every value stored under key, in order.
func (f FormData) GetAll(key string) []string {
	var values []string

	for _, field := range f {
		if field.Key == key {
			values = append(values, field.Value)
		}
	}

	return values
}

// Blob is a typed chunk of binary data.
type Blob struct {
	// Type is the media type reported by the response.
	Type string
	// Data holds the raw bytes.
	Data []byte
}

// Size returns the number of bytes in the blob.
func (b *Blob) Size() int {
	return len(b.Data)
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Stringify formats a scalar option value the way it is put on the wire.
func Stringify(value any) string {
	return stringify(value)
}

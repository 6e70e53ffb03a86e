package chain

import (
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/google/go-querystring/query"

	"github.com/oshokin/fetchchain/internal/fetch"
)

// Param is an ordered key/value pair used for query strings and form bodies.
// A slice or array Value expands into one entry per element.
type Param struct {
	Key   string
	Value any
}

// P is shorthand for Param{Key: key, Value: value}.
func P(key string, value any) Param {
	return Param{Key: key, Value: value}
}

// ParamsFromMap turns a map into params ordered by key.
func ParamsFromMap(values map[string]any) []Param {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	params := make([]Param, 0, len(keys))
	for _, key := range keys {
		params = append(params, Param{Key: key, Value: values[key]})
	}

	return params
}

// ParamsFromStruct encodes a struct with `url` tags into params ordered by key.
func ParamsFromStruct(v any) ([]Param, error) {
	values, err := query.Values(v)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	params := make([]Param, 0, len(keys))
	for _, key := range keys {
		params = append(params, Param{Key: key, Value: values[key]})
	}

	return params, nil
}

// appendQueryParams builds a fresh query string from params and puts it
// after the first '?' of rawURL. Whatever query rawURL had is dropped.
func appendQueryParams(rawURL string, params []Param) string {
	var sb strings.Builder

	for _, param := range params {
		for _, value := range expand(param.Value) {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}

			sb.WriteString(url.QueryEscape(param.Key))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(fetch.Stringify(value)))
		}
	}

	if index := strings.IndexByte(rawURL, '?'); index >= 0 {
		return rawURL[:index] + "?" + sb.String()
	}

	return rawURL + "?" + sb.String()
}

// buildFormData converts params into a form body.
// Sequence values produce one entry per element under "key[]".
func buildFormData(params []Param) fetch.FormData {
	form := make(fetch.FormData, 0, len(params))

	for _, param := range params {
		if !isSequence(param.Value) {
			form = form.Append(param.Key, param.Value)

			continue
		}

		for _, value := range expand(param.Value) {
			form = form.Append(param.Key+"[]", value)
		}
	}

	return form
}

func isSequence(value any) bool {
	if value == nil {
		return false
	}

	if _, isBytes := value.([]byte); isBytes {
		return false
	}

	kind := reflect.TypeOf(value).Kind()

	return kind == reflect.Slice || kind == reflect.Array
}

func expand(value any) []any {
	if !isSequence(value) {
		return []any{value}
	}

	rv := reflect.ValueOf(value)

	result := make([]any, rv.Len())
	for i := range rv.Len() {
		result[i] = rv.Index(i).Interface()
	}

	return result
}

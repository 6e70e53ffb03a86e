package fetch

import (
	"maps"
	"net/http"
	"slices"
)

const (
	// KeyMethod is the options key holding the HTTP method.
	KeyMethod = "method"
	// KeyHeaders is the options key holding the header mapping.
	KeyHeaders = "headers"
	// KeyBody is the options key holding the request body.
	KeyBody = "body"
	// KeyTimeout is the options key holding a per-request deadline.
	KeyTimeout = "timeout"
)

// Options is the loosely typed option mapping handed to a Transport.
// It mirrors the fetch init object: method, headers, body and any
// transport-specific keys.
type Options map[string]any

// Clone returns a deep copy of the mapping parts of o.
// Non-mapping values (slices, readers, form data) are shared.
func (o Options) Clone() Options {
	if o == nil {
		return Options{}
	}

	result := make(Options, len(o))
	for key, value := range o {
		result[key] = cloneValue(value)
	}

	return result
}

// Method returns the method stored in the options or an empty string.
func (o Options) Method() string {
	method, _ := o[KeyMethod].(string)

	return method
}

// Headers returns the header mapping stored in the options as a flat
// string map with canonical names. Non-string values are formatted with fmt.
func (o Options) Headers() map[string]string {
	mapping, ok := asMapping(o[KeyHeaders])
	if !ok {
		return map[string]string{}
	}

	canonical := CanonicalHeaders(mapping)

	result := make(map[string]string, len(canonical))
	for key, value := range canonical {
		result[key] = stringify(value)
	}

	return result
}

// CanonicalHeaders returns a copy of headers keyed by http.CanonicalHeaderKey.
// Names that differ only in case fold into one entry; within a single mapping
// the name sorting last wins, so the outcome never depends on map order.
func CanonicalHeaders(headers map[string]any) map[string]any {
	result := make(map[string]any, len(headers))

	for _, key := range slices.Sorted(maps.Keys(headers)) {
		result[http.CanonicalHeaderKey(key)] = headers[key]
	}

	return result
}

// Merge deep-merges two option mappings into a new one.
// Keys holding mappings on both sides are merged recursively;
// for everything else (slices included) the value from b wins.
// Header names are canonicalized first, so "accept" in a and "Accept"
// in b are the same header and b's value wins.
// Neither a nor b is modified.
func Merge(a, b Options) Options {
	return Options(mergeMappings(withCanonicalHeaders(a), withCanonicalHeaders(b)))
}

// MergeAll folds Merge over the given mappings from left to right.
func MergeAll(all ...Options) Options {
	result := Options{}
	for _, o := range all {
		result = Merge(result, o)
	}

	return result
}

// withCanonicalHeaders returns o with its headers mapping, if any, canonicalized.
// o itself is returned when there is nothing to rewrite.
func withCanonicalHeaders(o Options) map[string]any {
	mapping, ok := asMapping(o[KeyHeaders])
	if !ok {
		return o
	}

	result := make(map[string]any, len(o))
	maps.Copy(result, o)
	result[KeyHeaders] = CanonicalHeaders(mapping)

	return result
}

func mergeMappings(a, b map[string]any) map[string]any {
	result := make(map[string]any, len(a)+len(b))

	for key, value := range a {
		result[key] = cloneValue(value)
	}

	for key, value := range b {
		left, leftIsMapping := asMapping(result[key])
		right, rightIsMapping := asMapping(value)

		if leftIsMapping && rightIsMapping {
			result[key] = mergeMappings(left, right)

			continue
		}

		result[key] = cloneValue(value)
	}

	return result
}

func cloneValue(value any) any {
	mapping, ok := asMapping(value)
	if !ok {
		return value
	}

	result := make(map[string]any, len(mapping))
	for key, nested := range mapping {
		result[key] = cloneValue(nested)
	}

	return result
}

// asMapping reports whether value is one of the mapping kinds the merge
// rule recurses into, and returns it as map[string]any.
func asMapping(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case Options:
		return map[string]any(v), true
	case map[string]any:
		return v, true
	case map[string]string:
		result := make(map[string]any, len(v))
		for key, s := range v {
			result[key] = s
		}

		return result, true
	default:
		return nil, false
	}
}

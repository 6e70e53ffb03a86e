package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/fetchchain/internal/chain"
	"github.com/oshokin/fetchchain/internal/fetch"
	"github.com/oshokin/fetchchain/internal/utils"
)

// Shape is the form a response body is decoded into.
type Shape string

// Supported body shapes.
const (
	ShapeText  Shape = "text"
	ShapeJSON  Shape = "json"
	ShapeBlob  Shape = "blob"
	ShapeForm  Shape = "form"
	ShapeBytes Shape = "bytes"
)

// Static error definitions for better error handling.
var (
	// ErrUnknownShape indicates that --as names an unsupported body shape.
	ErrUnknownShape = errors.New("unknown body shape")
	// ErrUnsupportedMethod indicates that the HTTP method has no verb.
	ErrUnsupportedMethod = errors.New("unsupported method")
	// ErrConflictingBodies indicates that more than one body flag was given.
	ErrConflictingBodies = errors.New("only one of --json, --yaml and --form may be used")
	// ErrInvalidJSONBody indicates that --json is not valid JSON.
	ErrInvalidJSONBody = errors.New("invalid JSON body")
	// ErrOutputWithManyURLs indicates that --output was used with several URLs.
	ErrOutputWithManyURLs = errors.New("--output accepts a single URL, use --remote-name for several")
	// ErrNoURLs indicates that there is nothing to fetch.
	ErrNoURLs = errors.New("no URLs to fetch")
)

// RequestFlags holds the per-invocation flags of a verb command.
type RequestFlags struct {
	// Headers are "Name: value" pairs.
	Headers []string
	// Query are "key=value" pairs; repeated keys become arrays.
	Query []string
	// Form are "key=value" pairs sent as a multipart body.
	Form []string
	// Accept sets the Accept header.
	Accept string
	// JSON is a literal JSON body.
	JSON string
	// YAMLFile is a YAML document sent as a JSON body.
	YAMLFile string
	// As is the body shape: text, json, blob, form or bytes.
	As string
	// Select is a gjson path applied to the body.
	Select string
	// Output is the file the body is written to.
	Output string
	// RemoteName writes each body to a file named after the URL.
	RemoteName bool
	// InputFile lists additional URLs, one per line.
	InputFile string
	// Timeout bounds each request; zero keeps the client timeout.
	Timeout time.Duration
	// Fail makes non-2xx responses count as failures.
	Fail bool
}

// requestPlan is RequestFlags parsed and validated once for all URLs.
type requestPlan struct {
	method     string
	headers    []utils.KeyValue
	query      []chain.Param
	form       []chain.Param
	jsonBody   any
	hasJSON    bool
	accept     string
	shape      Shape
	selectPath string
	local      fetch.Options
	output     string
	remoteName bool
	fail       bool
}

// ParseShape converts text into a Shape. An empty string yields ShapeText.
func ParseShape(text string) (Shape, error) {
	switch shape := Shape(strings.ToLower(strings.TrimSpace(text))); shape {
	case "":
		return ShapeText, nil
	case ShapeText, ShapeJSON, ShapeBlob, ShapeForm, ShapeBytes:
		return shape, nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrUnknownShape, text)
	}
}

//nolint:cyclop,funlen // Flag validation is a flat sequence of checks.
func newRequestPlan(method string, flags RequestFlags) (*requestPlan, error) {
	method = strings.ToUpper(method)

	switch method {
	case http.MethodGet, http.MethodDelete, http.MethodPut, http.MethodPost, http.MethodPatch:
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedMethod, method)
	}

	shape, err := ParseShape(flags.As)
	if err != nil {
		return nil, err
	}

	bodies := 0

	for _, set := range []bool{flags.JSON != "", flags.YAMLFile != "", len(flags.Form) > 0} {
		if set {
			bodies++
		}
	}

	if bodies > 1 {
		return nil, ErrConflictingBodies
	}

	headers, err := utils.ParseKeyValues(flags.Headers, ":")
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	query, err := utils.ParseKeyValues(flags.Query, "=")
	if err != nil {
		return nil, fmt.Errorf("failed to parse query parameter: %w", err)
	}

	form, err := utils.ParseKeyValues(flags.Form, "=")
	if err != nil {
		return nil, fmt.Errorf("failed to parse form field: %w", err)
	}

	plan := &requestPlan{
		method:     method,
		headers:    headers,
		query:      paramsFromKeyValues(query),
		accept:     strings.TrimSpace(flags.Accept),
		shape:      shape,
		selectPath: toGJSONPath(flags.Select),
		local:      fetch.Options{},
		output:     flags.Output,
		remoteName: flags.RemoteName,
		fail:       flags.Fail,
	}

	if len(form) > 0 {
		plan.form = paramsFromKeyValues(form)
	}

	switch {
	case flags.JSON != "":
		if err = json.Unmarshal([]byte(flags.JSON), &plan.jsonBody); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJSONBody, err)
		}

		plan.hasJSON = true
	case flags.YAMLFile != "":
		if plan.jsonBody, err = readYAMLBody(flags.YAMLFile); err != nil {
			return nil, err
		}

		plan.hasJSON = true
	}

	if flags.Timeout > 0 {
		plan.local[fetch.KeyTimeout] = flags.Timeout
	}

	return plan, nil
}

// readYAMLBody decodes a YAML document into values that encode as JSON.
func readYAMLBody(path string) (any, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML body: %w", err)
	}

	var body any
	if err = yaml.Unmarshal(content, &body); err != nil {
		return nil, fmt.Errorf("failed to parse YAML body: %w", err)
	}

	return body, nil
}

// paramsFromKeyValues keeps the first-seen key order; repeated keys become string slices.
func paramsFromKeyValues(pairs []utils.KeyValue) []chain.Param {
	order, values := utils.GroupKeyValues(pairs)

	params := make([]chain.Param, 0, len(order))
	for _, key := range order {
		if len(values[key]) == 1 {
			params = append(params, chain.P(key, values[key][0]))

			continue
		}

		params = append(params, chain.P(key, values[key]))
	}

	return params
}

// toGJSONPath accepts both gjson paths and simple JSONPath expressions:
// "$.users[0].name" becomes "users.0.name".
func toGJSONPath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")

	replacer := strings.NewReplacer("[", ".", "]", "")

	return replacer.Replace(path)
}

// buildChain assembles the request chain for one URL.
// The body is applied before headers so that JSON does not drop user headers.
func (a *App) buildChain(rawURL string, plan *requestPlan) *chain.Builder {
	b := chain.New(a.resolveURL(rawURL),
		chain.WithSettings(a.settings),
		chain.WithTransport(a.transport))

	if len(plan.query) > 0 {
		b = b.Query(plan.query...)
	}

	switch {
	case plan.hasJSON:
		b = b.JSON(plan.jsonBody)
	case plan.form != nil:
		b = b.FormData(plan.form...)
	}

	for _, header := range plan.headers {
		b = b.Header(header.Key, header.Value)
	}

	if plan.accept != "" {
		b = b.Accept(plan.accept)
	}

	return b
}

// resolveURL prefixes relative URLs with the configured base URL.
func (a *App) resolveURL(rawURL string) string {
	if a.cfg.BaseURL == "" || strings.Contains(rawURL, "://") {
		return rawURL
	}

	return strings.TrimRight(a.cfg.BaseURL, "/") + "/" + strings.TrimLeft(rawURL, "/")
}

// send dispatches b with the verb matching plan.method.
func send(ctx context.Context, b *chain.Builder, plan *requestPlan) *chain.Result {
	switch plan.method {
	case http.MethodDelete:
		return b.Delete(ctx, plan.local)
	case http.MethodPut:
		return b.Put(ctx, plan.local)
	case http.MethodPost:
		return b.Post(ctx, plan.local)
	case http.MethodPatch:
		return b.Patch(ctx, plan.local)
	default:
		return b.Get(ctx, plan.local)
	}
}

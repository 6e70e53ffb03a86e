package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/oshokin/fetchchain/internal/fetch"
	http_transport "github.com/oshokin/fetchchain/internal/transport/http"
)

const (
	contentTypeHeader = "Content-Type"
	acceptHeader      = "Accept"
	jsonContentType   = "application/json"
)

// Builder is an immutable request description: a URL plus an option mapping.
// Every configuration method returns a new Builder and leaves the receiver intact.
// The only exceptions are Defaults, MixDefaults and ErrorType, which change the
// shared Settings and return the receiver.
type Builder struct {
	url       string
	options   fetch.Options
	settings  *Settings
	transport fetch.Transport
	// err holds a configuration failure reported when the chain is dispatched.
	err error
}

// Option configures a Builder created by New.
type Option func(*Builder)

//nolint:gochecknoglobals // One shared net/http transport for builders created without WithTransport.
var defaultTransport = sync.OnceValue(func() fetch.Transport {
	return http_transport.NewFetcher(nil)
})

// WithOptions sets the initial option mapping.
func WithOptions(opts fetch.Options) Option {
	return func(b *Builder) {
		b.options = opts.Clone()
	}
}

// WithSettings makes the builder read defaults and error mode from s instead of Global().
func WithSettings(s *Settings) Option {
	return func(b *Builder) {
		if s != nil {
			b.settings = s
		}
	}
}

// WithTransport sets the transport used on dispatch.
func WithTransport(t fetch.Transport) Option {
	return func(b *Builder) {
		if t != nil {
			b.transport = t
		}
	}
}

// New creates a Builder for url.
func New(url string, opts ...Option) *Builder {
	b := &Builder{
		url:      url,
		options:  fetch.Options{},
		settings: Global(),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.transport == nil {
		b.transport = defaultTransport()
	}

	return b
}

func (b *Builder) with(url string, options fetch.Options) *Builder {
	return &Builder{
		url:       url,
		options:   options,
		settings:  b.settings,
		transport: b.transport,
		err:       b.err,
	}
}

func (b *Builder) withErr(err error) *Builder {
	next := b.with(b.url, b.options)
	if next.err == nil {
		next.err = err
	}

	return next
}

// GetURL returns the current URL.
func (b *Builder) GetURL() string {
	return b.url
}

// GetOptions returns a copy of the current option mapping.
func (b *Builder) GetOptions() fetch.Options {
	return b.options.Clone()
}

// GetSettings returns the Settings the builder reads on dispatch.
func (b *Builder) GetSettings() *Settings {
	return b.settings
}

// Err returns the first configuration error recorded on the chain, if any.
func (b *Builder) Err() error {
	return b.err
}

// URL returns a Builder for another URL with the same options.
func (b *Builder) URL(url string) *Builder {
	return b.with(url, b.options)
}

// Options returns a Builder with the same URL and opts as its whole option mapping.
// Nothing from the previous mapping is kept.
func (b *Builder) Options(opts fetch.Options) *Builder {
	return b.with(b.url, opts.Clone())
}

// Query replaces the query string of the URL with one built from params.
//
//	chain.New("http://example.com").Query(chain.P("a", 1), chain.P("b", []int{2, 3}))
//	// http://example.com?a=1&b=2&b=3
func (b *Builder) Query(params ...Param) *Builder {
	return b.with(appendQueryParams(b.url, params), b.options)
}

// QueryMap is Query with params taken from a map in key order.
func (b *Builder) QueryMap(values map[string]any) *Builder {
	return b.Query(ParamsFromMap(values)...)
}

// QueryStruct is Query with params encoded from a struct with `url` tags.
func (b *Builder) QueryStruct(v any) *Builder {
	params, err := ParamsFromStruct(v)
	if err != nil {
		return b.withErr(fmt.Errorf("failed to encode query struct: %w", err))
	}

	return b.Query(params...)
}

// Header deep-merges a single header into the options.
func (b *Builder) Header(key, value string) *Builder {
	patch := fetch.Options{
		fetch.KeyHeaders: map[string]any{key: value},
	}

	return b.with(b.url, fetch.Merge(b.options, patch))
}

// Accept sets the Accept header.
func (b *Builder) Accept(value string) *Builder {
	return b.Header(acceptHeader, value)
}

// JSON serialises v as the body and sets the JSON content type.
// The headers mapping is replaced, not merged: headers set earlier are dropped.
func (b *Builder) JSON(v any) *Builder {
	data, err := json.Marshal(v)
	if err != nil {
		return b.withErr(fmt.Errorf("failed to encode JSON body: %w", err))
	}

	options := shallowCopy(b.options)
	options[fetch.KeyHeaders] = map[string]any{contentTypeHeader: jsonContentType}
	options[fetch.KeyBody] = string(data)

	return b.with(b.url, options)
}

// FormData sets a multipart form body built from params.
// Sequence values are sent once per element under "key[]".
// Headers are left alone; the transport sets the multipart boundary.
func (b *Builder) FormData(params ...Param) *Builder {
	options := shallowCopy(b.options)
	options[fetch.KeyBody] = buildFormData(params)

	return b.with(b.url, options)
}

// FormDataMap is FormData with params taken from a map in key order.
func (b *Builder) FormDataMap(values map[string]any) *Builder {
	return b.FormData(ParamsFromMap(values)...)
}

// Defaults replaces the shared default options and returns the receiver.
func (b *Builder) Defaults(opts fetch.Options) *Builder {
	b.settings.SetDefaults(opts)

	return b
}

// MixDefaults deep-merges opts into the shared default options and returns the receiver.
func (b *Builder) MixDefaults(opts fetch.Options) *Builder {
	b.settings.MixDefaults(opts)

	return b
}

// ErrorType sets the shared error decoding mode and returns the receiver.
// In JSON mode a non-JSON error body fails with ErrDecodeErrorBody wrapping a
// DispatchError whose Text holds the raw body; status handlers still match it.
func (b *Builder) ErrorType(mode ErrorMode) *Builder {
	b.settings.SetErrorMode(mode)

	return b
}

// Get dispatches the request. The method is whatever the options say,
// which the transport treats as GET when unset.
func (b *Builder) Get(ctx context.Context, local ...fetch.Options) *Result {
	return b.dispatch(ctx, "", local)
}

// Delete dispatches a DELETE request.
func (b *Builder) Delete(ctx context.Context, local ...fetch.Options) *Result {
	return b.dispatch(ctx, http.MethodDelete, local)
}

// Put dispatches a PUT request.
func (b *Builder) Put(ctx context.Context, local ...fetch.Options) *Result {
	return b.dispatch(ctx, http.MethodPut, local)
}

// Post dispatches a POST request.
func (b *Builder) Post(ctx context.Context, local ...fetch.Options) *Result {
	return b.dispatch(ctx, http.MethodPost, local)
}

// Patch dispatches a PATCH request.
func (b *Builder) Patch(ctx context.Context, local ...fetch.Options) *Result {
	return b.dispatch(ctx, http.MethodPatch, local)
}

// dispatch merges call-site options under the builder options;
// builder values win on collision. A non-empty method overrides both.
func (b *Builder) dispatch(ctx context.Context, method string, local []fetch.Options) *Result {
	final := fetch.Merge(fetch.MergeAll(local...), b.options)
	if method != "" {
		final[fetch.KeyMethod] = method
	}

	return dispatch(ctx, dispatchRequest{
		settings:  b.settings,
		transport: b.transport,
		url:       b.url,
		options:   final,
		err:       b.err,
	})
}

func shallowCopy(o fetch.Options) fetch.Options {
	result := make(fetch.Options, len(o)+2)
	for key, value := range o {
		result[key] = value
	}

	return result
}

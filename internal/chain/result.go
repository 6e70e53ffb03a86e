package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/oshokin/fetchchain/internal/fetch"
	"github.com/oshokin/fetchchain/internal/logger"
)

// ErrorHandler recovers from a DispatchError with a matching status.
// Its value becomes the accessor result; a non-nil error replaces the original one.
type ErrorHandler func(err *DispatchError) (any, error)

type catcher struct {
	status int
	handle ErrorHandler
}

// outcome is the single shared result of one transport call.
type outcome struct {
	done chan struct{}
	resp fetch.Response
	err  error
}

func (o *outcome) wait(ctx context.Context) (fetch.Response, error) {
	select {
	case <-o.done:
		return o.resp, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// release closes a successful response. Failed responses were read while decoding the error.
func (o *outcome) release() error {
	if o.resp == nil {
		return nil
	}

	return o.resp.Close()
}

// Result is the handle of one dispatched request.
// Body accessors wait for the shared outcome and decode the body on every call;
// status handlers registered with Catch and its shorthands apply to all accessors.
//
// The body of a successful response holds a connection until it is read.
// A caller that reads no accessor, or gives up waiting on one, calls Close.
type Result struct {
	outcome *outcome

	mu       sync.Mutex
	catchers []catcher
}

type dispatchRequest struct {
	settings  *Settings
	transport fetch.Transport
	url       string
	options   fetch.Options
	err       error
}

// dispatch reads the settings, then performs the transport call in the background.
func dispatch(ctx context.Context, req dispatchRequest) *Result {
	opts := fetch.Merge(req.settings.Defaults(), req.options)
	mode := req.settings.ErrorMode()

	r := &Result{
		outcome: &outcome{done: make(chan struct{})},
	}

	go r.run(ctx, req, opts, mode)

	return r
}

func (r *Result) run(ctx context.Context, req dispatchRequest, opts fetch.Options, mode ErrorMode) {
	// Accessors block on done, so it is closed on every path.
	defer close(r.outcome.done)

	method := opts.Method()
	if method == "" {
		method = http.MethodGet
	}

	// A builder error, such as an unencodable body, fails without a network call.
	switch {
	case req.err != nil:
		r.outcome.err = req.err

		return
	case req.transport == nil:
		r.outcome.err = ErrNilTransport

		return
	}

	resp, err := req.transport.Fetch(ctx, req.url, opts)
	if err != nil {
		logger.DebugKV(ctx, "Transport failed", "method", method, "url", req.url, "error", err)

		r.outcome.err = err

		return
	}

	// Success bodies stay unread until an accessor picks a shape.
	if resp.OK() {
		logger.DebugKV(ctx, "Request succeeded", "method", method, "url", req.url, "status", resp.Status())

		r.outcome.resp = resp

		return
	}

	logger.DebugKV(ctx, "Request failed", "method", method, "url", req.url, "status", resp.Status())

	// Error bodies are decoded here, once, with the mode captured at dispatch.
	r.outcome.err = decodeDispatchError(resp, mode)
}

// decodeDispatchError reads the body of a failed response once, per mode.
// When the body cannot be decoded the DispatchError is still wrapped in the
// returned error, carrying the raw text, so status handlers keep matching.
func decodeDispatchError(resp fetch.Response, mode ErrorMode) error {
	dispatchErr := &DispatchError{
		Status:   resp.Status(),
		Response: resp,
		Mode:     mode,
	}

	data, err := resp.ArrayBuffer()
	if err != nil {
		return fmt.Errorf("%w: status %d: %w: %w", ErrDecodeErrorBody, resp.Status(), err, dispatchErr)
	}

	if mode != ErrorModeJSON {
		dispatchErr.Text = string(data)

		return dispatchErr
	}

	var value any
	if err = json.Unmarshal(data, &value); err != nil {
		// A proxy or framework page in place of the JSON error.
		dispatchErr.Text = string(data)

		return fmt.Errorf("%w: status %d: %w: %w", ErrDecodeErrorBody, resp.Status(), err, dispatchErr)
	}

	dispatchErr.JSON = value

	return dispatchErr
}

// Catch registers a handler for failures with the given HTTP status and returns r.
// Handlers run in registration order; the first match that returns without
// error settles the accessor, later handlers only see errors it returned.
// In JSON error mode a body that is not JSON still reaches the handler,
// with JSON left nil and the raw body in Text.
func (r *Result) Catch(status int, handle ErrorHandler) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.catchers = append(r.catchers, catcher{status: status, handle: handle})

	return r
}

// BadRequest registers a handler for 400 responses.
func (r *Result) BadRequest(handle ErrorHandler) *Result {
	return r.Catch(http.StatusBadRequest, handle)
}

// Unauthorized registers a handler for 401 responses.
func (r *Result) Unauthorized(handle ErrorHandler) *Result {
	return r.Catch(http.StatusUnauthorized, handle)
}

// Forbidden registers a handler for 403 responses.
func (r *Result) Forbidden(handle ErrorHandler) *Result {
	return r.Catch(http.StatusForbidden, handle)
}

// NotFound registers a handler for 404 responses.
func (r *Result) NotFound(handle ErrorHandler) *Result {
	return r.Catch(http.StatusNotFound, handle)
}

// Timeout registers a handler for 408 responses.
// It reacts to a status reported by the server; it does not abort anything.
func (r *Result) Timeout(handle ErrorHandler) *Result {
	return r.Catch(http.StatusRequestTimeout, handle)
}

// InternalError registers a handler for 500 responses.
func (r *Result) InternalError(handle ErrorHandler) *Result {
	return r.Catch(http.StatusInternalServerError, handle)
}

// Close releases the response body when no accessor is going to read it.
// It waits for the outcome; if ctx ends first the body is released in the
// background once the transport returns, and ctx.Err() is returned.
// Close after an accessor read the body does nothing.
func (r *Result) Close(ctx context.Context) error {
	select {
	case <-r.outcome.done:
		return r.outcome.release()
	case <-ctx.Done():
		go func() {
			<-r.outcome.done
			_ = r.outcome.release()
		}()

		return ctx.Err()
	}
}

// Res resolves to the raw response.
func (r *Result) Res(ctx context.Context, cb func(fetch.Response) (any, error)) (any, error) {
	return resolve(ctx, r, func(resp fetch.Response) (fetch.Response, error) { return resp, nil }, cb)
}

// JSON resolves to the body decoded as a generic JSON value.
func (r *Result) JSON(ctx context.Context, cb func(any) (any, error)) (any, error) {
	return resolve(ctx, r, fetch.Response.JSON, cb)
}

// Blob resolves to the body and its media type.
func (r *Result) Blob(ctx context.Context, cb func(*fetch.Blob) (any, error)) (any, error) {
	return resolve(ctx, r, fetch.Response.Blob, cb)
}

// FormData resolves to the body decoded as form fields.
func (r *Result) FormData(ctx context.Context, cb func(fetch.FormData) (any, error)) (any, error) {
	return resolve(ctx, r, fetch.Response.FormData, cb)
}

// ArrayBuffer resolves to the raw body bytes.
func (r *Result) ArrayBuffer(ctx context.Context, cb func([]byte) (any, error)) (any, error) {
	return resolve(ctx, r, fetch.Response.ArrayBuffer, cb)
}

// Text resolves to the body as a string.
func (r *Result) Text(ctx context.Context, cb func(string) (any, error)) (any, error) {
	return resolve(ctx, r, fetch.Response.Text, cb)
}

// DecodeJSON unmarshals the body into v.
// When a status handler recovers from a failure, v is left untouched and nil is returned.
func (r *Result) DecodeJSON(ctx context.Context, v any) error {
	decode := func(resp fetch.Response) (any, error) {
		data, err := resp.ArrayBuffer()
		if err != nil {
			return nil, err
		}

		if err = json.Unmarshal(data, v); err != nil {
			return nil, fmt.Errorf("failed to decode JSON body: %w", err)
		}

		return v, nil
	}

	_, err := resolve(ctx, r, decode, nil)

	return err
}

//nolint:revive // Go doesn't allow struct methods to be generic.
func resolve[T any](
	ctx context.Context,
	r *Result,
	decode func(fetch.Response) (T, error),
	cb func(T) (any, error),
) (any, error) {
	value, err := settle(ctx, r.outcome, decode, cb)
	if err == nil {
		return value, nil
	}

	return r.intercept(err)
}

func settle[T any](
	ctx context.Context,
	o *outcome,
	decode func(fetch.Response) (T, error),
	cb func(T) (any, error),
) (any, error) {
	resp, err := o.wait(ctx)
	if err != nil {
		return nil, err
	}

	decoded, err := decode(resp)
	if err != nil {
		return nil, err
	}

	if cb == nil {
		return decoded, nil
	}

	value, err := cb(decoded)
	if err != nil {
		return nil, err
	}

	if value != nil {
		return value, nil
	}

	return decoded, nil
}

// intercept passes err through the registered handlers in order.
func (r *Result) intercept(err error) (any, error) {
	// Handlers may register more handlers; run over a snapshot.
	r.mu.Lock()
	catchers := make([]catcher, len(r.catchers))
	copy(catchers, r.catchers)
	r.mu.Unlock()

	var value any

	for _, c := range catchers {
		// Re-extract each time: a handler may return a different error.
		dispatchErr, ok := AsDispatchError(err)
		if !ok || dispatchErr.Status != c.status {
			continue
		}

		value, err = c.handle(dispatchErr)
		if err == nil {
			return value, nil
		}
	}

	return nil, err
}

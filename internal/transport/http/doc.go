// Package http adapts net/http to the fetch transport contract.
// Fetcher turns an option mapping into an *http.Request and wraps the reply
// in a single-read fetch.Response. The package also provides the
// RoundTripper chain used by the default client: request ID injection,
// User-Agent injection and debug-level request/response dumps.
package http

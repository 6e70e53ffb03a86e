// Package fetch defines the transport contract used by the request chain:
// the loosely typed Options mapping and its deep-merge rule,
// ordered FormData bodies, and the Response handle whose body
// can be decoded once in one of several shapes.
package fetch

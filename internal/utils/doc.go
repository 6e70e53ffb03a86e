// Package utils holds small helpers shared by the CLI and the HTTP transport:
// key/value flag parsing, file name and file helpers, and content type checks.
package utils

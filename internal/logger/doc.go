// Package logger wraps a global zap sugared logger behind context-first helpers.
// The level is held in an atomic level shared by every logger created with a nil
// level, so configuration can raise or lower verbosity at runtime.
// Key/value pairs attached to a context with WithKV are added to every line
// logged through that context, which is how request identifiers travel.
package logger

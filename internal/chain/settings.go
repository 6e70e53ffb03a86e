package chain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oshokin/fetchchain/internal/fetch"
)

// ErrorMode selects how the body of a non-2xx response is decoded
// before it is attached to a DispatchError.
type ErrorMode string

const (
	// ErrorModeText decodes error bodies as text. It is the default.
	ErrorModeText ErrorMode = "text"
	// ErrorModeJSON decodes error bodies as JSON.
	ErrorModeJSON ErrorMode = "json"
)

// ParseErrorMode converts "text" or "json" into an ErrorMode.
// An empty string yields ErrorModeText.
func ParseErrorMode(text string) (ErrorMode, error) {
	switch ErrorMode(strings.ToLower(strings.TrimSpace(text))) {
	case "", ErrorModeText:
		return ErrorModeText, nil
	case ErrorModeJSON:
		return ErrorModeJSON, nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrUnknownErrorMode, text)
	}
}

// Settings holds the defaults shared by every chain built on it:
// the lowest-precedence options and the error decoding mode.
// Both are read when a request is dispatched, not when a builder is created.
type Settings struct {
	mu        sync.RWMutex
	defaults  fetch.Options
	errorMode ErrorMode
}

//nolint:gochecknoglobals // Process-wide settings used by builders created without WithSettings.
var globalSettings = NewSettings()

// NewSettings creates an isolated Settings with empty defaults and text error mode.
func NewSettings() *Settings {
	return &Settings{
		defaults:  fetch.Options{},
		errorMode: ErrorModeText,
	}
}

// Global returns the process-wide Settings.
func Global() *Settings {
	return globalSettings
}

// SetDefaults replaces the default options wholesale.
func (s *Settings) SetDefaults(opts fetch.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.defaults = opts.Clone()
}

// MixDefaults deep-merges opts into the current default options.
func (s *Settings) MixDefaults(opts fetch.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.defaults = fetch.Merge(s.defaults, opts)
}

// Defaults returns a copy of the default options.
func (s *Settings) Defaults() fetch.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.defaults.Clone()
}

// SetErrorMode changes the error decoding mode.
func (s *Settings) SetErrorMode(mode ErrorMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errorMode = mode
}

// ErrorMode returns the error decoding mode.
func (s *Settings) ErrorMode() ErrorMode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.errorMode == "" {
		return ErrorModeText
	}

	return s.errorMode
}

// Reset restores empty defaults and text error mode.
func (s *Settings) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.defaults = fetch.Options{}
	s.errorMode = ErrorModeText
}

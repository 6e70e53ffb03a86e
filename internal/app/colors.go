package app

import (
	"net/http"

	"github.com/fatih/color"
)

// ColorScheme defines the colors used for status lines.
type ColorScheme struct {
	Method      *color.Color
	URL         *color.Color
	StatusOK    *color.Color
	StatusWarn  *color.Color
	StatusError *color.Color
	Detail      *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Method:      color.New(color.FgBlue, color.Bold),
		URL:         color.New(color.FgCyan),
		StatusOK:    color.New(color.FgGreen, color.Bold),
		StatusWarn:  color.New(color.FgYellow, color.Bold),
		StatusError: color.New(color.FgRed, color.Bold),
		Detail:      color.New(color.Faint),
	}
}

// NoColorScheme returns a color scheme with all colors disabled.
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()

	for _, c := range []*color.Color{
		scheme.Method,
		scheme.URL,
		scheme.StatusOK,
		scheme.StatusWarn,
		scheme.StatusError,
		scheme.Detail,
	} {
		c.DisableColor()
	}

	return scheme
}

// Status picks the color for an HTTP status code. Zero means no response.
func (s *ColorScheme) Status(code int) *color.Color {
	switch {
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		return s.StatusOK
	case code >= http.StatusMultipleChoices && code < http.StatusBadRequest:
		return s.StatusWarn
	default:
		return s.StatusError
	}
}

package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/fetchchain/internal/fetch"
)

// TestParseErrorMode tests the ParseErrorMode function.
func TestParseErrorMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		expected    ErrorMode
		expectedErr error
	}{
		{name: "empty means text", input: "", expected: ErrorModeText},
		{name: "text", input: "text", expected: ErrorModeText},
		{name: "json", input: "json", expected: ErrorModeJSON},
		{name: "case and spaces", input: "  JSON ", expected: ErrorModeJSON},
		{name: "unknown", input: "xml", expectedErr: ErrUnknownErrorMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mode, err := ParseErrorMode(tt.input)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

// TestSettingsDefaults tests replacing and mixing defaults.
func TestSettingsDefaults(t *testing.T) {
	t.Parallel()

	settings := NewSettings()
	assert.Empty(t, settings.Defaults())
	assert.Equal(t, ErrorModeText, settings.ErrorMode())

	input := fetch.Options{
		fetch.KeyHeaders: map[string]any{"A": "1"},
	}
	settings.SetDefaults(input)

	// Later changes to the caller's mapping do not leak in.
	input[fetch.KeyMethod] = "POST"
	assert.NotContains(t, settings.Defaults(), fetch.KeyMethod)

	settings.MixDefaults(fetch.Options{
		fetch.KeyHeaders: map[string]any{"B": "2"},
	})
	assert.Equal(t, map[string]any{"A": "1", "B": "2"}, settings.Defaults()[fetch.KeyHeaders])

	// Replacing drops everything that was mixed in.
	settings.SetDefaults(fetch.Options{fetch.KeyTimeout: "1s"})
	assert.Equal(t, fetch.Options{fetch.KeyTimeout: "1s"}, settings.Defaults())

	// The returned mapping is a copy.
	defaults := settings.Defaults()
	defaults[fetch.KeyTimeout] = "2s"
	assert.Equal(t, "1s", settings.Defaults()[fetch.KeyTimeout])
}

// TestSettingsErrorModeAndReset tests the error mode and Reset.
func TestSettingsErrorModeAndReset(t *testing.T) {
	t.Parallel()

	settings := NewSettings()
	settings.SetErrorMode(ErrorModeJSON)
	settings.SetDefaults(fetch.Options{fetch.KeyMethod: "PUT"})

	assert.Equal(t, ErrorModeJSON, settings.ErrorMode())

	settings.SetErrorMode("")
	assert.Equal(t, ErrorModeText, settings.ErrorMode())

	settings.SetErrorMode(ErrorModeJSON)
	settings.Reset()

	assert.Equal(t, ErrorModeText, settings.ErrorMode())
	assert.Empty(t, settings.Defaults())
}

// TestGlobalSettings tests that Global always returns the same instance.
func TestGlobalSettings(t *testing.T) {
	t.Parallel()

	assert.Same(t, Global(), Global())
	assert.NotSame(t, Global(), NewSettings())
}

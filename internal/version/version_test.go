package version

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestVersionStrings tests Short and Full against the build variables.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Version, Short())
	assert.Equal(t,
		"version: "+Version+", commit: "+Commit+", built at: "+BuildTime,
		Full())
}

// TestVersionDefaults tests the values used when -ldflags sets nothing.
func TestVersionDefaults(t *testing.T) {
	t.Parallel()

	assert.Regexp(t, regexp.MustCompile(`^\d+\.\d+\.\d+$`), Version)
	assert.NotEmpty(t, Commit)
	assert.NotEmpty(t, BuildTime)
}

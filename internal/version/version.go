// Package version holds build information set via -ldflags.
package version

import "fmt"

//nolint:gochecknoglobals // Set at build time with -ldflags "-X".
var (
	// Version is the semantic version of the build.
	Version = "1.0.0"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// BuildTime is when the binary was built.
	BuildTime = "unknown"
)

// Short returns the version alone.
func Short() string {
	return Version
}

// Full returns the version with commit and build time.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}

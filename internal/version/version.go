// Package version exposes build metadata stamped in via -ldflags.
package version

// Release builds overwrite these; the defaults identify a source build.
//
//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

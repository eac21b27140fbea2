// Package version holds flowdex build metadata, set with -ldflags "-X" at release time.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for --version output and startup logs.
func String() string {
	return Version + " (commit " + Commit + ", built " + Date + ")"
}

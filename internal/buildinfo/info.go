// Package buildinfo carries release metadata reported by fxgains --version.
package buildinfo

// Set with -ldflags "-X github.com/cleared-dev/fxgains/internal/buildinfo.Version=..."
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

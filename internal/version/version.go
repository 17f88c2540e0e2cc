// Package version reports build metadata injected with -ldflags.
package version

import "fmt"

// Set at build time, e.g. -ldflags "-X card-redact/internal/version.GitCommit=abc123".
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by -version.
func String() string {
	return fmt.Sprintf("card-redact %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

// Package version carries the build identity of the puzzlebox binary.
package version

import "fmt"

// Set with -ldflags "-X github.com/MeKo-Tech/puzzlebox/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String formats the build identity for --version output.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}

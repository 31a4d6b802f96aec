// Package version carries facetdex build metadata, set with
// -ldflags "-X github.com/kailas-cloud/facetdex/internal/version.Version=...".
package version

import "fmt"

//nolint:gochecknoglobals // overwritten by the linker
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for --version output.
func String() string {
	return fmt.Sprintf("facetdex %s (commit %s, built %s)", Version, Commit, Date)
}

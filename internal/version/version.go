// Package version holds build-time version information for the ragmanual binary.
// The variables in this package are populated at build time via -ldflags:
//
//	go build -ldflags="-X github.com/54b3r/ragmanual-go/internal/version.Version=v0.3.0 \
//	                    -X github.com/54b3r/ragmanual-go/internal/version.Commit=abc1234 \
//	                    -X github.com/54b3r/ragmanual-go/internal/version.BuildDate=2026-10-01"
//
// Local builds fall back to "dev"/"unknown".
package version

import "fmt"

// Version is the semantic version of the binary (e.g. "v0.3.0").
var Version = "dev"

// Commit is the short git SHA the binary was built from.
var Commit = "unknown"

// BuildDate is the UTC date the binary was built (RFC3339 format).
var BuildDate = "unknown"

// String renders the version triple the way `ragmanual version` prints it.
func String() string {
	return fmt.Sprintf("ragmanual %s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

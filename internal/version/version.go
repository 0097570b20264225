// Package version holds the rapport build version.
package version

import (
	"fmt"
	"runtime/debug"
)

// ModulePath is the Go module path of rapport.
const ModulePath = "github.com/mesh-intelligence/rapport"

var (
	// Version can be overridden with -ldflags "-X .../internal/version.Version=v1.2.3".
	Version = "dev"
	// CommitHash is filled from ldflags or, failing that, from VCS build info.
	CommitHash = ""
)

// GetInfo returns the version followed by the short commit hash when known.
func GetInfo() string {
	commit := CommitHash
	if commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					commit = setting.Value
				}
			}
		}
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, commit)
}

// Package version provides application version and build info.
//
//nolint:revive
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

var (
	// Version is the current version of the application.
	// It can be overridden by ldflags at build time.
	Version = "dev"
	// CommitHash is the git commit hash at build time.
	// It can be overridden by ldflags at build time.
	CommitHash = ""
	// BuildTime is the time when the application was built.
	// It can be overridden by ldflags at build time.
	BuildTime = ""
)

var vcsOnce sync.Once

// Info is the build description reported by `folio version` and /api/health.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
}

func readVCS() {
	vcsOnce.Do(func() {
		if CommitHash != "" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				CommitHash = setting.Value
			case "vcs.time":
				BuildTime = setting.Value
			}
		}
	})
}

// Get returns the build info, filling commit and time from VCS stamps when
// ldflags did not set them.
func Get() Info {
	readVCS()
	return Info{
		Version:   Version,
		Commit:    shortHash(CommitHash),
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// GetInfo returns a formatted version string including the version and commit hash.
func GetInfo() string {
	readVCS()
	res := Version
	if CommitHash != "" {
		res += fmt.Sprintf(" (%s)", shortHash(CommitHash))
	}
	return res
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

// Package version reports build metadata for the cheatsheet binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Set at build time with -ldflags "-X github.com/conneroisu/cheatsheet/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	// BuildTime is RFC3339.
	BuildTime = "unknown"
)

// Info is the build metadata shown by the version command.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	BuildTime time.Time `json:"build_time"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	Dirty     bool      `json:"dirty"`
	Release   bool      `json:"release"`
}

type vcsInfo struct {
	module   string
	revision string
	modified bool
}

var readVCS = sync.OnceValue(func() vcsInfo {
	var v vcsInfo
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	if info.Main.Version != "(devel)" {
		v.module = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			v.revision = s.Value
		case "vcs.modified":
			v.modified = s.Value == "true"
		}
	}
	return v
})

// Get collects the build metadata.
func Get() Info {
	vcs := readVCS()
	info := Info{
		Version:   resolveVersion(Version, vcs),
		GitCommit: GitCommit,
		BuildTime: parseBuildTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Dirty:     vcs.modified,
	}
	if info.GitCommit == "" || info.GitCommit == "unknown" {
		if vcs.revision != "" {
			info.GitCommit = vcs.revision
		} else {
			info.GitCommit = "unknown"
		}
	}
	info.Release = info.Version != "dev" && !strings.HasPrefix(info.Version, "dev-")
	return info
}

func resolveVersion(linked string, vcs vcsInfo) string {
	if linked != "" && linked != "dev" {
		return linked
	}
	if vcs.module != "" {
		return vcs.module
	}
	if len(vcs.revision) >= 7 {
		return "dev-" + vcs.revision[:7]
	}
	return "dev"
}

// Short returns "version (commit)" for one-line display.
func (i Info) Short() string {
	if i.GitCommit == "unknown" || len(i.GitCommit) < 7 || strings.HasSuffix(i.Version, i.GitCommit[:7]) {
		return i.Version
	}
	return fmt.Sprintf("%s (%s)", i.Version, i.GitCommit[:7])
}

// String returns every known field, one per line.
func (i Info) String() string {
	lines := []string{"Version: " + i.Version}
	if i.GitCommit != "unknown" {
		lines = append(lines, "Commit: "+i.GitCommit)
	}
	if !i.BuildTime.IsZero() {
		lines = append(lines, "Built: "+i.BuildTime.UTC().Format(time.RFC3339))
	}
	lines = append(lines, "Go: "+i.GoVersion, "Platform: "+i.Platform)
	if i.Dirty {
		lines = append(lines, "Working directory: dirty")
	}
	return strings.Join(lines, "\n")
}

// parseBuildTime accepts RFC3339 and a few common layouts, returning the
// zero time otherwise.
func parseBuildTime(s string) time.Time {
	if s == "" || s == "unknown" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

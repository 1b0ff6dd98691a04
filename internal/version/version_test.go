package version

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveVersion(t *testing.T) {
	tests := []struct {
		name   string
		linked string
		vcs    vcsInfo
		want   string
	}{
		{"linker flag wins", "v1.2.0", vcsInfo{module: "v0.9.0"}, "v1.2.0"},
		{"module version", "dev", vcsInfo{module: "v0.9.0"}, "v0.9.0"},
		{"revision", "dev", vcsInfo{revision: "abcdef123456"}, "dev-abcdef1"},
		{"nothing known", "", vcsInfo{}, "dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveVersion(tt.linked, tt.vcs))
		})
	}
}

func TestParseBuildTime(t *testing.T) {
	want := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	assert.True(t, want.Equal(parseBuildTime("2026-03-01T12:30:00Z")))
	assert.True(t, want.Equal(parseBuildTime("2026-03-01 12:30:00")))
	assert.True(t, parseBuildTime("unknown").IsZero())
	assert.True(t, parseBuildTime("yesterday").IsZero())
}

func TestInfoShort(t *testing.T) {
	assert.Equal(t, "v1.0.0 (abcdef1)", Info{Version: "v1.0.0", GitCommit: "abcdef1234"}.Short())
	assert.Equal(t, "dev-abcdef1", Info{Version: "dev-abcdef1", GitCommit: "abcdef1234"}.Short())
	assert.Equal(t, "dev", Info{Version: "dev", GitCommit: "unknown"}.Short())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.NotEmpty(t, info.Version)

	s := info.String()
	assert.True(t, strings.HasPrefix(s, "Version: "+info.Version))
	assert.Contains(t, s, "Platform: "+info.Platform)
}

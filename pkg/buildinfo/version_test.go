package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFillFrom(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)

	tests := []struct {
		name                  string
		version, commit, date string
		info                  debug.BuildInfo
		wantVersion           string
		wantCommit            string
	}{
		{
			name:    "module version fills dev",
			version: "dev", commit: "none", date: "unknown",
			info: debug.BuildInfo{
				Main:     debug.Module{Version: "v0.3.1"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
			},
			wantVersion: "v0.3.1",
			wantCommit:  "abc123",
		},
		{
			name:    "devel is ignored",
			version: "dev", commit: "none", date: "unknown",
			info:        debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			wantVersion: "dev",
			wantCommit:  "none",
		},
		{
			name:    "ldflags win",
			version: "v1.0.0", commit: "deadbeef", date: "2025-01-01",
			info: debug.BuildInfo{
				Main:     debug.Module{Version: "v0.3.1"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
			},
			wantVersion: "v1.0.0",
			wantCommit:  "deadbeef",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit, Date = tt.version, tt.commit, tt.date
			fillFrom(&tt.info)
			if Version != tt.wantVersion || Commit != tt.wantCommit {
				t.Errorf("got %s/%s, want %s/%s", Version, Commit, tt.wantVersion, tt.wantCommit)
			}
		})
	}
}

func TestTemplate(t *testing.T) {
	if !strings.HasPrefix(Template(), "{{.Name}} version ") {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.Contains(String(), "commit: ") {
		t.Errorf("String() = %q", String())
	}
}

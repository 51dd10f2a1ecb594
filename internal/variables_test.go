package internal

import (
	"runtime"
	"testing"
)

func setBuild(t *testing.T, v, s, c string) {
	t.Helper()
	oldVersion, oldStage, oldCommit := version, stage, gitCommit
	t.Cleanup(func() { version, stage, gitCommit = oldVersion, oldStage, oldCommit })
	version, stage, gitCommit = v, s, c
}

func TestVersionString(t *testing.T) {
	tests := []struct {
		name    string
		version string
		stage   string
		commit  string
		want    string
	}{
		{"local", "", "", "", "(local)"},
		{"missing commit", "1.0.0", "main", "", "(local)"},
		{"main", "v1.2.3", "main", "abc123", "1.2.3 abc123 [" + runtime.GOARCH + "]"},
		{"stage", "1.2.3", "Beta", "abc123", "1.2.3+beta abc123 [" + runtime.GOARCH + "]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBuild(t, tt.version, tt.stage, tt.commit)
			if got := VersionString(); got != tt.want {
				t.Fatalf("VersionString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentityUndefined(t *testing.T) {
	setBuild(t, "", "", "")

	id := Identity()
	if id.Version != undefined || id.Stage != undefined || id.Commit != undefined {
		t.Fatalf("Identity() = %+v, want undefined fields", id)
	}
	if !IsLocal() {
		t.Fatal("IsLocal() = false, want true")
	}
}

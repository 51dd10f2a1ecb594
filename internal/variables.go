package internal

import (
	"fmt"
	"runtime"
	"strings"
)

// Program name, used for the CLI, log groups, and per-user directories.
const Name = "harness"

const (
	undefined  = "(undefined)" // Placeholder for unset linker variables.
	localBuild = "(local)"     // Version string reported by developer builds.
	mainBranch = "main"        // Stage omitted from version strings.
)

// Set through -ldflags "-X github.com/cruciblehq/harness/internal.<name>=<value>".
var (
	version   = "" // Release version, with or without a "v" prefix.
	stage     = "" // Branch or release channel the binary was built from.
	gitCommit = "" // Commit hash the binary was built from.

	rawQuiet   = "false" // Default for --quiet.
	rawDebug   = "false" // Default for --debug.
	rawVerbose = "false" // Default for --verbose.
)

// Identifies the running binary.
type Build struct {
	Version string // Normalized version, without the "v" prefix.
	Stage   string // Lowercased stage.
	Commit  string // Git commit hash.
	Arch    string // GOARCH of the binary.
}

// Returns the identity recorded at link time.
//
// Unset fields are reported as "(undefined)".
func Identity() Build {
	return Build{
		Version: orUndefined(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(version)), "v")),
		Stage:   orUndefined(strings.ToLower(strings.TrimSpace(stage))),
		Commit:  orUndefined(strings.TrimSpace(gitCommit)),
		Arch:    runtime.GOARCH,
	}
}

// Returns the normalized release version, or "(undefined)".
func Version() string {
	return Identity().Version
}

// Whether the binary was built outside the release pipeline.
//
// Release builds set version, stage, and commit together. Missing any of
// them marks a developer build.
func IsLocal() bool {
	for _, v := range []string{version, stage, gitCommit} {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// Returns the version line printed by "harness version".
//
// Developer builds print "(local)". Release builds print
// "<version>[+<stage>] <commit> [<arch>]", omitting the stage for main.
func VersionString() string {
	if IsLocal() {
		return localBuild
	}

	id := Identity()

	suffix := ""
	if id.Stage != mainBranch {
		suffix = "+" + id.Stage
	}

	return fmt.Sprintf("%s%s %s [%s]", id.Version, suffix, id.Commit, id.Arch)
}

func orUndefined(s string) string {
	if s == "" {
		return undefined
	}
	return s
}

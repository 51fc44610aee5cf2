// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// These variables are set via -ldflags at build time, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/cliche/lib/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Info returns a formatted version string.
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// Short returns just the version number.
func Short() string {
	return Version
}

// Platform returns GOOS/GOARCH.
func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// Module describes the main module of the running binary.
type Module struct {
	Path    string
	Version string

	// Installed is true when the binary was built from a versioned
	// module (go install path@version) rather than a working tree.
	Installed bool
}

// Main returns the main module of the running binary. ok is false
// when the binary carries no build information.
func Main() (module Module, ok bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Module{}, false
	}
	module = Module{Path: info.Main.Path, Version: info.Main.Version}
	module.Installed = released(module.Version)
	return module, true
}

// released reports whether a module version names a release or
// pseudo-version rather than a local build.
func released(version string) bool {
	return version != "" && version != "(devel)" && !strings.HasSuffix(version, "+dirty")
}

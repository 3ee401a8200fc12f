// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"tome/internal/pkg/global"
)

// Set with -ldflags "-X tome/internal/version.Ref=..." by release builds.
var (
	Revision  string
	Ref       string
	BuildDate string
)

var output = render()

// Print returns the multi-line version text shown by "tome --version".
func Print() string {
	return output
}

// Version is the semantic version of this build.
func Version() string {
	v := fmt.Sprintf("%s.%s.%s", global.MAJOR, global.MINOR, global.PATCH)
	if global.Dev {
		v += " (development)"
	}

	return v
}

func render() string {
	revision, tags := fromBuildInfo()
	if Revision != "" {
		revision = Revision
	}

	var b strings.Builder

	line := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-12s%s\n", name+":", value)
		}
	}

	line("version", Version())
	line("ref", Ref)
	line("revision", revision)
	line("go version", runtime.Version())
	line("platform", runtime.GOOS+"/"+runtime.GOARCH)
	line("build date", BuildDate)
	line("build tags", tags)

	return strings.TrimSuffix(b.String(), "\n")
}

func fromBuildInfo() (revision, tags string) {
	revision = "<unknown>"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return revision, tags
	}

	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		case "-tags":
			tags = s.Value
		}
	}

	if modified {
		revision += "-modified"
	}

	return revision, tags
}

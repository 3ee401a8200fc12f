// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package version

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"tome/internal/pkg/global"
)

// FormatBuildInfo renders info for "tome --build-info", one tab separated record per line:
// the tome version and default "created by" first, then the main module, dependencies and build settings.
func FormatBuildInfo(info *debug.BuildInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "tome\t%s\n", Version())
	fmt.Fprintf(&b, "created-by\t%s\n", global.CreatedBy())
	fmt.Fprintf(&b, "go\t%s\n", info.GoVersion)

	if info.Main.Path != "" {
		fmt.Fprintf(&b, "mod\t%s %s\n", info.Main.Path, info.Main.Version)
	}

	pathWidth := lo.Max(lo.Map(info.Deps, func(d *debug.Module, _ int) int { return len(d.Path) }))
	versionWidth := lo.Max(lo.Map(info.Deps, func(d *debug.Module, _ int) int { return len(d.Version) }))

	for _, d := range info.Deps {
		line := fmt.Sprintf("dep\t%-*s %-*s %s", pathWidth, d.Path, versionWidth, d.Version, d.Sum)
		if d.Replace != nil {
			line += fmt.Sprintf(" => %s %s %s", d.Replace.Path, d.Replace.Version, d.Replace.Sum)
		}

		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}

	for _, s := range info.Settings {
		fmt.Fprintf(&b, "build\t%s=%s\n", quote(s.Key, "= \t\r\n\"`", true), quote(s.Value, " \t\r\n\"`", false))
	}

	return b.String()
}

// quote wraps s in Go quotes when it holds any of special, or when it's empty and emptyNeedsQuote.
func quote(s, special string, emptyNeedsQuote bool) string {
	if (emptyNeedsQuote && s == "") || strings.ContainsAny(s, special) {
		return strconv.Quote(s)
	}

	return s
}

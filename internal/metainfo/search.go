// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/samber/lo"
	"github.com/trim21/errgo"

	"tome/internal/pkg/null"
)

type SearchOptions struct {
	// glob pattern, '*' matches any run of characters and '?' a single one.
	// It's matched against every path segment and the whole "/" joined path.
	// Empty pattern matches all files.
	Pattern string
	// custom fields to copy into FileEntry.Custom
	CustomKeys []string
	// inclusive size range, MaxSize is unbounded when not set
	MaxSize null.Int64
	MinSize int64
}

// SearchFiles returns files matching opts in torrent order.
func (t *Torrent) SearchFiles(opts SearchOptions) ([]FileEntry, error) {
	var re *regexp.Regexp
	if strings.TrimSpace(opts.Pattern) != "" {
		var err error
		re, err = CompileGlob(opts.Pattern)
		if err != nil {
			return nil, err
		}
	}

	var result []FileEntry
	err := t.walkFiles(opts.CustomKeys, func(e FileEntry) bool {
		if e.Length < opts.MinSize || (opts.MaxSize.Set && e.Length > opts.MaxSize.Value) {
			return true
		}

		if re != nil && !matchPath(re, e.Path) {
			return true
		}

		result = append(result, e)
		return true
	})

	return result, err
}

func matchPath(re *regexp.Regexp, segments []string) bool {
	for _, s := range segments {
		if re.MatchString(s) {
			return true
		}
	}

	return len(segments) > 1 && re.MatchString(strings.Join(segments, "/"))
}

var globCache = lo.Must(lru.New[string, *regexp.Regexp](256))

// CompileGlob translates a glob to an anchored regular expression.
// Only '*' and '?' are wildcards, everything else is matched literally.
func CompileGlob(pattern string) (*regexp.Regexp, error) {
	if re, ok := globCache.Get(pattern); ok {
		return re, nil
	}

	var sb strings.Builder
	sb.WriteString(`(?s)^`)
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(`.*`)
		case '?':
			sb.WriteString(`.`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString(`$`)

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, errgo.Wrap(err, "failed to compile glob pattern")
	}

	globCache.Add(pattern, re)

	return re, nil
}

// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo

import (
	"net/url"
	"strconv"
	"strings"
)

// MagnetOptions selects the optional magnet parameters, unselected ones are omitted.
type MagnetOptions struct {
	// dn, the torrent name
	DisplayName bool
	// xl, the total length
	Length bool
	// tr, the primary tracker
	Announce bool
	// one tr for every entry of announce-list, in tier order
	AnnounceList bool
	// skip announce-list entries already emitted as tr
	DistinctTrackers bool
}

// Magnet builds a BTIH magnet link from the current tree.
func (t *Torrent) Magnet(opts MagnetOptions) (string, error) {
	h, err := t.InfoHash()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("magnet:?xt=urn:btih:")
	sb.WriteString(h.Hex())

	if opts.DisplayName {
		name, err := t.BestName()
		if err != nil {
			return "", err
		}

		sb.WriteString("&dn=")
		sb.WriteString(escape(name))
	}

	if opts.Length {
		size, err := t.TotalLength()
		if err != nil {
			return "", err
		}

		sb.WriteString("&xl=")
		sb.WriteString(strconv.FormatInt(size, 10))
	}

	seen := make(map[string]struct{})
	addTracker := func(tr string) {
		if tr == "" {
			return
		}

		if opts.DistinctTrackers {
			if _, ok := seen[tr]; ok {
				return
			}
			seen[tr] = struct{}{}
		}

		sb.WriteString("&tr=")
		sb.WriteString(escape(tr))
	}

	if opts.Announce {
		a, err := t.Announce()
		if err != nil {
			return "", err
		}

		addTracker(a.Value)
	}

	if opts.AnnounceList {
		al, err := t.AnnounceList()
		if err != nil {
			return "", err
		}

		for _, tier := range al {
			for _, tr := range tier {
				addTracker(tr)
			}
		}
	}

	return sb.String(), nil
}

// escape percent-encodes everything except RFC 3986 unreserved characters.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo_test

import (
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"tome/internal/metainfo"
)

func TestMagnet(t *testing.T) {
	t.Parallel()

	tt := singleFile(t)
	require.NoError(t, tt.SetAnnounce("udp://a:80"))
	require.NoError(t, tt.SetAnnounceList(metainfo.AnnounceList{{"udp://a:80"}, {"udp://b:80", "udp://a:80"}}))

	h := lo.Must(tt.InfoHash()).Hex()

	require.Equal(t, "magnet:?xt=urn:btih:"+h, lo.Must(tt.Magnet(metainfo.MagnetOptions{})))

	require.Equal(t,
		"magnet:?xt=urn:btih:"+h+"&dn=a%20b%26c&xl=10",
		lo.Must(tt.Magnet(metainfo.MagnetOptions{DisplayName: true, Length: true})))

	require.Equal(t,
		"magnet:?xt=urn:btih:"+h+"&tr=udp%3A%2F%2Fa%3A80",
		lo.Must(tt.Magnet(metainfo.MagnetOptions{Announce: true})))

	const a, b = "&tr=udp%3A%2F%2Fa%3A80", "&tr=udp%3A%2F%2Fb%3A80"

	require.Equal(t,
		"magnet:?xt=urn:btih:"+h+a+a+b+a,
		lo.Must(tt.Magnet(metainfo.MagnetOptions{Announce: true, AnnounceList: true})))

	require.Equal(t,
		"magnet:?xt=urn:btih:"+h+a+b+a,
		lo.Must(tt.Magnet(metainfo.MagnetOptions{AnnounceList: true})))

	require.Equal(t,
		"magnet:?xt=urn:btih:"+h+a+b,
		lo.Must(tt.Magnet(metainfo.MagnetOptions{Announce: true, AnnounceList: true, DistinctTrackers: true})))
}

func TestMagnet_EveryAnnounceListEntry(t *testing.T) {
	t.Parallel()

	tt := singleFile(t)
	require.NoError(t, tt.SetAnnounceList(metainfo.AnnounceList{{"udp://x:1", ""}, {}, {"udp://y:2", "udp://x:1"}}))

	link := lo.Must(tt.Magnet(metainfo.MagnetOptions{AnnounceList: true}))
	require.Equal(t, 3, strings.Count(link, "&tr="))
	require.True(t, strings.HasSuffix(link, "&tr=udp%3A%2F%2Fx%3A1&tr=udp%3A%2F%2Fy%3A2&tr=udp%3A%2F%2Fx%3A1"))
}

func TestMagnet_FollowsInfo(t *testing.T) {
	t.Parallel()

	tt := singleFile(t)
	before := lo.Must(tt.Magnet(metainfo.MagnetOptions{}))

	require.NoError(t, tt.SetComment("outside info"))
	require.Equal(t, before, lo.Must(tt.Magnet(metainfo.MagnetOptions{})))

	require.NoError(t, tt.SetName("changed"))
	require.NotEqual(t, before, lo.Must(tt.Magnet(metainfo.MagnetOptions{})))
}

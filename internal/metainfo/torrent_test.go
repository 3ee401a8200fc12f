// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo_test

import (
	"bytes"
	"context"
	"crypto/sha1"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	abencode "github.com/anacrolix/torrent/bencode"
	ametainfo "github.com/anacrolix/torrent/metainfo"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"tome/internal/bencode"
	"tome/internal/metainfo"
)

func singleFile(t *testing.T) *metainfo.Torrent {
	t.Helper()

	tt := metainfo.New()
	require.NoError(t, tt.SetName("a b&c"))
	tt.SetPieceLength(16384)
	tt.SetInfo("length", bencode.Int(10))
	tt.SetInfo("pieces", bencode.Str(strings.Repeat("x", 20)))

	return tt
}

func TestLoad_Anacrolix(t *testing.T) {
	t.Parallel()

	info := ametainfo.Info{
		Name:        "dir",
		PieceLength: 16384,
		Pieces:      bytes.Repeat([]byte{1}, 40),
		Files: []ametainfo.FileInfo{
			{Path: []string{"a", "b.txt"}, Length: 20000},
			{Path: []string{"c.mkv"}, Length: 100},
		},
	}

	mi := ametainfo.MetaInfo{
		InfoBytes:    lo.Must(abencode.Marshal(info)),
		Announce:     "udp://tracker.example:80",
		AnnounceList: ametainfo.AnnounceList{{"udp://tracker.example:80"}, {"http://b.example/announce"}},
		Comment:      "hello",
		CreatedBy:    "anacrolix",
		CreationDate: 1700000000,
	}

	var buf bytes.Buffer
	require.NoError(t, mi.Write(&buf))

	tt, err := metainfo.Load(&buf)
	require.NoError(t, err)

	require.Equal(t, mi.HashInfoBytes().HexString(), lo.Must(tt.InfoHash()).Hex())
	require.Equal(t, "udp://tracker.example:80", lo.Must(tt.Announce()).Value)
	require.Equal(t, metainfo.AnnounceList{{"udp://tracker.example:80"}, {"http://b.example/announce"}}, lo.Must(tt.AnnounceList()))
	require.Equal(t, "hello", lo.Must(tt.Comment()).Value)
	require.Equal(t, "anacrolix", lo.Must(tt.CreatedBy()).Value)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), lo.Must(tt.CreationDate()).Value)
	require.Equal(t, "dir", lo.Must(tt.Name()).Value)
	require.True(t, lo.Must(tt.Multiple()))
	require.Equal(t, int64(20100), lo.Must(tt.TotalLength()))
	require.Equal(t, 2, lo.Must(tt.NumPieces()))

	files := lo.Must(tt.Files())
	require.Len(t, files, 2)
	require.Equal(t, []string{"a", "b.txt"}, files[0].Path)
	require.Equal(t, int64(0), files[0].Offset)
	require.Equal(t, int64(20000), files[1].Offset)

	var out bytes.Buffer
	require.NoError(t, tt.Write(&out))

	var again bytes.Buffer
	require.NoError(t, mi.Write(&again))
	require.Equal(t, again.Bytes(), out.Bytes())
}

func TestSetFiles_MatchesAnacrolix(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "content")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), randomBytes(10, 40_000), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.bin"), randomBytes(11, 70_001), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z.txt"), []byte("z"), 0o644))

	expected := ametainfo.Info{PieceLength: 32 * 1024}
	require.NoError(t, expected.BuildFromFilePath(dir))

	tt := metainfo.New()
	require.NoError(t, tt.SetFiles(context.Background(), dir, "", 32*1024))

	require.Equal(t, expected.Pieces, lo.Must(tt.Pieces()))
	require.Equal(t, metainfo.Hash(sha1.Sum(lo.Must(abencode.Marshal(expected)))), lo.Must(tt.InfoHash()))

	files := lo.Must(tt.Files())
	require.Equal(t, [][]string{{"a.bin"}, {"sub", "b.bin"}, {"z.txt"}}, lo.Map(files, func(f metainfo.FileEntry, _ int) []string {
		return f.Path
	}))
}

func TestSetFile_MatchesAnacrolix(t *testing.T) {
	t.Parallel()

	filename := filepath.Join(t.TempDir(), "single.bin")
	require.NoError(t, os.WriteFile(filename, randomBytes(12, 100_000), 0o644))

	expected := ametainfo.Info{PieceLength: 16 * 1024}
	require.NoError(t, expected.BuildFromFilePath(filename))

	tt := metainfo.New()
	require.NoError(t, tt.SetFile(context.Background(), filename, "", 16*1024))

	require.Equal(t, metainfo.Hash(sha1.Sum(lo.Must(abencode.Marshal(expected)))), lo.Must(tt.InfoHash()))
}

func TestInfoHash_Sensitivity(t *testing.T) {
	t.Parallel()

	tt := singleFile(t)
	original := lo.Must(tt.InfoHash())

	require.NoError(t, tt.SetComment("not part of info"))
	require.NoError(t, tt.SetAnnounce("udp://a:80"))
	tt.SetCreationDate(time.Now())
	require.Equal(t, original, lo.Must(tt.InfoHash()))

	require.NoError(t, tt.SetName("renamed"))
	renamed := lo.Must(tt.InfoHash())
	require.NotEqual(t, original, renamed)

	tt.SetPrivate(true)
	require.NotEqual(t, renamed, lo.Must(tt.InfoHash()))

	expected := sha1.Sum(lo.Must(tt.InfoBytes()))
	require.Equal(t, metainfo.Hash(expected), lo.Must(tt.InfoHash()))
}

func TestInfoHash_MissingInfo(t *testing.T) {
	t.Parallel()

	tt := lo.Must(metainfo.FromValue(bencode.NewDict().Value()))
	_, err := tt.InfoHash()
	require.ErrorIs(t, err, metainfo.ErrMissingInfo)
}

func TestFromValue_NotDict(t *testing.T) {
	t.Parallel()

	_, err := metainfo.FromValue(bencode.Int(1))
	require.ErrorIs(t, err, bencode.ErrTypeMismatch)

	_, err = metainfo.Load(strings.NewReader(""))
	require.Error(t, err)

	_, err = metainfo.Load(strings.NewReader("d4:info"))
	require.ErrorIs(t, err, bencode.ErrSyntax)
}

func TestGetters_AbsentAndMismatch(t *testing.T) {
	t.Parallel()

	tt := metainfo.New()

	comment, err := tt.Comment()
	require.NoError(t, err)
	require.False(t, comment.Set)

	date, err := tt.CreationDate()
	require.NoError(t, err)
	require.False(t, date.Set)

	al, err := tt.AnnounceList()
	require.NoError(t, err)
	require.Nil(t, al)

	nodes, err := tt.Nodes()
	require.NoError(t, err)
	require.Nil(t, nodes)

	tt.Set("comment", bencode.Int(1))
	_, err = tt.Comment()
	require.ErrorIs(t, err, bencode.ErrTypeMismatch)

	tt.Set("creation date", bencode.Str("yesterday"))
	_, err = tt.CreationDate()
	require.ErrorIs(t, err, bencode.ErrTypeMismatch)

	tt.SetInfo("piece length", bencode.Str("big"))
	_, err = tt.PieceLength()
	require.ErrorIs(t, err, bencode.ErrTypeMismatch)

	tt.Set("info", bencode.Int(1))
	_, err = tt.Name()
	require.ErrorIs(t, err, bencode.ErrTypeMismatch)

	tt.Delete("comment")
	_, ok := tt.Get("comment")
	require.False(t, ok)
}

func TestSetters(t *testing.T) {
	t.Parallel()

	tt := singleFile(t)

	require.NoError(t, tt.SetCreatedBy("tome"))
	require.NoError(t, tt.SetPublisher("someone"))
	require.NoError(t, tt.SetPublisherURL("https://example.com"))
	require.NoError(t, tt.SetAnnounceList(metainfo.AnnounceList{{"a", "b"}, {"c"}}))
	tt.SetMD5Sum("d41d8cd98f00b204e9800998ecf8427e")
	tt.SetPrivate(true)

	require.Equal(t, "tome", lo.Must(tt.CreatedBy()).Value)
	require.Equal(t, "someone", lo.Must(tt.Publisher()).Value)
	require.Equal(t, "https://example.com", lo.Must(tt.PublisherURL()).Value)
	require.Equal(t, metainfo.AnnounceList{{"a", "b"}, {"c"}}, lo.Must(tt.AnnounceList()))
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", lo.Must(tt.MD5Sum()).Value)
	require.True(t, lo.Must(tt.Private()).Value)

	tt.DeleteInfo("private")
	require.False(t, lo.Must(tt.Private()).Set)

	v, ok := tt.GetInfo("publisher")
	require.True(t, ok)
	require.Equal(t, "someone", lo.Must(v.Text(nil)))
}

func TestUpvertedAnnounceList(t *testing.T) {
	t.Parallel()

	tt := metainfo.New()
	require.Nil(t, lo.Must(tt.UpvertedAnnounceList()))

	require.NoError(t, tt.SetAnnounce("udp://a"))
	require.Equal(t, metainfo.AnnounceList{{"udp://a"}}, lo.Must(tt.UpvertedAnnounceList()))

	require.NoError(t, tt.SetAnnounceList(metainfo.AnnounceList{{"udp://b"}}))
	require.Equal(t, metainfo.AnnounceList{{"udp://b"}}, lo.Must(tt.UpvertedAnnounceList()))
}

func TestCreationDate_Epoch(t *testing.T) {
	t.Parallel()

	tt := metainfo.New()
	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tt.SetCreationDate(date)

	v, _ := tt.Get("creation date")
	require.Equal(t, date.Unix(), lo.Must(v.Int64()))
	require.Equal(t, date, lo.Must(tt.CreationDate()).Value)

	epoch := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	other := lo.Must(metainfo.FromValue(tt.Root()))
	other.SetEpoch(epoch)
	require.Equal(t, epoch, other.Epoch())
	require.Equal(t, epoch.Add(time.Duration(date.Unix())*time.Second), lo.Must(other.CreationDate()).Value)

	other.SetCreationDate(date)
	v, _ = other.Get("creation date")
	require.Equal(t, date.Unix()-epoch.Unix(), lo.Must(v.Int64()))
}

func TestTextEncoding(t *testing.T) {
	t.Parallel()

	tt := metainfo.New()
	tt.SetTextEncoding(simplifiedchinese.GBK)
	tt.SetEncoding("GBK")

	require.NoError(t, tt.SetComment("中文"))
	require.Equal(t, "中文", lo.Must(tt.Comment()).Value)

	raw, _ := tt.Get("comment")
	b, _ := raw.Bytes()
	require.Equal(t, lo.Must(simplifiedchinese.GBK.NewEncoder().Bytes([]byte("中文"))), b)

	loaded := lo.Must(metainfo.FromValue(tt.Root()))
	enc, err := loaded.DeclaredEncoding()
	require.NoError(t, err)
	require.NotNil(t, enc)

	loaded.SetTextEncoding(enc)
	require.Equal(t, "中文", lo.Must(loaded.Comment()).Value)

	require.Equal(t, "GBK", lo.Must(loaded.Encoding()).Value)

	loaded.SetEncoding("no-such-charset")
	_, err = loaded.DeclaredEncoding()
	require.Error(t, err)
}

func TestNodes(t *testing.T) {
	t.Parallel()

	tt := metainfo.New()
	tt.SetNodes([]metainfo.Node{{Host: "127.0.0.1", Port: 6881}, {Host: "::1", Port: 1}})

	nodes := lo.Must(tt.Nodes())
	require.Equal(t, []metainfo.Node{{Host: "127.0.0.1", Port: 6881}, {Host: "::1", Port: 1}}, nodes)
	require.Equal(t, "[::1]:1", nodes[1].String())

	tt.Set("nodes", bencode.List(bencode.List(bencode.Str("h"))))
	_, err := tt.Nodes()
	require.Error(t, err)
}

func TestSave(t *testing.T) {
	t.Parallel()

	tt := singleFile(t)
	date := time.Unix(1700000000, 0)

	var buf bytes.Buffer
	require.NoError(t, tt.Save(&buf, metainfo.SaveOptions{CreatedBy: "tome/test", CreationDate: date, IncludeHash: true}))

	loaded := lo.Must(metainfo.Load(&buf))
	require.Equal(t, "tome/test", lo.Must(loaded.CreatedBy()).Value)
	require.Equal(t, date.UTC(), lo.Must(loaded.CreationDate()).Value)
	require.Equal(t, lo.Must(tt.InfoHash()).Hex(), lo.Must(loaded.HashHex()).Value)
}

func TestSaveFile(t *testing.T) {
	t.Parallel()

	tt := singleFile(t)
	filename := filepath.Join(t.TempDir(), "out.torrent")

	require.NoError(t, tt.SaveFile(filename, metainfo.SaveOptions{}))

	loaded := lo.Must(metainfo.LoadFromFile(filename, bencode.WithStrict(true)))
	require.Equal(t, lo.Must(tt.InfoHash()), lo.Must(loaded.InfoHash()))

	entries, err := os.ReadDir(filepath.Dir(filename))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestHashFromHex(t *testing.T) {
	t.Parallel()

	h := metainfo.Hash(sha1.Sum([]byte("x")))

	parsed, err := metainfo.HashFromHex(strings.ToUpper(h.Hex()))
	require.NoError(t, err)
	require.Equal(t, h, parsed)

	_, err = metainfo.HashFromHex("abc")
	require.Error(t, err)
}

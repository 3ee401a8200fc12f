// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo_test

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/docker/go-units"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"tome/internal/metainfo"
)

func randomBytes(seed int64, n int) []byte {
	b := make([]byte, n)
	_, _ = rand.New(rand.NewSource(seed)).Read(b)
	return b
}

func memSource(data []byte, path ...string) metainfo.Source {
	return metainfo.Source{
		Path:   path,
		Length: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func digests(pieces []byte) [][]byte {
	return lo.Chunk(pieces, sha1.Size)
}

func TestSetFile_LastPieceOfOneByte(t *testing.T) {
	t.Parallel()

	const pieceLength = 16 * units.MiB

	data := randomBytes(1, pieceLength+1)
	filename := filepath.Join(t.TempDir(), "big.bin")
	require.NoError(t, os.WriteFile(filename, data, 0o644))

	tt := metainfo.New()
	require.NoError(t, tt.SetFile(context.Background(), filename, "", pieceLength))

	require.Equal(t, 2, lo.Must(tt.NumPieces()))

	hashes := lo.Must(tt.PieceHashes())
	require.Equal(t, metainfo.Hash(sha1.Sum(data[:pieceLength])), hashes[0])
	require.Equal(t, metainfo.Hash(sha1.Sum(data[pieceLength:])), hashes[1])

	require.Equal(t, "big.bin", lo.Must(tt.Name()).Value)
	require.Equal(t, int64(pieceLength+1), lo.Must(tt.Length()).Value)
	require.Equal(t, int64(pieceLength), lo.Must(tt.PieceLength()).Value)
	require.False(t, lo.Must(tt.Multiple()))
}

func TestHashPieces_Deterministic(t *testing.T) {
	t.Parallel()

	data := randomBytes(2, 100_000)
	src := []metainfo.Source{memSource(data, "a")}

	first := lo.Must(metainfo.HashPieces(context.Background(), src, 16*units.KiB))
	second := lo.Must(metainfo.HashPieces(context.Background(), src, 16*units.KiB))
	require.Equal(t, first, second)
	require.Len(t, digests(first), 7)
}

func TestHashPieces_Sensitivity(t *testing.T) {
	t.Parallel()

	const pieceLength = 16 * units.KiB

	data := randomBytes(3, 100_000)
	original := digests(lo.Must(metainfo.HashPieces(context.Background(), []metainfo.Source{memSource(data, "a")}, pieceLength)))

	for _, offset := range []int{0, pieceLength - 1, pieceLength, 50_000, len(data) - 1} {
		changed := bytes.Clone(data)
		changed[offset]++

		pieces := digests(lo.Must(metainfo.HashPieces(context.Background(), []metainfo.Source{memSource(changed, "a")}, pieceLength)))
		for i := range pieces {
			if i == offset/pieceLength {
				require.NotEqual(t, original[i], pieces[i], offset)
			} else {
				require.Equal(t, original[i], pieces[i], offset)
			}
		}
	}
}

func TestHashPieces_SpansFiles(t *testing.T) {
	t.Parallel()

	a := randomBytes(4, 10_000)
	b := randomBytes(5, 25_000)
	c := randomBytes(6, 1)

	joined := lo.Must(metainfo.HashPieces(context.Background(), []metainfo.Source{
		memSource(a, "a"),
		memSource(nil, "empty"),
		memSource(b, "b"),
		memSource(c, "c"),
	}, 16*units.KiB))

	whole := lo.Must(metainfo.HashPieces(context.Background(), []metainfo.Source{
		memSource(append(append(bytes.Clone(a), b...), c...), "all"),
	}, 16*units.KiB))

	require.Equal(t, whole, joined)
}

func TestHashPieces_Workers(t *testing.T) {
	t.Parallel()

	data := randomBytes(7, 1_000_000)
	src := []metainfo.Source{memSource(data[:300_000], "a"), memSource(data[300_000:], "b")}

	sequential := lo.Must(metainfo.HashPieces(context.Background(), src, 32*units.KiB))
	parallel := lo.Must(metainfo.HashPieces(context.Background(), src, 32*units.KiB, metainfo.WithWorkers(4)))

	require.Equal(t, sequential, parallel)
}

func TestHashPieces_Empty(t *testing.T) {
	t.Parallel()

	pieces, err := metainfo.HashPieces(context.Background(), []metainfo.Source{memSource(nil, "a")}, units.KiB)
	require.NoError(t, err)
	require.Empty(t, pieces)
}

func TestHashPieces_Progress(t *testing.T) {
	t.Parallel()

	var events []metainfo.Progress
	_, err := metainfo.HashPieces(context.Background(), []metainfo.Source{
		memSource([]byte("abc"), "a"),
		memSource([]byte("de"), "b"),
	}, units.KiB, metainfo.WithProgress(func(p metainfo.Progress) {
		events = append(events, p)
	}))
	require.NoError(t, err)

	require.Equal(t, []metainfo.Progress{
		{Path: []string{"a"}, Index: 0, Total: 2, Length: 3},
		{Path: []string{"b"}, Index: 1, Total: 2, Length: 2},
	}, events)
}

func TestHashPieces_ReadRate(t *testing.T) {
	t.Parallel()

	data := randomBytes(8, 4096)
	limited, err := metainfo.HashPieces(context.Background(), []metainfo.Source{memSource(data, "a")}, units.KiB,
		metainfo.WithReadRate(units.MiB))
	require.NoError(t, err)

	require.Equal(t, lo.Must(metainfo.HashPieces(context.Background(), []metainfo.Source{memSource(data, "a")}, units.KiB)), limited)
}

func TestHashPieces_SourceChanged(t *testing.T) {
	t.Parallel()

	src := memSource([]byte("short"), "a")
	src.Length = 10

	_, err := metainfo.HashPieces(context.Background(), []metainfo.Source{src}, units.KiB)
	require.ErrorIs(t, err, metainfo.ErrSourceChanged)
}

func TestHashPieces_OpenError(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	src := metainfo.Source{Path: []string{"a"}, Length: 1, Open: func() (io.ReadCloser, error) {
		return nil, errBoom
	}}

	_, err := metainfo.HashPieces(context.Background(), []metainfo.Source{src}, units.KiB)
	require.ErrorIs(t, err, errBoom)
}

func TestHashPieces_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := metainfo.HashPieces(ctx, []metainfo.Source{memSource([]byte("abc"), "a")}, units.KiB, metainfo.WithWorkers(2))
	require.ErrorIs(t, err, context.Canceled)
}

func TestHashPieces_InvalidPieceLength(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		_, _ = metainfo.HashPieces(context.Background(), nil, 0)
	})
}

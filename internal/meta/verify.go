// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package meta

import (
	"context"
	"crypto/sha1"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/colega/zeropool"
	"github.com/rs/zerolog/log"
	"github.com/trim21/errgo"
	"golang.org/x/sync/errgroup"

	"tome/internal/pkg/as"
	"tome/internal/pkg/assert"
)

// errMissingData marks a piece whose file is missing or too short.
var errMissingData = errors.New("missing data")

// Verify hashes local data under dir and returns the indexes of pieces that match.
// File paths are relative to dir. Missing or short files only fail the pieces they cover.
func Verify(ctx context.Context, info Info, dir string, workers int) (*roaring.Bitmap, error) {
	assert.Equal(as.Int(info.NumPieces), len(info.Pieces), "piece count doesn't match piece hashes")

	var m sync.Mutex
	good := roaring.New()

	buffers := zeropool.New(func() []byte {
		return make([]byte, info.PieceLength)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for index := uint32(0); index < info.NumPieces; index++ {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			buf := buffers.Get()
			defer buffers.Put(buf)

			piece := buf[:info.PieceSize(index)]
			err := readPiece(info, dir, int64(index)*info.PieceLength, piece)
			if err != nil {
				if errors.Is(err, errMissingData) {
					log.Trace().Uint32("piece", index).Err(err).Msg("piece not available")
					return nil
				}

				return err
			}

			if sha1.Sum(piece) == info.Pieces[index] {
				m.Lock()
				good.Add(index)
				m.Unlock()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return good, nil
}

// readPiece fills piece with content starting at offset, which may span files.
func readPiece(info Info, dir string, offset int64, piece []byte) error {
	end := offset + int64(len(piece))

	for _, f := range info.Files {
		if f.Offset+f.Length <= offset || f.Offset >= end || f.Length == 0 {
			continue
		}

		start := max(offset, f.Offset)
		stop := min(end, f.Offset+f.Length)

		if err := readAt(filepath.Join(dir, f.Path), piece[start-offset:stop-offset], start-f.Offset); err != nil {
			return err
		}
	}

	return nil
}

func readAt(name string, dst []byte, off int64) error {
	file, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errgo.Wrap(errMissingData, name)
		}

		return errgo.Wrap(err, "failed to open file")
	}
	defer file.Close()

	if _, err := file.ReadAt(dst, off); err != nil {
		if errors.Is(err, io.EOF) {
			return errgo.Wrap(errMissingData, name)
		}

		return errgo.Wrap(err, "failed to read file")
	}

	return nil
}

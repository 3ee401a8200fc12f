// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path"

	"github.com/colega/zeropool"
	"github.com/juju/ratelimit"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/stream"
	"github.com/trim21/errgo"

	"tome/internal/pkg/assert"
	"tome/internal/pkg/gfs"
	"tome/internal/pkg/mempool"
)

var ErrSourceChanged = errors.New("file size changed while hashing")

// Source is one file of torrent content.
type Source struct {
	Open func() (io.ReadCloser, error)
	// path segments recorded in the torrent
	Path   []string
	Length int64
}

// FileSource stats filename and returns a Source reading it.
func FileSource(filename string, segments ...string) (Source, error) {
	stat, err := os.Stat(filename)
	if err != nil {
		return Source{}, err
	}

	if !stat.Mode().IsRegular() {
		return Source{}, fmt.Errorf("%q is not a regular file", filename)
	}

	return Source{
		Path:   segments,
		Length: stat.Size(),
		Open: func() (io.ReadCloser, error) {
			f, err := gfs.OpenSequential(filename)
			if err != nil {
				return nil, err
			}

			return f, nil
		},
	}, nil
}

// Progress is reported after each file is read.
type Progress struct {
	Path []string
	// 0-based index of the finished file
	Index  int
	Total  int
	Length int64
}

type HashOption func(*hashOptions)

type hashOptions struct {
	logger   zerolog.Logger
	onFile   func(Progress)
	workers  int
	readRate int64
}

// WithWorkers digests up to n pieces in parallel, piece order is kept.
func WithWorkers(n int) HashOption {
	return func(o *hashOptions) {
		o.workers = n
	}
}

func WithLogger(logger zerolog.Logger) HashOption {
	return func(o *hashOptions) {
		o.logger = logger
	}
}

// WithReadRate limits reading to bytesPerSecond, 0 means unlimited.
func WithReadRate(bytesPerSecond int64) HashOption {
	return func(o *hashOptions) {
		o.readRate = bytesPerSecond
	}
}

// WithProgress calls fn from the hashing goroutine after each file.
func WithProgress(fn func(Progress)) HashOption {
	return func(o *hashOptions) {
		o.onFile = fn
	}
}

// HashPieces reads sources as one continuous stream and returns the
// concatenated SHA-1 of every pieceLength bytes, the last piece may be shorter.
func HashPieces(ctx context.Context, sources []Source, pieceLength int64, opts ...HashOption) ([]byte, error) {
	if pieceLength <= 0 {
		panic(fmt.Sprintf("metainfo: invalid piece length %d", pieceLength))
	}

	o := hashOptions{logger: log.Logger, workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	var bucket *ratelimit.Bucket
	if o.readRate > 0 {
		bucket = ratelimit.NewBucketWithRate(float64(o.readRate), o.readRate)
	}

	h := newPieceHasher(pieceLength, o.workers)
	defer h.wait()

	buf := mempool.GetSlice()
	defer mempool.PutSlice(buf)

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		o.logger.Debug().Str("path", path.Join(src.Path...)).Int64("length", src.Length).Msg("hashing file")

		if err := copySource(ctx, h, src, buf, bucket); err != nil {
			return nil, err
		}

		if o.onFile != nil {
			o.onFile(Progress{Index: i, Total: len(sources), Path: src.Path, Length: src.Length})
		}
	}

	return h.finish(), nil
}

func copySource(ctx context.Context, w io.Writer, src Source, buf []byte, bucket *ratelimit.Bucket) error {
	name := path.Join(src.Path...)

	f, err := src.Open()
	if err != nil {
		return errgo.Wrap(err, fmt.Sprintf("failed to open %q", name))
	}
	defer f.Close()

	var r io.Reader = gfs.NewReader(ctx, f)
	if bucket != nil {
		r = ratelimit.Reader(r, bucket)
	}

	n, err := io.CopyBuffer(w, io.LimitReader(r, src.Length), buf)
	if err != nil {
		return errgo.Wrap(err, fmt.Sprintf("failed to read %q", name))
	}

	if n != src.Length {
		return fmt.Errorf("%w: %q has %d bytes, expecting %d", ErrSourceChanged, name, n, src.Length)
	}

	return nil
}

// pieceHasher splits written content into pieces.
// Without a stream it hashes in place, otherwise each piece is copied into
// a buffer and digested by the stream workers.
type pieceHasher struct {
	digest  hash.Hash
	s       *stream.Stream
	buffers zeropool.Pool[[]byte]
	buf     []byte
	pieces  []byte
	size    int64
	filled  int64
	waited  bool
}

func newPieceHasher(pieceLength int64, workers int) *pieceHasher {
	h := &pieceHasher{size: pieceLength, digest: sha1.New()}
	if workers > 1 {
		h.s = stream.New().WithMaxGoroutines(workers)
		h.buffers = zeropool.New(func() []byte {
			return make([]byte, pieceLength)
		})
		h.buf = h.buffers.Get()
	}

	return h
}

func (h *pieceHasher) Write(p []byte) (int, error) {
	written := len(p)
	for len(p) > 0 {
		n := min(int64(len(p)), h.size-h.filled)
		if h.s == nil {
			h.digest.Write(p[:n])
		} else {
			copy(h.buf[h.filled:], p[:n])
		}

		h.filled += n
		p = p[n:]

		assert.NotEqual(n, 0, "piece hasher made no progress")

		if h.filled == h.size {
			h.flush()
		}
	}

	return written, nil
}

func (h *pieceHasher) flush() {
	if h.filled == 0 {
		return
	}

	if h.s == nil {
		h.pieces = h.digest.Sum(h.pieces)
		h.digest.Reset()
		h.filled = 0
		return
	}

	piece := h.buf[:h.filled]
	h.buf = h.buffers.Get()
	h.filled = 0

	h.s.Go(func() stream.Callback {
		sum := sha1.Sum(piece)
		return func() {
			h.pieces = append(h.pieces, sum[:]...)
			h.buffers.Put(piece[:cap(piece)])
		}
	})
}

// finish digests the trailing piece and returns all digests in order.
func (h *pieceHasher) finish() []byte {
	h.flush()
	h.wait()
	return h.pieces
}

func (h *pieceHasher) wait() {
	if h.s == nil || h.waited {
		return
	}

	h.waited = true
	h.s.Wait()
}

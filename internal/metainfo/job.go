// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo

import (
	"context"
	"slices"

	"github.com/trim21/errgo"
	"go.uber.org/atomic"

	"tome/internal/bencode"
	"tome/internal/pkg/global/tasks"
)

const progressBuffer = 64

// HashJob is a piece hashing task running in background.
//
// The torrent must not be touched until Wait returns. On failure or
// cancellation the file metadata ("length", "files", "pieces") is removed
// from the info dictionary, on success it's fully replaced.
type HashJob struct {
	err      atomic.Error
	progress chan Progress
	done     chan struct{}
	cancel   context.CancelFunc
	files    atomic.Int64
	bytes    atomic.Int64
}

// SetFileAsync is the background version of SetFile.
func (t *Torrent) SetFileAsync(ctx context.Context, filename, name string, pieceLength int64, opts ...HashOption) *HashJob {
	return t.startJob(ctx, opts, func(ctx context.Context, opts []HashOption) error {
		return t.SetFile(ctx, filename, name, pieceLength, opts...)
	})
}

// SetFilesAsync is the background version of SetFiles.
func (t *Torrent) SetFilesAsync(ctx context.Context, dir, name string, pieceLength int64, opts ...HashOption) *HashJob {
	return t.startJob(ctx, opts, func(ctx context.Context, opts []HashOption) error {
		return t.SetFiles(ctx, dir, name, pieceLength, opts...)
	})
}

// SetSourcesAsync is the background version of SetSources.
func (t *Torrent) SetSourcesAsync(ctx context.Context, name string, sources []Source, pieceLength int64, opts ...HashOption) *HashJob {
	return t.startJob(ctx, opts, func(ctx context.Context, opts []HashOption) error {
		return t.SetSources(ctx, name, sources, pieceLength, opts...)
	})
}

func (t *Torrent) startJob(
	ctx context.Context,
	opts []HashOption,
	run func(ctx context.Context, opts []HashOption) error,
) *HashJob {
	ctx, cancel := context.WithCancel(ctx)

	j := &HashJob{
		progress: make(chan Progress, progressBuffer),
		done:     make(chan struct{}),
		cancel:   cancel,
	}

	var o hashOptions
	for _, opt := range opts {
		opt(&o)
	}

	onFile := o.onFile
	opts = append(slices.Clone(opts), WithProgress(func(p Progress) {
		j.report(p)
		if onFile != nil {
			onFile(p)
		}
	}))

	err := tasks.Submit(func() {
		j.finish(t, run(ctx, opts))
	})
	if err != nil {
		j.finish(t, errgo.Wrap(err, "failed to start hash job"))
	}

	return j
}

// report never blocks, events are dropped if the receiver falls behind.
func (j *HashJob) report(p Progress) {
	j.files.Inc()
	j.bytes.Add(p.Length)

	select {
	case j.progress <- p:
	default:
	}
}

func (j *HashJob) finish(t *Torrent, err error) {
	if err != nil {
		t.updateInfo(func(info bencode.Dict) bencode.Dict {
			return info.Delete(fieldLength).Delete(fieldFiles).Delete(fieldPieces)
		})
		j.err.Store(err)
	}

	j.cancel()
	close(j.progress)
	close(j.done)
}

// Progress returns per file events, the channel is closed when the job ends.
func (j *HashJob) Progress() <-chan Progress {
	return j.progress
}

func (j *HashJob) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job ends and returns its error.
func (j *HashJob) Wait() error {
	<-j.done
	return j.err.Load()
}

// Cancel stops a running job, its error will match context.Canceled.
func (j *HashJob) Cancel() {
	j.cancel()
}

// HashedFiles returns the number of files read so far.
func (j *HashJob) HashedFiles() int64 {
	return j.files.Load()
}

// HashedBytes returns the number of bytes read from finished files.
func (j *HashJob) HashedBytes() int64 {
	return j.bytes.Load()
}

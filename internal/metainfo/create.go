// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/trim21/errgo"

	"tome/internal/bencode"
	"tome/internal/pkg/unsafe"
)

// SetFile hashes filename and stores it with the single-file layout.
// name defaults to the base name of filename.
func (t *Torrent) SetFile(ctx context.Context, filename, name string, pieceLength int64, opts ...HashOption) error {
	if name == "" {
		name = filepath.Base(filename)
	}

	src, err := FileSource(filename, name)
	if err != nil {
		return errgo.Wrap(err, "failed to stat file")
	}

	info, err := t.hashInfo(ctx, name, []Source{src}, true, pieceLength, opts)
	if err != nil {
		return err
	}

	t.setInfo(info)
	return nil
}

// SetFiles hashes every regular file under dir and stores them with the multi-file layout.
// name defaults to the base name of dir.
func (t *Torrent) SetFiles(ctx context.Context, dir, name string, pieceLength int64, opts ...HashOption) error {
	sources, err := DirSources(dir)
	if err != nil {
		return err
	}

	if name == "" {
		name = filepath.Base(filepath.Clean(dir))
	}

	return t.SetSources(ctx, name, sources, pieceLength, opts...)
}

// SetSources hashes sources in the given order and stores them with the multi-file layout.
func (t *Torrent) SetSources(ctx context.Context, name string, sources []Source, pieceLength int64, opts ...HashOption) error {
	info, err := t.hashInfo(ctx, name, sources, false, pieceLength, opts)
	if err != nil {
		return err
	}

	t.setInfo(info)
	return nil
}

// hashInfo returns a new info dictionary describing sources.
// Fields unrelated to content, like private or publisher, are kept.
func (t *Torrent) hashInfo(
	ctx context.Context,
	name string,
	sources []Source,
	single bool,
	pieceLength int64,
	opts []HashOption,
) (bencode.Dict, error) {
	if name == "" {
		return bencode.Dict{}, fmt.Errorf("%w: empty torrent name", ErrInvalidPath)
	}

	if !single {
		for _, src := range sources {
			if len(src.Path) == 0 || slices.Contains(src.Path, "") {
				return bencode.Dict{}, fmt.Errorf("%w: %q", ErrInvalidPath, src.Path)
			}
		}
	}

	nameValue, err := encodeText(name, t.enc)
	if err != nil {
		return bencode.Dict{}, wrapFieldErr(fieldName, err)
	}

	files := bencode.NewListBuilder(len(sources))
	if !single {
		for _, src := range sources {
			segments := bencode.NewListBuilder(len(src.Path))
			for _, s := range src.Path {
				v, err := encodeText(s, t.enc)
				if err != nil {
					return bencode.Dict{}, wrapFieldErr(fieldPath, err)
				}
				segments.Append(v)
			}

			files.Append(bencode.NewDictBuilder().
				Set(fieldLength, bencode.Int(src.Length)).
				Set(fieldPath, segments.Build()).
				Build().Value())
		}
	}

	pieces, err := HashPieces(ctx, sources, pieceLength, opts...)
	if err != nil {
		return bencode.Dict{}, err
	}

	b := t.info().Builder().
		Delete(fieldLength).
		Delete(fieldFiles).
		Delete(fieldMD5Sum).
		Delete(fieldName+".utf-8").
		Set(fieldName, nameValue).
		Set(fieldPieceLength, bencode.Int(pieceLength)).
		Set(fieldPieces, bencode.Str(unsafe.Str(pieces)))

	if single {
		b.Set(fieldLength, bencode.Int(sources[0].Length))
	} else {
		b.Set(fieldFiles, files.Build())
	}

	return b.Build(), nil
}

// DirSources lists regular files under dir, sorted by path segments.
func DirSources(dir string) ([]Source, error) {
	var sources []Source

	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted:            true,
		FollowSymbolicLinks: true,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			isDir, err := de.IsDirOrSymlinkToDir()
			if err != nil {
				return err
			}

			if isDir {
				return nil
			}

			rel, err := filepath.Rel(dir, osPathname)
			if err != nil {
				return err
			}

			src, err := FileSource(osPathname, strings.Split(filepath.ToSlash(rel), "/")...)
			if err != nil {
				return err
			}

			sources = append(sources, src)
			return nil
		},
	})
	if err != nil {
		return nil, errgo.Wrap(err, fmt.Sprintf("failed to list files in %q", dir))
	}

	slices.SortFunc(sources, func(a, b Source) int {
		return slices.Compare(a.Path, b.Path)
	})

	return sources, nil
}

// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package meta

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/samber/lo"

	"tome/internal/metainfo"
	"tome/internal/pkg/as"
)

type File struct {
	Path   string
	Length int64
	Offset int64
}

// Info is the flattened content description of a torrent.
type Info struct {
	Name          string
	Pieces        []metainfo.Hash
	Files         []File
	TotalLength   int64
	PieceLength   int64
	LastPieceSize int64
	Hash          metainfo.Hash
	NumPieces     uint32
	Private       bool
}

var ErrInvalidPieceLength = errors.New("piece length must be positive")
var ErrInvalidLength = errors.New("number of pieces doesn't match total length")

func FromTorrent(m *metainfo.Torrent) (Info, error) {
	name, err := m.BestName()
	if err != nil {
		return Info{}, err
	}

	pieceLength, err := m.PieceLength()
	if err != nil {
		return Info{}, err
	}

	if pieceLength.Value <= 0 {
		return Info{}, fmt.Errorf("%w: %d", ErrInvalidPieceLength, pieceLength.Value)
	}

	pieces, err := m.PieceHashes()
	if err != nil {
		return Info{}, err
	}

	entries, err := m.Files()
	if err != nil {
		return Info{}, err
	}

	private, err := m.Private()
	if err != nil {
		return Info{}, err
	}

	hash, err := m.InfoHash()
	if err != nil {
		return Info{}, err
	}

	files := lo.Map(entries, func(item metainfo.FileEntry, index int) File {
		return File{
			Path:   filepath.Join(item.Path...),
			Length: item.Length,
			Offset: item.Offset,
		}
	})

	totalLength := lo.SumBy(files, func(f File) int64 { return f.Length })

	i := Info{
		Hash:        hash,
		Private:     private.Value,
		Name:        name,
		TotalLength: totalLength,
		Pieces:      pieces,
		NumPieces:   as.Uint32(len(pieces)),
		PieceLength: pieceLength.Value,
		Files:       files,
	}

	if int64(i.NumPieces) != (i.TotalLength+i.PieceLength-1)/i.PieceLength {
		return Info{}, fmt.Errorf("%w: %d pieces for %d bytes", ErrInvalidLength, i.NumPieces, i.TotalLength)
	}

	if i.NumPieces != 0 {
		i.LastPieceSize = i.TotalLength - i.PieceLength*int64(i.NumPieces-1)
	}

	return i, nil
}

// PieceSize returns the length of piece index.
func (i Info) PieceSize(index uint32) int64 {
	if index == i.NumPieces-1 {
		return i.LastPieceSize
	}

	return i.PieceLength
}

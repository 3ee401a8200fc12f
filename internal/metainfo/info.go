// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo

import (
	"crypto/sha1"
	"errors"
	"fmt"

	"tome/internal/bencode"
	"tome/internal/pkg/mempool"
)

var ErrMissingInfo = errors.New("torrent has no info dictionary")
var ErrInvalidPieces = errors.New("length of pieces is not a multiple of 20")

// InfoBytes returns the canonical encoding of the info dictionary.
func (t *Torrent) InfoBytes() ([]byte, error) {
	info, err := t.requireInfo()
	if err != nil {
		return nil, err
	}

	return bencode.Marshal(info.Value())
}

// InfoHash computes the BTIH, the SHA-1 of the canonical info dictionary.
// It's computed from the current tree on every call.
func (t *Torrent) InfoHash() (Hash, error) {
	info, err := t.requireInfo()
	if err != nil {
		return Hash{}, err
	}

	buf := mempool.Get()
	defer mempool.Put(buf)

	buf.B, err = bencode.AppendValue(buf.B[:0], info.Value())
	if err != nil {
		return Hash{}, err
	}

	return sha1.Sum(buf.B), nil
}

func (t *Torrent) requireInfo() (bencode.Dict, error) {
	if _, ok := t.root.Get(fieldInfo); !ok {
		return bencode.Dict{}, ErrMissingInfo
	}

	return t.Info()
}

// PieceHashes splits "pieces" into digests.
func (t *Torrent) PieceHashes() ([]Hash, error) {
	pieces, err := t.Pieces()
	if err != nil {
		return nil, err
	}

	if len(pieces)%sha1.Size != 0 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidPieces, len(pieces))
	}

	hashes := make([]Hash, len(pieces)/sha1.Size)
	for i := range hashes {
		hashes[i] = Hash(pieces[i*sha1.Size : (i+1)*sha1.Size])
	}

	return hashes, nil
}

func (t *Torrent) NumPieces() (int, error) {
	pieces, err := t.Pieces()
	if err != nil {
		return 0, err
	}

	if len(pieces)%sha1.Size != 0 {
		return 0, fmt.Errorf("%w: got %d bytes", ErrInvalidPieces, len(pieces))
	}

	return len(pieces) / sha1.Size, nil
}

// Multiple reports whether the torrent uses the multi-file layout.
func (t *Torrent) Multiple() (bool, error) {
	info, err := t.Info()
	if err != nil {
		return false, err
	}

	return info.Has(fieldFiles), nil
}

// TotalLength is the length of the single file, or the sum of all files.
func (t *Torrent) TotalLength() (int64, error) {
	files, err := t.Files()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, f := range files {
		total += f.Length
	}

	return total, nil
}

// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"tome/internal/pkg/unsafe"
)

// Hash is a SHA-1 digest, used for both piece hashes and the info hash.
type Hash [sha1.Size]byte

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) AsString() string {
	return unsafe.Str(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// HashFromHex parses a 40 characters hex string, case-insensitive.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	if len(s) != hex.EncodedLen(sha1.Size) {
		return h, fmt.Errorf("invalid hash length %d", len(s))
	}

	if _, err := hex.Decode(h[:], unsafe.Bytes(s)); err != nil {
		return h, err
	}

	return h, nil
}

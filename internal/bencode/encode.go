// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package bencode

import (
	"io"
	"strconv"

	"tome/internal/pkg/mempool"
)

// Encoder writes canonical bencode to a stream.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes v in a single call to the underlying writer.
func (e *Encoder) Encode(v Value) error {
	buf := mempool.Get()
	defer mempool.Put(buf)

	b, err := AppendValue(buf.B[:0], v)
	buf.B = b
	if err != nil {
		return err
	}

	_, err = e.w.Write(buf.B)
	return err
}

// Marshal returns the canonical encoding of v.
func Marshal(v Value) ([]byte, error) {
	return AppendValue(nil, v)
}

// AppendValue appends the canonical encoding of v to dst.
func AppendValue(dst []byte, v Value) ([]byte, error) {
	switch v.kind {
	case KindString:
		dst = strconv.AppendInt(dst, int64(len(v.str)), 10)
		dst = append(dst, ':')
		return append(dst, v.str...), nil
	case KindInteger:
		dst = append(dst, 'i')
		dst = append(dst, v.str...)
		return append(dst, 'e'), nil
	case KindList:
		dst = append(dst, 'l')
		for _, item := range v.list {
			var err error
			if dst, err = AppendValue(dst, item); err != nil {
				return dst, err
			}
		}
		return append(dst, 'e'), nil
	case KindDict:
		dst = append(dst, 'd')
		// entries are kept sorted by key
		for _, e := range v.dict.entries {
			dst = strconv.AppendInt(dst, int64(len(e.Key)), 10)
			dst = append(dst, ':')
			dst = append(dst, e.Key...)

			var err error
			if dst, err = AppendValue(dst, e.Value); err != nil {
				return dst, err
			}
		}
		return append(dst, 'e'), nil
	case KindInvalid:
	}

	return dst, ErrInvalidValue
}

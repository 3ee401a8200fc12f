// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package bencode

import (
	"errors"
	"fmt"
	"io"
)

var ErrSyntax = errors.New("bencode: malformed input")
var ErrTypeMismatch = errors.New("bencode: type mismatch")
var ErrIntegerOverflow = errors.New("bencode: integer out of range")
var ErrInvalidValue = errors.New("bencode: invalid value")
var ErrMaxDepth = errors.New("bencode: max nesting depth exceeded")
var ErrTrailingData = errors.New("bencode: trailing data after value")

// SyntaxError reports malformed input and the offset where it was detected.
type SyntaxError struct {
	Msg    string
	Offset int64
	// set when input ended before the construct was complete
	truncated bool
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("bencode: %s at offset %d", e.Msg, e.Offset)
}

func (e *SyntaxError) Is(target error) bool {
	if target == ErrSyntax {
		return true
	}

	return e.truncated && target == io.ErrUnexpectedEOF
}

// TypeError is returned when a value is read as the wrong kind.
type TypeError struct {
	Key  string
	Want Kind
	Got  Kind
}

func (e *TypeError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("bencode: field %q is %s, not %s", e.Key, e.Got, e.Want)
	}

	return fmt.Sprintf("bencode: value is %s, not %s", e.Got, e.Want)
}

func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}

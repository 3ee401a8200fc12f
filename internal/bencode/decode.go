// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package bencode

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/docker/go-units"
	"github.com/trim21/errgo"

	"tome/internal/pkg/unsafe"
)

const DefaultMaxDepth = 512

// integers longer than this are rejected, it's far beyond any value found in real files.
const maxIntegerLength = 4096

// strings up to this size are read in one shot, larger ones grow with the data actually read.
const directReadLimit = 64 * units.KiB

type decodeOptions struct {
	maxStringLength int64
	maxDepth        int
	strict          bool
}

type DecodeOption func(*decodeOptions)

// WithMaxDepth limits how deep lists and dicts may nest.
func WithMaxDepth(depth int) DecodeOption {
	return func(o *decodeOptions) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithStrict rejects input that is not in canonical form:
// leading zeros, "-0", "+", and dict keys that are unsorted or duplicated.
func WithStrict(strict bool) DecodeOption {
	return func(o *decodeOptions) {
		o.strict = strict
	}
}

// WithMaxStringLength limits the length of a single byte string, 0 means no limit.
func WithMaxStringLength(n int64) DecodeOption {
	return func(o *decodeOptions) {
		o.maxStringLength = n
	}
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

// Decoder reads bencode values from a stream.
//
// If the underlying reader is not an io.ByteReader it's wrapped in a bufio.Reader,
// and may read ahead of the value being decoded.
type Decoder struct {
	r       byteReader
	stack   []frame
	scratch []byte
	offset  int64
	opts    decodeOptions
}

// frame is an open list or dict on the decode stack.
type frame struct {
	list    []Value
	entries []Entry
	key     string
	start   int64
	kind    Kind
	hasKey  bool
}

func NewDecoder(r io.Reader, opts ...DecodeOption) *Decoder {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	o := decodeOptions{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}

	return &Decoder{r: br, opts: o}
}

// DecodeBytes decodes exactly one value from b, trailing bytes are an error.
func DecodeBytes(b []byte, opts ...DecodeOption) (Value, error) {
	r := bytes.NewReader(b)
	d := NewDecoder(r, opts...)

	v, err := d.Decode()
	if err != nil {
		if err == io.EOF {
			return Value{}, &SyntaxError{Msg: "empty input", Offset: 0, truncated: true}
		}

		return Value{}, err
	}

	if r.Len() != 0 {
		return Value{}, fmt.Errorf("%w at offset %d", ErrTrailingData, d.offset)
	}

	return v, nil
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int64 {
	return d.offset
}

// Decode reads the next complete value.
// It returns io.EOF if the stream ends before the first byte of a value.
func (d *Decoder) Decode() (Value, error) {
	d.stack = d.stack[:0]

	for first := true; ; first = false {
		start := d.offset

		c, err := d.r.ReadByte()
		if err != nil {
			if err == io.EOF && first {
				return Value{}, io.EOF
			}

			return Value{}, d.readErr(err, start)
		}
		d.offset++

		if len(d.stack) != 0 {
			top := &d.stack[len(d.stack)-1]

			if top.kind == KindDict && !top.hasKey {
				if c == 'e' {
					if done, v := d.pop(); done {
						return v, nil
					}
					continue
				}

				if !isDigit(c) {
					return Value{}, d.syntax(start, "dict key must be a byte string, found %q", c)
				}

				key, err := d.readString(c, start)
				if err != nil {
					return Value{}, err
				}

				if d.opts.strict && len(top.entries) != 0 && key <= top.entries[len(top.entries)-1].Key {
					return Value{}, d.syntax(start, "dict key %q is not in ascending order", key)
				}

				top.key = key
				top.hasKey = true
				continue
			}

			if c == 'e' {
				if top.kind == KindDict {
					return Value{}, d.syntax(start, "missing value for dict key %q", top.key)
				}

				if done, v := d.pop(); done {
					return v, nil
				}
				continue
			}
		}

		var v Value

		switch {
		case c == 'd' || c == 'l':
			if len(d.stack) >= d.opts.maxDepth {
				return Value{}, fmt.Errorf("%w: limit %d at offset %d", ErrMaxDepth, d.opts.maxDepth, start)
			}

			kind := KindList
			if c == 'd' {
				kind = KindDict
			}

			d.stack = append(d.stack, frame{kind: kind, start: start})
			continue
		case c == 'i':
			v, err = d.readInteger(start)
		case isDigit(c):
			var s string
			s, err = d.readString(c, start)
			v = Value{kind: KindString, str: s}
		default:
			return Value{}, d.syntax(start, "unexpected byte %q", c)
		}

		if err != nil {
			return Value{}, err
		}

		if len(d.stack) == 0 {
			return v, nil
		}

		d.attach(v)
	}
}

// attach adds a finished value to the innermost open container.
func (d *Decoder) attach(v Value) {
	top := &d.stack[len(d.stack)-1]
	if top.kind == KindList {
		top.list = append(top.list, v)
		return
	}

	top.entries = append(top.entries, Entry{Key: top.key, Value: v})
	top.key = ""
	top.hasKey = false
}

// pop closes the innermost container, done is true when it was the outermost one.
func (d *Decoder) pop() (done bool, v Value) {
	f := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]

	if f.kind == KindList {
		v = Value{kind: KindList, list: f.list}
	} else {
		v = Dict{entries: normalizeEntries(f.entries)}.Value()
	}

	if len(d.stack) == 0 {
		return true, v
	}

	d.attach(v)

	return false, Value{}
}

func (d *Decoder) readInteger(start int64) (Value, error) {
	d.scratch = d.scratch[:0]

	for {
		c, err := d.r.ReadByte()
		if err != nil {
			return Value{}, d.readErr(err, d.offset)
		}
		d.offset++

		if c == 'e' {
			break
		}

		if len(d.scratch) >= maxIntegerLength {
			return Value{}, d.syntax(start, "integer longer than %d bytes", maxIntegerLength)
		}

		d.scratch = append(d.scratch, c)
	}

	raw := string(d.scratch)

	digits, ok := canonicalInteger(raw)
	if !ok {
		return Value{}, d.syntax(start, "invalid integer %q", raw)
	}

	if d.opts.strict && digits != raw {
		return Value{}, d.syntax(start, "non canonical integer %q", raw)
	}

	return Value{kind: KindInteger, str: digits}, nil
}

// readString reads a byte string whose first length digit c was already consumed.
func (d *Decoder) readString(c byte, start int64) (string, error) {
	n := int64(c - '0')
	leadingZero := c == '0'
	digits := 1

	for {
		c, err := d.r.ReadByte()
		if err != nil {
			return "", d.readErr(err, d.offset)
		}
		d.offset++

		if c == ':' {
			break
		}

		if !isDigit(c) {
			return "", d.syntax(d.offset-1, "invalid byte %q in string length", c)
		}

		if n > (math.MaxInt64-9)/10 {
			return "", d.syntax(start, "string length overflow")
		}

		n = n*10 + int64(c-'0')
		digits++
	}

	if d.opts.strict && leadingZero && digits > 1 {
		return "", d.syntax(start, "string length has leading zero")
	}

	if d.opts.maxStringLength > 0 && n > d.opts.maxStringLength {
		return "", d.syntax(start, "string length %d exceeds limit %d", n, d.opts.maxStringLength)
	}

	if n == 0 {
		return "", nil
	}

	if n <= directReadLimit {
		buf := make([]byte, n)
		read, err := io.ReadFull(d.r, buf)
		d.offset += int64(read)
		if err != nil {
			return "", d.readErr(err, d.offset)
		}

		return unsafe.Str(buf), nil
	}

	var buf bytes.Buffer
	read, err := io.CopyN(&buf, d.r, n)
	d.offset += read
	if err != nil {
		return "", d.readErr(err, d.offset)
	}

	return unsafe.Str(buf.Bytes()), nil
}

func (d *Decoder) syntax(offset int64, format string, args ...any) error {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Offset: offset}
}

func (d *Decoder) readErr(err error, offset int64) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &SyntaxError{Msg: "unexpected end of input", Offset: offset, truncated: true}
	}

	return errgo.Wrap(err, fmt.Sprintf("bencode: failed to read input at offset %d", offset))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

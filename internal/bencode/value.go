// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package bencode

import (
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

// Value is one immutable bencode node.
//
// The zero Value has KindInvalid and can't be encoded or attached to a list or dict.
// Nodes are never modified after construction, so a Value may be shared freely
// between trees. Use DictBuilder / ListBuilder or Dict.Set to derive new trees.
type Value struct {
	list []Value
	dict Dict
	// raw bytes for KindString, canonical decimal digits for KindInteger
	str  string
	kind Kind
}

func Str(s string) Value {
	return Value{kind: KindString, str: s}
}

// Raw creates a byte string value, b is copied.
func Raw(b []byte) Value {
	return Value{kind: KindString, str: string(b)}
}

func Int(i int64) Value {
	return Value{kind: KindInteger, str: strconv.FormatInt(i, 10)}
}

func BigInt(i *big.Int) Value {
	if i == nil {
		panic("bencode: nil big.Int")
	}

	return Value{kind: KindInteger, str: i.String()}
}

// ParseInteger parses an optionally signed decimal numeral of any size.
// Leading zeros and a leading '+' are accepted and normalized away.
func ParseInteger(s string) (Value, error) {
	digits, ok := canonicalInteger(s)
	if !ok {
		return Value{}, fmt.Errorf("%w: invalid integer %q", ErrSyntax, s)
	}

	return Value{kind: KindInteger, str: digits}, nil
}

// List creates a list value holding items in order.
func List(items ...Value) Value {
	for _, item := range items {
		mustValid(item)
	}

	return Value{kind: KindList, list: slices.Clone(items)}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

// AsString returns the raw bytes of a byte string as a Go string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}

	return v.str, true
}

// Bytes returns a copy of the raw bytes of a byte string.
func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindString {
		return nil, false
	}

	return []byte(v.str), true
}

// Text decodes a byte string with enc. A nil enc returns the bytes unchanged,
// which is correct for UTF-8 content.
func (v Value) Text(enc encoding.Encoding) (string, error) {
	if v.kind != KindString {
		return "", &TypeError{Want: KindString, Got: v.kind}
	}

	if enc == nil {
		return v.str, nil
	}

	return enc.NewDecoder().String(v.str)
}

// Digits returns the canonical decimal form of an integer.
func (v Value) Digits() (string, bool) {
	if v.kind != KindInteger {
		return "", false
	}

	return v.str, true
}

func (v Value) Int64() (int64, error) {
	if v.kind != KindInteger {
		return 0, &TypeError{Want: KindInteger, Got: v.kind}
	}

	i, err := strconv.ParseInt(v.str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrIntegerOverflow, v.str)
	}

	return i, nil
}

func (v Value) BigInt() (*big.Int, bool) {
	if v.kind != KindInteger {
		return nil, false
	}

	i, ok := new(big.Int).SetString(v.str, 10)
	return i, ok
}

// AsList returns a copy of the list elements.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}

	return slices.Clone(v.list), true
}

func (v Value) AsDict() (Dict, bool) {
	if v.kind != KindDict {
		return Dict{}, false
	}

	return v.dict, true
}

// Len returns the number of bytes, elements or entries. It's 0 for integers.
func (v Value) Len() int {
	switch v.kind {
	case KindString:
		return len(v.str)
	case KindList:
		return len(v.list)
	case KindDict:
		return v.dict.Len()
	case KindInteger, KindInvalid:
	}

	return 0
}

// Index returns the i-th element of a list, it panics if v is not a list or i is out of range.
func (v Value) Index(i int) Value {
	if v.kind != KindList {
		panic(fmt.Sprintf("bencode: Index on %s value", v.kind))
	}

	return v.list[i]
}

// String implements fmt.Stringer with a compact debug rendering.
func (v Value) String() string {
	var sb strings.Builder
	v.debug(&sb)
	return sb.String()
}

func (v Value) debug(sb *strings.Builder) {
	switch v.kind {
	case KindString:
		if utf8.ValidString(v.str) {
			sb.WriteString(strconv.Quote(v.str))
		} else {
			fmt.Fprintf(sb, "<%d bytes>", len(v.str))
		}
	case KindInteger:
		sb.WriteString(v.str)
	case KindList:
		sb.WriteByte('[')
		for i, item := range v.list {
			if i != 0 {
				sb.WriteString(", ")
			}
			item.debug(sb)
		}
		sb.WriteByte(']')
	case KindDict:
		sb.WriteByte('{')
		for i, e := range v.dict.entries {
			if i != 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(e.Key))
			sb.WriteString(": ")
			e.Value.debug(sb)
		}
		sb.WriteByte('}')
	case KindInvalid:
		sb.WriteString("<invalid>")
	}
}

// Equal reports whether a and b are structurally equal.
// Dictionaries compare by their key/value sets.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindString, KindInteger:
		return a.str == b.str
	case KindList:
		return slices.EqualFunc(a.list, b.list, Equal)
	case KindDict:
		return slices.EqualFunc(a.dict.entries, b.dict.entries, func(x, y Entry) bool {
			return x.Key == y.Key && Equal(x.Value, y.Value)
		})
	case KindInvalid:
		return true
	}

	return false
}

// Import returns a deep copy of v that shares no memory with its source.
// It's the explicit step for moving a subtree between independently owned documents.
func Import(v Value) Value {
	switch v.kind {
	case KindString, KindInteger:
		return Value{kind: v.kind, str: strings.Clone(v.str)}
	case KindList:
		items := make([]Value, len(v.list))
		for i, item := range v.list {
			items[i] = Import(item)
		}
		return Value{kind: KindList, list: items}
	case KindDict:
		entries := make([]Entry, len(v.dict.entries))
		for i, e := range v.dict.entries {
			entries[i] = Entry{Key: strings.Clone(e.Key), Value: Import(e.Value)}
		}
		return Dict{entries: entries}.Value()
	case KindInvalid:
	}

	panic("bencode: import invalid value")
}

func mustValid(v Value) {
	if v.kind == KindInvalid {
		panic("bencode: attach invalid value")
	}
}

// canonicalInteger validates an optionally signed decimal numeral and returns its canonical form.
func canonicalInteger(s string) (string, bool) {
	body := s
	neg := false
	if len(body) != 0 && (body[0] == '-' || body[0] == '+') {
		neg = body[0] == '-'
		body = body[1:]
	}

	if len(body) == 0 {
		return "", false
	}

	for i := 0; i < len(body); i++ {
		if body[i] < '0' || body[i] > '9' {
			return "", false
		}
	}

	body = strings.TrimLeft(body, "0")
	if body == "" {
		return "0", true
	}

	if neg {
		return "-" + body, true
	}

	return body, true
}

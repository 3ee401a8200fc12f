// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package bencode

// Kind is the type of one bencode node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInteger
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindInvalid:
	}

	return "invalid"
}

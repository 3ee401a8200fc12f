// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package bencode

import (
	"slices"
	"strings"
)

// DictBuilder is a mutable dictionary used to assemble an immutable Dict.
type DictBuilder struct {
	m map[string]Value
}

func NewDictBuilder() *DictBuilder {
	return &DictBuilder{m: make(map[string]Value)}
}

// Builder returns a DictBuilder seeded with d's entries.
func (d Dict) Builder() *DictBuilder {
	m := make(map[string]Value, len(d.entries))
	for _, e := range d.entries {
		m[e.Key] = e.Value
	}

	return &DictBuilder{m: m}
}

func (b *DictBuilder) Set(key string, v Value) *DictBuilder {
	mustKey(key)
	mustValid(v)
	b.m[key] = v
	return b
}

func (b *DictBuilder) Delete(key string) *DictBuilder {
	delete(b.m, key)
	return b
}

func (b *DictBuilder) Get(key string) (Value, bool) {
	v, ok := b.m[key]
	return v, ok
}

func (b *DictBuilder) Len() int {
	return len(b.m)
}

// Build returns the current content as a Dict. b stays usable.
func (b *DictBuilder) Build() Dict {
	entries := make([]Entry, 0, len(b.m))
	for k, v := range b.m {
		entries = append(entries, Entry{Key: k, Value: v})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Key, b.Key)
	})

	return Dict{entries: entries}
}

// ListBuilder is a mutable list used to assemble an immutable list Value.
type ListBuilder struct {
	items []Value
}

func NewListBuilder(capacity int) *ListBuilder {
	return &ListBuilder{items: make([]Value, 0, capacity)}
}

func (b *ListBuilder) Append(items ...Value) *ListBuilder {
	for _, item := range items {
		mustValid(item)
	}

	b.items = append(b.items, items...)
	return b
}

func (b *ListBuilder) Len() int {
	return len(b.items)
}

func (b *ListBuilder) Build() Value {
	return Value{kind: KindList, list: slices.Clone(b.items)}
}

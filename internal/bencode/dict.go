// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package bencode

import (
	"slices"
	"strings"
)

type Entry struct {
	Key   string
	Value Value
}

// Dict is an immutable dictionary.
// Keys are raw byte strings, unique and always kept in ascending byte-wise order,
// which is the order they're encoded in.
type Dict struct {
	entries []Entry
}

// NewDict creates a Dict from entries in any order, on duplicate keys the last one wins.
func NewDict(entries ...Entry) Dict {
	for _, e := range entries {
		mustKey(e.Key)
		mustValid(e.Value)
	}

	return Dict{entries: normalizeEntries(slices.Clone(entries))}
}

func (d Dict) Value() Value {
	return Value{kind: KindDict, dict: d}
}

func (d Dict) Len() int {
	return len(d.entries)
}

func (d Dict) Get(key string) (Value, bool) {
	i, found := d.search(key)
	if !found {
		return Value{}, false
	}

	return d.entries[i].Value, true
}

func (d Dict) Has(key string) bool {
	_, found := d.search(key)
	return found
}

// Keys returns keys in encoding order.
func (d Dict) Keys() []string {
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}

	return keys
}

func (d Dict) Entries() []Entry {
	return slices.Clone(d.entries)
}

// Range calls fn for each entry in key order until fn returns false.
func (d Dict) Range(fn func(key string, v Value) bool) {
	for _, e := range d.entries {
		if !fn(e.Key, e.Value) {
			return
		}
	}
}

// Set returns a copy of d with key set to v.
func (d Dict) Set(key string, v Value) Dict {
	mustKey(key)
	mustValid(v)

	i, found := d.search(key)
	if found {
		entries := slices.Clone(d.entries)
		entries[i].Value = v
		return Dict{entries: entries}
	}

	entries := make([]Entry, 0, len(d.entries)+1)
	entries = append(entries, d.entries[:i]...)
	entries = append(entries, Entry{Key: key, Value: v})
	entries = append(entries, d.entries[i:]...)

	return Dict{entries: entries}
}

// Delete returns a copy of d without key. d itself is returned if key is absent.
func (d Dict) Delete(key string) Dict {
	i, found := d.search(key)
	if !found {
		return d
	}

	entries := make([]Entry, 0, len(d.entries)-1)
	entries = append(entries, d.entries[:i]...)
	entries = append(entries, d.entries[i+1:]...)

	return Dict{entries: entries}
}

func (d Dict) search(key string) (int, bool) {
	return slices.BinarySearchFunc(d.entries, key, func(e Entry, k string) int {
		return strings.Compare(e.Key, k)
	})
}

// normalizeEntries sorts entries by key and keeps the last of each duplicated key.
func normalizeEntries(entries []Entry) []Entry {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Key, b.Key)
	})

	out := entries[:0]
	for i, e := range entries {
		if i+1 < len(entries) && entries[i+1].Key == e.Key {
			continue
		}
		out = append(out, e)
	}

	return out
}

func mustKey(key string) {
	if key == "" {
		panic("bencode: empty dict key")
	}
}

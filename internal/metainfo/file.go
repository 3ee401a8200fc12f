// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo

import (
	"errors"
	"fmt"
	"path"
	"slices"

	"golang.org/x/text/encoding"

	"tome/internal/bencode"
	"tome/internal/pkg/null"
)

const fieldPathUTF8 = "path.utf-8"

var ErrInvalidPath = errors.New("invalid file path")

// FileEntry is one file of a torrent, the info dictionary itself for single-file torrents.
//
// It's a projection: the setters write through to the owning Torrent.
// Offset of later entries is not updated when a length changes.
type FileEntry struct {
	t *Torrent
	// custom fields requested by the caller that exist on the entry
	Custom map[string]bencode.Value
	MD5Sum null.String
	Path   []string
	Length int64
	// position of the first byte in the concatenated content
	Offset int64
	// position in "files", -1 for single-file torrents
	index int
}

// DisplayPath joins path segments with "/".
func (e *FileEntry) DisplayPath() string {
	return path.Join(e.Path...)
}

func (e *FileEntry) Single() bool {
	return e.index < 0
}

func (e *FileEntry) SetLength(n int64) {
	e.update(func(d bencode.Dict) bencode.Dict {
		return d.Set(fieldLength, bencode.Int(n))
	})
	e.Length = n
}

// SetPath replaces the path, a single-file torrent accepts exactly one segment as its name.
func (e *FileEntry) SetPath(segments ...string) error {
	if len(segments) == 0 || slices.Contains(segments, "") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, segments)
	}

	if e.Single() {
		if len(segments) != 1 {
			return fmt.Errorf("%w: single file torrent can't have nested path %q", ErrInvalidPath, segments)
		}

		if err := e.t.SetName(segments[0]); err != nil {
			return err
		}

		e.Path = []string{segments[0]}
		return nil
	}

	l := bencode.NewListBuilder(len(segments))
	for _, s := range segments {
		v, err := encodeText(s, e.t.enc)
		if err != nil {
			return wrapFieldErr(fieldPath, err)
		}
		l.Append(v)
	}

	e.update(func(d bencode.Dict) bencode.Dict {
		return d.Set(fieldPath, l.Build()).Delete(fieldPathUTF8)
	})
	e.Path = slices.Clone(segments)

	return nil
}

func (e *FileEntry) SetMD5Sum(sum string) {
	e.update(func(d bencode.Dict) bencode.Dict {
		return d.Set(fieldMD5Sum, bencode.Str(sum))
	})
	e.MD5Sum = null.NewString(sum)
}

func (e *FileEntry) SetCustom(key string, v bencode.Value) {
	e.update(func(d bencode.Dict) bencode.Dict {
		return d.Set(key, v)
	})

	if e.Custom == nil {
		e.Custom = make(map[string]bencode.Value)
	}
	e.Custom[key] = v
}

func (e *FileEntry) DeleteCustom(key string) {
	e.update(func(d bencode.Dict) bencode.Dict {
		return d.Delete(key)
	})
	delete(e.Custom, key)
}

func (e *FileEntry) update(fn func(d bencode.Dict) bencode.Dict) {
	if e.Single() {
		e.t.updateInfo(fn)
		return
	}

	e.t.updateInfo(func(info bencode.Dict) bencode.Dict {
		v, _ := info.Get(fieldFiles)
		files, _ := v.AsList()
		if e.index >= len(files) {
			panic(fmt.Sprintf("metainfo: file entry %d is out of range", e.index))
		}

		d, _ := files[e.index].AsDict()
		files[e.index] = fn(d).Value()

		return info.Set(fieldFiles, bencode.List(files...))
	})
}

// Files returns all files in torrent order.
func (t *Torrent) Files() ([]FileEntry, error) {
	return t.SearchFiles(SearchOptions{})
}

// walkFiles calls fn for every file entry in order, fn may stop the walk by returning false.
func (t *Torrent) walkFiles(customKeys []string, fn func(e FileEntry) bool) error {
	info, err := t.requireInfo()
	if err != nil {
		return err
	}

	v, ok := info.Get(fieldFiles)
	if !ok {
		e, err := t.singleEntry(info, customKeys)
		if err != nil {
			return err
		}

		fn(e)
		return nil
	}

	files, ok := v.AsList()
	if !ok {
		return &bencode.TypeError{Key: fieldFiles, Want: bencode.KindList, Got: v.Kind()}
	}

	var offset int64
	for i, f := range files {
		d, ok := f.AsDict()
		if !ok {
			return &bencode.TypeError{Key: fieldFiles, Want: bencode.KindDict, Got: f.Kind()}
		}

		e, err := t.fileEntry(d, i, customKeys)
		if err != nil {
			return fmt.Errorf("file %d: %w", i, err)
		}

		e.Offset = offset
		offset += e.Length

		if !fn(e) {
			return nil
		}
	}

	return nil
}

func (t *Torrent) singleEntry(info bencode.Dict, customKeys []string) (FileEntry, error) {
	name, err := t.bestName(info)
	if err != nil {
		return FileEntry{}, err
	}

	length, err := getInt(info, fieldLength)
	if err != nil {
		return FileEntry{}, err
	}

	if !length.Set {
		return FileEntry{}, fmt.Errorf("info has neither %q nor %q", fieldLength, fieldFiles)
	}

	md5sum, err := getText(info, fieldMD5Sum, nil)
	if err != nil {
		return FileEntry{}, err
	}

	return FileEntry{
		t:      t,
		index:  -1,
		Path:   []string{name},
		Length: length.Value,
		MD5Sum: md5sum,
		Custom: pickCustom(info, customKeys),
	}, nil
}

func (t *Torrent) fileEntry(d bencode.Dict, index int, customKeys []string) (FileEntry, error) {
	length, err := getInt(d, fieldLength)
	if err != nil {
		return FileEntry{}, err
	}

	if !length.Set {
		return FileEntry{}, fmt.Errorf("missing %q", fieldLength)
	}

	segments, err := t.bestPath(d)
	if err != nil {
		return FileEntry{}, err
	}

	md5sum, err := getText(d, fieldMD5Sum, nil)
	if err != nil {
		return FileEntry{}, err
	}

	return FileEntry{
		t:      t,
		index:  index,
		Path:   segments,
		Length: length.Value,
		MD5Sum: md5sum,
		Custom: pickCustom(d, customKeys),
	}, nil
}

// bestPath prefers "path.utf-8" over "path" in the torrent's text encoding.
func (t *Torrent) bestPath(d bencode.Dict) ([]string, error) {
	if v, ok := d.Get(fieldPathUTF8); ok {
		if segments, err := textList(v, nil); err == nil && len(segments) != 0 {
			return segments, nil
		}
	}

	v, ok := d.Get(fieldPath)
	if !ok {
		return nil, fmt.Errorf("missing %q", fieldPath)
	}

	segments, err := textList(v, t.enc)
	if err != nil {
		return nil, wrapFieldErr(fieldPath, err)
	}

	return segments, nil
}

func (t *Torrent) bestName(info bencode.Dict) (string, error) {
	if v, ok := info.Get(fieldName + ".utf-8"); ok {
		if s, ok := v.AsString(); ok && s != "" {
			return s, nil
		}
	}

	name, err := getText(info, fieldName, t.enc)
	if err != nil {
		return "", err
	}

	return name.Value, nil
}

// BestName returns "name.utf-8" if present, otherwise "name".
func (t *Torrent) BestName() (string, error) {
	info, err := t.Info()
	if err != nil {
		return "", err
	}

	return t.bestName(info)
}

func textList(v bencode.Value, enc encoding.Encoding) ([]string, error) {
	items, ok := v.AsList()
	if !ok {
		return nil, &bencode.TypeError{Want: bencode.KindList, Got: v.Kind()}
	}

	out := make([]string, len(items))
	for i, item := range items {
		s, err := item.Text(enc)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}

	return out, nil
}

func pickCustom(d bencode.Dict, keys []string) map[string]bencode.Value {
	if len(keys) == 0 {
		return nil
	}

	m := make(map[string]bencode.Value, len(keys))
	for _, key := range keys {
		if v, ok := d.Get(key); ok {
			m[key] = v
		}
	}

	return m
}

// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dchest/uniuri"
	"github.com/trim21/errgo"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"tome/internal/bencode"
)

// Epoch is the instant "creation date" seconds are counted from.
// Historical files use the Unix epoch, a Torrent may override it with SetEpoch.
var Epoch = time.Unix(0, 0).UTC()

// Torrent is a typed view over a decoded metainfo dictionary.
//
// Getters return an unset null value for absent fields and a *bencode.TypeError
// when the field holds the wrong kind. Setters replace the underlying tree,
// a Torrent must not be used from multiple goroutines at the same time.
type Torrent struct {
	epoch time.Time
	enc   encoding.Encoding
	root  bencode.Dict
}

// New returns an empty torrent with an empty info dictionary.
func New() *Torrent {
	t := &Torrent{epoch: Epoch}
	t.setInfo(bencode.Dict{})
	return t
}

func FromValue(v bencode.Value) (*Torrent, error) {
	d, ok := v.AsDict()
	if !ok {
		return nil, &bencode.TypeError{Want: bencode.KindDict, Got: v.Kind()}
	}

	return &Torrent{root: d, epoch: Epoch}, nil
}

// Load a Torrent from an io.Reader. Returns a non-nil error in case of failure.
func Load(r io.Reader, opts ...bencode.DecodeOption) (*Torrent, error) {
	v, err := bencode.NewDecoder(r, opts...).Decode()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errgo.Wrap(io.ErrUnexpectedEOF, "empty torrent file")
		}

		return nil, errgo.Wrap(err, "failed to decode torrent")
	}

	return FromValue(v)
}

func LoadFromFile(filename string, opts ...bencode.DecodeOption) (*Torrent, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var buf bufio.Reader
	buf.Reset(f)
	return Load(&buf, opts...)
}

// Root returns the whole metainfo tree.
func (t *Torrent) Root() bencode.Value {
	return t.root.Value()
}

// Info returns the info dictionary, an empty Dict if it's absent.
func (t *Torrent) Info() (bencode.Dict, error) {
	v, ok := t.root.Get(fieldInfo)
	if !ok {
		return bencode.Dict{}, nil
	}

	d, ok := v.AsDict()
	if !ok {
		return bencode.Dict{}, &bencode.TypeError{Key: fieldInfo, Want: bencode.KindDict, Got: v.Kind()}
	}

	return d, nil
}

// info is Info for writers, a malformed info value is replaced.
func (t *Torrent) info() bencode.Dict {
	d, _ := t.Info()
	return d
}

func (t *Torrent) setInfo(d bencode.Dict) {
	t.root = t.root.Set(fieldInfo, d.Value())
}

func (t *Torrent) updateInfo(fn func(info bencode.Dict) bencode.Dict) {
	t.setInfo(fn(t.info()))
}

// Get returns a raw top level field.
func (t *Torrent) Get(key string) (bencode.Value, bool) {
	return t.root.Get(key)
}

// Set stores a raw top level field.
func (t *Torrent) Set(key string, v bencode.Value) {
	t.root = t.root.Set(key, v)
}

// Delete removes a top level field.
func (t *Torrent) Delete(key string) {
	t.root = t.root.Delete(key)
}

// GetInfo returns a raw field of the info dictionary.
func (t *Torrent) GetInfo(key string) (bencode.Value, bool) {
	return t.info().Get(key)
}

// SetInfo stores a raw field in the info dictionary.
func (t *Torrent) SetInfo(key string, v bencode.Value) {
	t.updateInfo(func(info bencode.Dict) bencode.Dict {
		return info.Set(key, v)
	})
}

// DeleteInfo removes a field from the info dictionary.
func (t *Torrent) DeleteInfo(key string) {
	t.updateInfo(func(info bencode.Dict) bencode.Dict {
		return info.Delete(key)
	})
}

// SetTextEncoding selects the character encoding of text fields, nil means UTF-8.
func (t *Torrent) SetTextEncoding(enc encoding.Encoding) {
	if enc == unicode.UTF8 {
		enc = nil
	}
	t.enc = enc
}

func (t *Torrent) TextEncoding() encoding.Encoding {
	if t.enc == nil {
		return unicode.UTF8
	}
	return t.enc
}

// DeclaredEncoding resolves the "encoding" field to a character encoding.
// It returns nil if the field is absent.
func (t *Torrent) DeclaredEncoding() (encoding.Encoding, error) {
	name, err := t.Encoding()
	if err != nil || !name.Set {
		return nil, err
	}

	enc, err := htmlindex.Get(strings.TrimSpace(name.Value))
	if err != nil {
		return nil, errgo.Wrap(err, fmt.Sprintf("unsupported encoding %q", name.Value))
	}

	return enc, nil
}

// SetEpoch changes the anchor of "creation date" for this torrent.
func (t *Torrent) SetEpoch(epoch time.Time) {
	t.epoch = epoch
}

func (t *Torrent) Epoch() time.Time {
	return t.epoch
}

// Write the canonical encoding of the torrent to w.
func (t *Torrent) Write(w io.Writer) error {
	return bencode.NewEncoder(w).Encode(t.root.Value())
}

type SaveOptions struct {
	// stored as "created by" when not empty
	CreatedBy string
	// stored as "creation date" when not zero
	CreationDate time.Time
	// store the hex info hash as "hash"
	IncludeHash bool
}

// Save stamps the fields selected by opts and writes the torrent.
func (t *Torrent) Save(w io.Writer, opts SaveOptions) error {
	if opts.CreatedBy != "" {
		if err := t.SetCreatedBy(opts.CreatedBy); err != nil {
			return err
		}
	}

	if !opts.CreationDate.IsZero() {
		t.SetCreationDate(opts.CreationDate)
	}

	if opts.IncludeHash {
		h, err := t.InfoHash()
		if err != nil {
			return err
		}

		t.root = t.root.Set(fieldHash, bencode.Str(h.Hex()))
	}

	return t.Write(w)
}

// SaveFile writes the torrent to filename through a temporary file in the same directory.
func (t *Torrent) SaveFile(filename string, opts SaveOptions) error {
	tmp := filename + "." + uniuri.NewLen(8) + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return errgo.Wrap(err, "failed to create torrent file")
	}

	w := bufio.NewWriter(f)
	if err = t.Save(w, opts); err == nil {
		err = w.Flush()
	}

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp)
		return errgo.Wrap(err, "failed to write torrent file")
	}

	return os.Rename(tmp, filename)
}

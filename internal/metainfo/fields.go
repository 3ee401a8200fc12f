// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo

import (
	"errors"
	"fmt"
	"time"

	"github.com/trim21/errgo"
	"golang.org/x/text/encoding"

	"tome/internal/bencode"
	"tome/internal/pkg/null"
)

const (
	fieldAnnounce     = "announce"
	fieldAnnounceList = "announce-list"
	fieldComment      = "comment"
	fieldCreatedBy    = "created by"
	fieldCreationDate = "creation date"
	fieldEncoding     = "encoding"
	fieldNodes        = "nodes"
	fieldHash         = "hash"
	fieldInfo         = "info"

	fieldName         = "name"
	fieldPieceLength  = "piece length"
	fieldPieces       = "pieces"
	fieldPrivate      = "private"
	fieldLength       = "length"
	fieldFiles        = "files"
	fieldPath         = "path"
	fieldMD5Sum       = "md5sum"
	fieldPublisher    = "publisher"
	fieldPublisherURL = "publisher-url"
)

func wrapFieldErr(key string, err error) error {
	var te *bencode.TypeError
	if errors.As(err, &te) && te.Key == "" {
		return &bencode.TypeError{Key: key, Want: te.Want, Got: te.Got}
	}

	return errgo.Wrap(err, fmt.Sprintf("invalid field %q", key))
}

func encodeText(s string, enc encoding.Encoding) (bencode.Value, error) {
	if enc == nil {
		return bencode.Str(s), nil
	}

	raw, err := enc.NewEncoder().String(s)
	if err != nil {
		return bencode.Value{}, err
	}

	return bencode.Str(raw), nil
}

func getText(d bencode.Dict, key string, enc encoding.Encoding) (null.String, error) {
	v, ok := d.Get(key)
	if !ok {
		return null.String{}, nil
	}

	s, err := v.Text(enc)
	if err != nil {
		return null.String{}, wrapFieldErr(key, err)
	}

	return null.NewString(s), nil
}

func getInt(d bencode.Dict, key string) (null.Int64, error) {
	v, ok := d.Get(key)
	if !ok {
		return null.Int64{}, nil
	}

	i, err := v.Int64()
	if err != nil {
		return null.Int64{}, wrapFieldErr(key, err)
	}

	return null.NewInt64(i), nil
}

func getRaw(d bencode.Dict, key string) ([]byte, error) {
	v, ok := d.Get(key)
	if !ok {
		return nil, nil
	}

	b, ok := v.Bytes()
	if !ok {
		return nil, &bencode.TypeError{Key: key, Want: bencode.KindString, Got: v.Kind()}
	}

	return b, nil
}

func (t *Torrent) rootText(key string) (null.String, error) {
	return getText(t.root, key, t.enc)
}

func (t *Torrent) setRootText(key, value string) error {
	v, err := encodeText(value, t.enc)
	if err != nil {
		return wrapFieldErr(key, err)
	}

	t.root = t.root.Set(key, v)
	return nil
}

func (t *Torrent) infoText(key string) (null.String, error) {
	info, err := t.Info()
	if err != nil {
		return null.String{}, err
	}

	return getText(info, key, t.enc)
}

func (t *Torrent) infoInt(key string) (null.Int64, error) {
	info, err := t.Info()
	if err != nil {
		return null.Int64{}, err
	}

	return getInt(info, key)
}

func (t *Torrent) setInfoText(key, value string) error {
	v, err := encodeText(value, t.enc)
	if err != nil {
		return wrapFieldErr(key, err)
	}

	t.SetInfo(key, v)
	return nil
}

func (t *Torrent) Announce() (null.String, error) {
	return t.rootText(fieldAnnounce)
}

func (t *Torrent) SetAnnounce(url string) error {
	return t.setRootText(fieldAnnounce, url)
}

// AnnounceList returns nil when the field is absent.
func (t *Torrent) AnnounceList() (AnnounceList, error) {
	v, ok := t.root.Get(fieldAnnounceList)
	if !ok {
		return nil, nil
	}

	return announceListFromValue(v, t.enc)
}

func (t *Torrent) SetAnnounceList(al AnnounceList) error {
	v, err := al.toValue(t.enc)
	if err != nil {
		return err
	}

	t.root = t.root.Set(fieldAnnounceList, v)
	return nil
}

// UpvertedAnnounceList returns announce-list, or announce as a single tier.
func (t *Torrent) UpvertedAnnounceList() (AnnounceList, error) {
	al, err := t.AnnounceList()
	if err != nil {
		return nil, err
	}

	announce, err := t.Announce()
	if err != nil {
		return nil, err
	}

	if al.OverridesAnnounce(announce.Value) {
		return al, nil
	}

	if announce.Value != "" {
		return AnnounceList{{announce.Value}}, nil
	}

	return nil, nil
}

func (t *Torrent) Comment() (null.String, error) {
	return t.rootText(fieldComment)
}

func (t *Torrent) SetComment(comment string) error {
	return t.setRootText(fieldComment, comment)
}

func (t *Torrent) CreatedBy() (null.String, error) {
	return t.rootText(fieldCreatedBy)
}

func (t *Torrent) SetCreatedBy(createdBy string) error {
	return t.setRootText(fieldCreatedBy, createdBy)
}

// CreationDate returns "creation date" as seconds after the torrent's epoch.
func (t *Torrent) CreationDate() (null.Time, error) {
	sec, err := getInt(t.root, fieldCreationDate)
	if err != nil || !sec.Set {
		return null.Time{}, err
	}

	return null.New(time.Unix(t.epoch.Unix()+sec.Value, 0).UTC()), nil
}

func (t *Torrent) SetCreationDate(date time.Time) {
	t.root = t.root.Set(fieldCreationDate, bencode.Int(date.Unix()-t.epoch.Unix()))
}

// Encoding returns the "encoding" field, the declared charset of text fields.
func (t *Torrent) Encoding() (null.String, error) {
	return getText(t.root, fieldEncoding, nil)
}

func (t *Torrent) SetEncoding(name string) {
	t.root = t.root.Set(fieldEncoding, bencode.Str(name))
}

// HashHex returns the "hash" field written by Save.
func (t *Torrent) HashHex() (null.String, error) {
	return getText(t.root, fieldHash, nil)
}

func (t *Torrent) Name() (null.String, error) {
	return t.infoText(fieldName)
}

func (t *Torrent) SetName(name string) error {
	return t.setInfoText(fieldName, name)
}

func (t *Torrent) PieceLength() (null.Int64, error) {
	return t.infoInt(fieldPieceLength)
}

func (t *Torrent) SetPieceLength(n int64) {
	t.SetInfo(fieldPieceLength, bencode.Int(n))
}

// Pieces returns the raw concatenated piece hashes, nil when absent.
func (t *Torrent) Pieces() ([]byte, error) {
	info, err := t.Info()
	if err != nil {
		return nil, err
	}

	return getRaw(info, fieldPieces)
}

func (t *Torrent) Private() (null.Bool, error) {
	i, err := t.infoInt(fieldPrivate)
	if err != nil || !i.Set {
		return null.Bool{}, err
	}

	return null.NewBool(i.Value != 0), nil
}

func (t *Torrent) SetPrivate(private bool) {
	var v int64
	if private {
		v = 1
	}

	t.SetInfo(fieldPrivate, bencode.Int(v))
}

// Length is the file length of a single-file torrent.
func (t *Torrent) Length() (null.Int64, error) {
	return t.infoInt(fieldLength)
}

// MD5Sum of a single-file torrent.
func (t *Torrent) MD5Sum() (null.String, error) {
	info, err := t.Info()
	if err != nil {
		return null.String{}, err
	}

	return getText(info, fieldMD5Sum, nil)
}

func (t *Torrent) SetMD5Sum(sum string) {
	t.SetInfo(fieldMD5Sum, bencode.Str(sum))
}

func (t *Torrent) Publisher() (null.String, error) {
	return t.infoText(fieldPublisher)
}

func (t *Torrent) SetPublisher(publisher string) error {
	return t.setInfoText(fieldPublisher, publisher)
}

func (t *Torrent) PublisherURL() (null.String, error) {
	return t.infoText(fieldPublisherURL)
}

func (t *Torrent) SetPublisherURL(url string) error {
	return t.setInfoText(fieldPublisherURL, url)
}

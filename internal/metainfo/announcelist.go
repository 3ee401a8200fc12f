// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo

import (
	"slices"

	"golang.org/x/text/encoding"

	"tome/internal/bencode"
)

// AnnounceList is the BEP 12 "announce-list", a list of tracker tiers.
type AnnounceList [][]string

func (al AnnounceList) Clone() AnnounceList {
	out := make(AnnounceList, len(al))
	for i, tier := range al {
		out[i] = slices.Clone(tier)
	}

	return out
}

func (al AnnounceList) OverridesAnnounce(announce string) bool {
	for _, tier := range al {
		for _, url := range tier {
			if url != "" || announce == "" {
				return true
			}
		}
	}
	return false
}

func announceListFromValue(v bencode.Value, enc encoding.Encoding) (AnnounceList, error) {
	tiers, ok := v.AsList()
	if !ok {
		return nil, &bencode.TypeError{Key: fieldAnnounceList, Want: bencode.KindList, Got: v.Kind()}
	}

	al := make(AnnounceList, 0, len(tiers))
	for _, tier := range tiers {
		urls, ok := tier.AsList()
		if !ok {
			return nil, &bencode.TypeError{Key: fieldAnnounceList, Want: bencode.KindList, Got: tier.Kind()}
		}

		t := make([]string, 0, len(urls))
		for _, u := range urls {
			s, err := u.Text(enc)
			if err != nil {
				return nil, wrapFieldErr(fieldAnnounceList, err)
			}
			t = append(t, s)
		}

		al = append(al, t)
	}

	return al, nil
}

func (al AnnounceList) toValue(enc encoding.Encoding) (bencode.Value, error) {
	tiers := bencode.NewListBuilder(len(al))
	for _, tier := range al {
		urls := bencode.NewListBuilder(len(tier))
		for _, url := range tier {
			v, err := encodeText(url, enc)
			if err != nil {
				return bencode.Value{}, wrapFieldErr(fieldAnnounceList, err)
			}
			urls.Append(v)
		}

		tiers.Append(urls.Build())
	}

	return tiers.Build(), nil
}

// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package metainfo

import (
	"fmt"
	"net"
	"strconv"

	"tome/internal/bencode"
)

// Node is a DHT bootstrap node from the "nodes" field.
type Node struct {
	Host string
	Port int
}

func (n Node) String() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

// Nodes returns nil when the field is absent.
func (t *Torrent) Nodes() ([]Node, error) {
	v, ok := t.root.Get(fieldNodes)
	if !ok {
		return nil, nil
	}

	items, ok := v.AsList()
	if !ok {
		return nil, &bencode.TypeError{Key: fieldNodes, Want: bencode.KindList, Got: v.Kind()}
	}

	nodes := make([]Node, 0, len(items))
	for i, item := range items {
		pair, ok := item.AsList()
		if !ok {
			return nil, &bencode.TypeError{Key: fieldNodes, Want: bencode.KindList, Got: item.Kind()}
		}

		if len(pair) != 2 {
			return nil, fmt.Errorf("node %d has %d elements, expecting [host, port]", i, len(pair))
		}

		host, ok := pair[0].AsString()
		if !ok {
			return nil, &bencode.TypeError{Key: fieldNodes, Want: bencode.KindString, Got: pair[0].Kind()}
		}

		port, err := pair[1].Int64()
		if err != nil {
			return nil, wrapFieldErr(fieldNodes, err)
		}

		if port < 0 || port > 65535 {
			return nil, fmt.Errorf("node %d has invalid port %d", i, port)
		}

		nodes = append(nodes, Node{Host: host, Port: int(port)})
	}

	return nodes, nil
}

func (t *Torrent) SetNodes(nodes []Node) {
	l := bencode.NewListBuilder(len(nodes))
	for _, n := range nodes {
		l.Append(bencode.List(bencode.Str(n.Host), bencode.Int(int64(n.Port))))
	}

	t.root = t.root.Set(fieldNodes, l.Build())
}

// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

//go:build !release

// Package assert panics on broken internal invariants. Checks compile to nothing with the release tag.
package assert

func panicMessage(msg []string) {
	if len(msg) == 0 {
		panic("assert failed")
	}

	panic(msg[0])
}

func Equal[T comparable](v1, v2 T, msg ...string) {
	if v1 != v2 {
		panicMessage(msg)
	}
}

func NotEqual[T comparable](v1, v2 T, msg ...string) {
	if v1 == v2 {
		panicMessage(msg)
	}
}

// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package null

// FromZero treats the zero value of T as unset.
func FromZero[T comparable](v T) Null[T] {
	var zero T
	if v == zero {
		return Null[T]{}
	}

	return New(v)
}

// Or returns the first set value.
func Or[T any](values ...Null[T]) Null[T] {
	for _, v := range values {
		if v.Set {
			return v
		}
	}

	return Null[T]{}
}

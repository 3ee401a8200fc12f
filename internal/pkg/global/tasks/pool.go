// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package tasks

import (
	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
)

var pool = lo.Must(ants.NewPool(20, ants.WithPreAlloc(true)))

// Submit runs fn on the shared background pool, it blocks while all workers are busy.
func Submit(fn func()) error {
	return pool.Submit(fn)
}

// Running returns the number of busy workers.
func Running() int {
	return pool.Running()
}

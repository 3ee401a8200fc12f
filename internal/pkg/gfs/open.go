// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package gfs

import (
	"os"

	"github.com/rs/zerolog/log"
)

// OpenSequential opens name for reading and hints the kernel that it will be read once from start to end.
func OpenSequential(name string) (*os.File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	if err := adviseSequential(f); err != nil {
		log.Trace().Err(err).Str("file", name).Msg("failed to set read advice")
	}

	return f, nil
}

// Copyright 2024 trim21 <trim21.me@gmail.com>
// SPDX-License-Identifier: GPL-3.0-only

package global

import "fmt"

// set with -ldflags "-X tome/internal/pkg/global.MAJOR=1" in release builds.
var (
	MAJOR = "0"
	MINOR = "0"
	PATCH = "0"
)

// CreatedBy is the default "created by" value of new torrents.
func CreatedBy() string {
	if Dev {
		return fmt.Sprintf("tome/%s.%s.%s-dev", MAJOR, MINOR, PATCH)
	}

	return fmt.Sprintf("tome/%s.%s.%s", MAJOR, MINOR, PATCH)
}

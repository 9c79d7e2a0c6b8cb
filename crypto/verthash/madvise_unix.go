// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build linux || darwin || freebsd || netbsd || openbsd

package verthash

import "golang.org/x/sys/unix"

// adviseRandom informs the kernel the mapped data file is accessed randomly so
// it does not waste effort reading ahead.
func adviseRandom(b []byte) error {
	return unix.Madvise(b, unix.MADV_RANDOM)
}

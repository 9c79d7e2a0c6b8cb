// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package verthash implements the Verthash proof-of-work hash and the
proof-of-space data file it reads from.

Verthash is a memory hard hash.  Every hash performs 4096 pseudorandom reads of
32 bytes from a data file of roughly 1.2 GiB, so hashing is bound by the speed
of the storage holding the data file rather than by computation.

# Data File

The data file is deterministically generated from a fixed seed by hashing the
nodes of a depth robust graph with SHA3-256.  CreateDatFile writes it to a
temporary file that is only renamed into place once generation completes, and a
lock file ensures at most one generation runs at a time.  The SHA-256 digest of
the data file is checked against the digest in the chain parameters when it is
opened.

# Load Modes

The data file may be loaded entirely into memory, mapped into the address space,
or read from disk on every hash.  All modes produce identical hashes.

# Errors

Errors returned by this package are of type verthash.Error and have full support
for errors.Is and errors.As so the caller can check against an ErrorKind.
*/
package verthash

// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verthash

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrDatFileMissing indicates the data file does not exist.
	ErrDatFileMissing = ErrorKind("ErrDatFileMissing")

	// ErrDatFileCorrupt indicates the digest of the data file does not
	// match the expected digest.
	ErrDatFileCorrupt = ErrorKind("ErrDatFileCorrupt")

	// ErrDatFileTooSmall indicates the data file is too small to be read
	// by the hash.
	ErrDatFileTooSmall = ErrorKind("ErrDatFileTooSmall")

	// ErrInvalidHeaderSize indicates the input to the hash is not a
	// serialized block header.
	ErrInvalidHeaderSize = ErrorKind("ErrInvalidHeaderSize")

	// ErrInvalidLoadMode indicates an unknown data file load mode.
	ErrInvalidLoadMode = ErrorKind("ErrInvalidLoadMode")

	// ErrInvalidGraphIndex indicates a data file generation graph index
	// outside of the supported range.
	ErrInvalidGraphIndex = ErrorKind("ErrInvalidGraphIndex")

	// ErrClosed indicates the hasher was used after it was closed.
	ErrClosed = ErrorKind("ErrClosed")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies an error related to the Verthash data file or hash.  It
// has full support for errors.Is and errors.As, so the caller can ascertain
// the specific reason for the error by checking the underlying error.
type Error struct {
	Description string
	Err         error
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// makeError creates an Error given a set of arguments.
func makeError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}

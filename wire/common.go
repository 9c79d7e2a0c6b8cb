// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2025 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"

	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
)

// binaryFreeListMaxItems is the number of buffers to keep in the free list to
// use for binary serialization and deserialization.
const binaryFreeListMaxItems = 1024

// littleEndian is a convenience variable since binary.LittleEndian is quite
// long.
var littleEndian = binary.LittleEndian

// binaryFreeList defines a concurrent safe free list of byte slices (up to the
// maximum number defined by the binaryFreeListMaxItems constant) that have a
// cap of 8 (thus it supports up to a uint64).  It is used to provide temporary
// buffers for serializing and deserializing primitive numbers to and from their
// binary encoding in order to greatly reduce the number of allocations
// required.
type binaryFreeList chan []byte

// Borrow returns a byte slice from the free list with a length of 8.  A new
// buffer is allocated if there are not any available on the free list.
func (l binaryFreeList) Borrow() []byte {
	var buf []byte
	select {
	case buf = <-l:
	default:
		buf = make([]byte, 8)
	}
	return buf[:8]
}

// Return puts the provided byte slice back on the free list.  The buffer MUST
// have been obtained via the Borrow function and therefore have a cap of 8.
func (l binaryFreeList) Return(buf []byte) {
	select {
	case l <- buf:
	default:
		// Let it go to the garbage collector.
	}
}

// binarySerializer provides a free list of buffers to use for serializing and
// deserializing primitive integer values to and from io.Readers and io.Writers.
var binarySerializer binaryFreeList = make(chan []byte, binaryFreeListMaxItems)

// uint32Time represents a unix timestamp encoded with a uint32.  It is used as
// a way to signal the readElement function how to decode a timestamp into a Go
// time.Time since it is otherwise ambiguous.
type uint32Time time.Time

// readUint32LE reads the little endian encoding of a uint32 and stores it to
// *value.
func readUint32LE(r io.Reader, value *uint32) error {
	var data [4]byte
	switch r := r.(type) {
	// A *bytes.Reader and *bytes.Buffer are the common cases of readers
	// callers provide when decoding from memory.
	case *bytes.Reader:
		n, _ := r.Read(data[:])
		if n == 0 {
			return io.EOF
		}
		if n != len(data) {
			return io.ErrUnexpectedEOF
		}

	case *bytes.Buffer:
		n, _ := r.Read(data[:])
		if n == 0 {
			return io.EOF
		}
		if n != len(data) {
			return io.ErrUnexpectedEOF
		}

	default:
		p := binarySerializer.Borrow()[:4]
		_, err := io.ReadFull(r, p)
		if err != nil {
			binarySerializer.Return(p)
			return err
		}
		copy(data[:], p)
		binarySerializer.Return(p)
	}

	*value = littleEndian.Uint32(data[:])
	return nil
}

// writeUint32LE writes the little endian encoding of value to the writer.
func writeUint32LE(w io.Writer, value uint32) error {
	// The most common case is that the writer is a *bytes.Buffer.  Optimize
	// for that case by appending to its existing capacity instead of paying
	// the synchronization cost of the free list.
	if buf, ok := w.(*bytes.Buffer); ok {
		var data [4]byte
		littleEndian.PutUint32(data[:], value)
		buf.Write(data[:])
		return nil
	}

	p := binarySerializer.Borrow()[:4]
	littleEndian.PutUint32(p, value)
	_, err := w.Write(p)
	binarySerializer.Return(p)
	return err
}

// readElement reads the next sequence of bytes from r using little endian
// depending on the concrete type of element pointed to.
func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *int32:
		var v uint32
		if err := readUint32LE(r, &v); err != nil {
			return err
		}
		*e = int32(v)
		return nil

	case *uint32:
		return readUint32LE(r, e)

	// Unix timestamp encoded as a uint32.
	case *uint32Time:
		var v uint32
		if err := readUint32LE(r, &v); err != nil {
			return err
		}
		*e = uint32Time(time.Unix(int64(v), 0))
		return nil

	case *chainhash.Hash:
		_, err := io.ReadFull(r, e[:])
		return err
	}

	// Fall back to the slower binary.Read if a fast path was not available
	// above.
	return binary.Read(r, littleEndian, element)
}

// readElements reads multiple items from r.  It is equivalent to multiple
// calls to readElement.
func readElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := readElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeElement writes the little endian representation of element to w.
func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case int32:
		return writeUint32LE(w, uint32(e))

	case uint32:
		return writeUint32LE(w, e)

	case uint32Time:
		return writeUint32LE(w, uint32(time.Time(e).Unix()))

	case *chainhash.Hash:
		_, err := w.Write(e[:])
		return err
	}

	// Fall back to the slower binary.Write if a fast path was not available
	// above.
	return binary.Write(w, littleEndian, element)
}

// writeElements writes multiple items to w.  It is equivalent to multiple
// calls to writeElement.
func writeElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := writeElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verthash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math/bits"
	"os"
	"strings"
	"sync"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/crypto/sha3"
)

const (
	// HeaderSize is the size of the serialized block header the hash
	// operates on.
	HeaderSize = 80

	// HashSize is the size of the resulting hash.
	HashSize = 32

	// DatFileName is the conventional name of the data file within a
	// network data directory.
	DatFileName = "verthash.dat"

	p0Size        = 64
	nIter         = 8
	nSubset       = p0Size * nIter
	nRot          = 32
	nIndexes      = 4096
	byteAlignment = 16

	// subsetWords is the number of 32-bit words in the seek subset.
	subsetWords = nSubset / 4

	fnvOffsetBasis = 0x811c9dc5
	fnvPrime       = 0x1000193
)

// fnv1a mixes the two values with a single round of FNV-1a.
func fnv1a(a, b uint32) uint32 {
	return (a ^ b) * fnvPrime
}

// LoadMode specifies how the data file is accessed while hashing.
type LoadMode uint8

// These constants define the supported data file access modes.  All modes
// produce identical hashes.
const (
	// LoadInMemory reads the entire data file into memory.
	LoadInMemory LoadMode = iota

	// LoadMmap maps the data file into the address space and lets the
	// operating system page it in on demand.
	LoadMmap

	// LoadFile reads from the data file for every hash.  It is the slowest
	// mode and uses the least memory.
	LoadFile
)

// loadModeNames maps load modes to the names used in configuration.
var loadModeNames = map[LoadMode]string{
	LoadInMemory: "mem",
	LoadMmap:     "mmap",
	LoadFile:     "file",
}

// String returns the load mode as the name used in configuration.
func (m LoadMode) String() string {
	if name, ok := loadModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Unknown LoadMode (%d)", uint8(m))
}

// ParseLoadMode returns the load mode for the provided configuration name.
func ParseLoadMode(name string) (LoadMode, error) {
	for mode, modeName := range loadModeNames {
		if strings.EqualFold(name, modeName) {
			return mode, nil
		}
	}
	str := fmt.Sprintf("unknown verthash load mode %q (one of: mem, mmap, "+
		"file)", name)
	return 0, makeError(ErrInvalidLoadMode, str)
}

// Options houses the settings used when opening a data file.
type Options struct {
	// Mode is how the data file is accessed while hashing.
	Mode LoadMode

	// Digest is the expected SHA-256 digest of the data file.
	Digest [32]byte

	// SkipVerification disables checking the digest of the data file.
	SkipVerification bool
}

// Verthash computes Verthash proof-of-work hashes over a data file.  It is
// safe for concurrent use by multiple goroutines, however Close must not be
// called while hashes are still being computed.
type Verthash struct {
	// data is the data file image when it is held in memory or mapped.  It
	// is nil when reading from the file.
	data []byte

	mapped mmap.MMap
	file   *os.File
	size   int64
	mdiv   uint32

	closeOnce sync.Once
	closeErr  error
}

// newVerthash returns a hasher for a data file of the provided size.
func newVerthash(size int64) (*Verthash, error) {
	if size < HashSize {
		str := fmt.Sprintf("verthash data file is %d bytes which is less "+
			"than the minimum of %d", size, HashSize)
		return nil, makeError(ErrDatFileTooSmall, str)
	}
	return &Verthash{
		size: size,
		mdiv: uint32((size-HashSize)/byteAlignment) + 1,
	}, nil
}

// New returns a hasher that reads from the provided in-memory data file image.
// The caller must not modify the data while the hasher is in use.
func New(data []byte) (*Verthash, error) {
	v, err := newVerthash(int64(len(data)))
	if err != nil {
		return nil, err
	}
	v.data = data
	return v, nil
}

// missingDatFileError returns an error for a data file that does not exist
// which tells the operator how to obtain one.
func missingDatFileError(path string) error {
	str := fmt.Sprintf("verthash data file %s does not exist: generate it "+
		"by running with --genverthash or copy an existing %s into place",
		path, DatFileName)
	return makeError(ErrDatFileMissing, str)
}

// Open loads the data file at the provided path according to the options.
// The digest of the data file is verified unless disabled.  A nil options
// value is the same as the zero value.
func Open(path string, opts *Options) (*Verthash, error) {
	if opts == nil {
		opts = &Options{}
	}
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, missingDatFileError(path)
		}
		return nil, err
	}
	v, err := newVerthash(fi.Size())
	if err != nil {
		return nil, err
	}

	switch opts.Mode {
	case LoadInMemory:
		log.Infof("Loading verthash data file %s into memory", path)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if int64(len(data)) != v.size {
			return nil, fmt.Errorf("verthash data file %s changed size "+
				"while loading", path)
		}
		if !opts.SkipVerification {
			if err := verifyDigest(sumBytes(data), opts.Digest); err != nil {
				return nil, err
			}
		}
		v.data = data

	case LoadMmap, LoadFile:
		if !opts.SkipVerification {
			if err := VerifyDatFile(path, opts.Digest); err != nil {
				return nil, err
			}
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		if opts.Mode == LoadFile {
			v.file = f
			break
		}

		m, err := mmap.Map(f, mmap.RDONLY, 0)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("unable to map verthash data file: %w", err)
		}
		if len(m) != int(v.size) {
			m.Unmap()
			return nil, fmt.Errorf("verthash data file %s changed size "+
				"while mapping", path)
		}
		if err := adviseRandom(m); err != nil {
			log.Debugf("Unable to advise random access for %s: %v", path, err)
		}
		v.mapped = m
		v.data = m

	default:
		str := fmt.Sprintf("unknown verthash load mode %d", uint8(opts.Mode))
		return nil, makeError(ErrInvalidLoadMode, str)
	}

	log.Infof("Opened verthash data file %s (%d bytes, mode %v)", path, v.size,
		opts.Mode)
	return v, nil
}

// Size returns the size of the data file in bytes.
func (v *Verthash) Size() int64 {
	return v.size
}

// Close releases the resources held by the hasher.  It is safe to call more
// than once.
func (v *Verthash) Close() error {
	v.closeOnce.Do(func() {
		switch {
		case v.mapped != nil:
			v.closeErr = v.mapped.Unmap()
			v.mapped = nil
		case v.file != nil:
			v.closeErr = v.file.Close()
			v.file = nil
		}
		v.data = nil
	})
	return v.closeErr
}

// chunk returns the hash sized chunk of the data file at the provided offset.
// The scratch buffer is used when reading from the file.
func (v *Verthash) chunk(offset int64, scratch *[HashSize]byte) ([]byte, error) {
	if v.data != nil {
		return v.data[offset : offset+HashSize], nil
	}
	if v.file == nil {
		return nil, makeError(ErrClosed, "verthash hasher is closed")
	}
	if _, err := v.file.ReadAt(scratch[:], offset); err != nil {
		return nil, fmt.Errorf("unable to read verthash data file at "+
			"offset %d: %w", offset, err)
	}
	return scratch[:], nil
}

// Hash computes the Verthash of the provided serialized block header.
func (v *Verthash) Hash(header []byte) ([HashSize]byte, error) {
	var result [HashSize]byte
	if len(header) != HeaderSize {
		str := fmt.Sprintf("verthash input is %d bytes instead of %d",
			len(header), HeaderSize)
		return result, makeError(ErrInvalidHeaderSize, str)
	}

	var input [HeaderSize]byte
	copy(input[:], header)
	p1Bytes := sha3.Sum256(input[:])
	var p1 [HashSize / 4]uint32
	for i := range p1 {
		p1[i] = binary.LittleEndian.Uint32(p1Bytes[i*4:])
	}

	// Derive the seek subset from hashes of the header with its first byte
	// incremented once per iteration.
	var p0 [nSubset]byte
	for i := 0; i < nIter; i++ {
		input[0]++
		sum := sha3.Sum512(input[:])
		copy(p0[i*p0Size:], sum[:])
	}
	var words [subsetWords]uint32
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(p0[i*4:])
	}

	// The seek indexes are the subset followed by each of its successive
	// single bit rotations.
	var seekIndexes [nIndexes]uint32
	for x := 0; x < nRot; x++ {
		copy(seekIndexes[x*subsetWords:], words[:])
		for y := range words {
			words[y] = bits.RotateLeft32(words[y], 1)
		}
	}

	var scratch [HashSize]byte
	acc := uint32(fnvOffsetBasis)
	for _, index := range seekIndexes {
		offset := int64(fnv1a(index, acc)%v.mdiv) * byteAlignment
		chunk, err := v.chunk(offset, &scratch)
		if err != nil {
			return result, err
		}
		for i := range p1 {
			value := binary.LittleEndian.Uint32(chunk[i*4:])
			p1[i] = fnv1a(p1[i], value)
			acc = fnv1a(acc, value)
		}
	}

	for i := range p1 {
		binary.LittleEndian.PutUint32(result[i*4:], p1[i])
	}
	return result, nil
}

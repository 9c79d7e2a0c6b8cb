// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verthash

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/minio/sha256-simd"
	"github.com/vertcoin-project/vtcd/internal/progresslog"
)

// verifyReadSize is the size of the reads performed while hashing the data
// file.
const verifyReadSize = 1 << 20

// sumBytes returns the SHA-256 digest of the provided data file image.
func sumBytes(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// verifyDigest returns an error when the provided digest of a data file does
// not match the expected digest.
func verifyDigest(got, want [32]byte) error {
	if got == want {
		return nil
	}
	str := fmt.Sprintf("verthash data file digest is invalid - got %s, want "+
		"%s", hex.EncodeToString(got[:]), hex.EncodeToString(want[:]))
	return makeError(ErrDatFileCorrupt, str)
}

// progressReader reports the progress of a long read to a progress logger.
type progressReader struct {
	r        io.Reader
	read     uint64
	total    uint64
	progress *progresslog.Logger
}

// Read reads from the underlying reader and accounts for the bytes read.
func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += uint64(n)
	p.progress.LogRatioProgress(p.read, p.total, false)
	return n, err
}

// DatFileDigest returns the SHA-256 digest of the data file at the provided
// path.
func DatFileDigest(path string) ([32]byte, error) {
	var digest [32]byte
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return digest, missingDatFileError(path)
		}
		return digest, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return digest, err
	}
	h := sha256.New()
	pr := &progressReader{
		r:        f,
		total:    uint64(fi.Size()),
		progress: progresslog.New("Verifying verthash data file", log),
	}
	buf := make([]byte, verifyReadSize)
	if _, err := io.CopyBuffer(h, pr, buf); err != nil {
		return digest, fmt.Errorf("unable to read verthash data file: %w", err)
	}
	copy(digest[:], h.Sum(nil))
	return digest, nil
}

// VerifyDatFile ensures the data file at the provided path has the expected
// SHA-256 digest.
func VerifyDatFile(path string, digest [32]byte) error {
	start := time.Now()
	log.Infof("Verifying verthash data file %s", path)
	got, err := DatFileDigest(path)
	if err != nil {
		return err
	}
	if err := verifyDigest(got, digest); err != nil {
		log.Errorf("Verthash data file %s is invalid: %v", path, err)
		return err
	}
	log.Infof("Verified verthash data file in %v",
		time.Since(start).Round(time.Millisecond))
	return nil
}

// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package powhash

import (
	"fmt"
	"time"

	"github.com/bitgoin/lyra2rev2"
	"github.com/vertcoin-project/vtcd/blockchain/standalone"
	"github.com/vertcoin-project/vtcd/chaincfg"
	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
	"github.com/vertcoin-project/vtcd/crypto/verthash"
	"github.com/vertcoin-project/vtcd/wire"
	"golang.org/x/crypto/scrypt"
)

const (
	// scryptN is the CPU/memory cost of the scrypt-N algorithm.  It
	// corresponds to an N-factor of 10.
	scryptN = 1 << (10 + 1)

	// scryptR and scryptP are the block size and parallelization of the
	// scrypt-N algorithm.
	scryptR = 1
	scryptP = 1
)

// HashFunc computes a proof-of-work hash of a serialized block header.
type HashFunc func(header []byte) ([]byte, error)

// Recorder is the interface observations of computed hashes are reported to.
type Recorder interface {
	ObservePowHash(algo standalone.PowAlgo, elapsed time.Duration)
}

// Config houses the configuration of a Hasher.
type Config struct {
	// ChainParams identifies which chain parameters the hasher selects
	// algorithms with.
	ChainParams *chaincfg.Params

	// Verthash is the loaded Verthash data file.  It may be nil when no
	// header at or after the Verthash fork will be hashed.
	Verthash *verthash.Verthash

	// Lyra2RE and Lyra2REv3 provide the algorithms that have no pure Go
	// implementation.  Hashing a header that requires a missing algorithm
	// returns ErrAlgoUnavailable.
	Lyra2RE   HashFunc
	Lyra2REv3 HashFunc

	// Recorder is notified of every computed hash when set.
	Recorder Recorder
}

// Hasher computes the proof-of-work hash of block headers using the algorithm
// in effect at their height.  It is safe for concurrent use.
type Hasher struct {
	params   *chaincfg.Params
	funcs    map[standalone.PowAlgo]HashFunc
	recorder Recorder
}

// scryptSum computes the scrypt-N hash of the serialized header.
func scryptSum(header []byte) ([]byte, error) {
	return scrypt.Key(header, header, scryptN, scryptR, scryptP,
		chainhash.HashSize)
}

// New returns a hasher with the provided configuration.
func New(cfg *Config) *Hasher {
	h := &Hasher{
		params:   cfg.ChainParams,
		funcs:    make(map[standalone.PowAlgo]HashFunc),
		recorder: cfg.Recorder,
	}
	h.funcs[standalone.PowAlgoScryptN] = scryptSum
	h.funcs[standalone.PowAlgoLyra2REv2] = lyra2rev2.Sum
	if cfg.Lyra2RE != nil {
		h.funcs[standalone.PowAlgoLyra2RE] = cfg.Lyra2RE
	}
	if cfg.Lyra2REv3 != nil {
		h.funcs[standalone.PowAlgoLyra2REv3] = cfg.Lyra2REv3
	}
	if v := cfg.Verthash; v != nil {
		h.funcs[standalone.PowAlgoVerthash] = func(header []byte) ([]byte, error) {
			sum, err := v.Hash(header)
			if err != nil {
				return nil, err
			}
			return sum[:], nil
		}
	}

	for _, fork := range h.params.PowHashForks {
		if _, ok := h.funcs[fork.Algo]; !ok {
			log.Warnf("No %v implementation is available: headers from "+
				"height %d can not be verified", fork.Algo,
				fork.ActivationHeight)
		}
	}
	return h
}

// Algo returns the proof-of-work algorithm of the provided header at the
// provided height.
func (h *Hasher) Algo(header *wire.BlockHeader, height int64) standalone.PowAlgo {
	return h.params.PowAlgo(header.Version, height)
}

// Available returns whether the provided algorithm can be computed.
func (h *Hasher) Available(algo standalone.PowAlgo) bool {
	_, ok := h.funcs[algo]
	return ok
}

// unavailableError returns an error for an algorithm that has no
// implementation configured.
func unavailableError(algo standalone.PowAlgo, height int64) error {
	if algo == standalone.PowAlgoVerthash {
		str := fmt.Sprintf("the verthash data file is required to hash "+
			"block %d: generate it by running with --genverthash or copy "+
			"an existing %s into the data directory", height,
			verthash.DatFileName)
		return makeError(ErrVerthashUnavailable, str)
	}
	str := fmt.Sprintf("no %v implementation is available to hash block %d",
		algo, height)
	return makeError(ErrAlgoUnavailable, str)
}

// Sum computes the hash of the serialized header with the provided algorithm.
func (h *Hasher) Sum(algo standalone.PowAlgo, header []byte, height int64) (chainhash.Hash, error) {
	var hash chainhash.Hash
	if !algo.IsValid() {
		str := fmt.Sprintf("unknown proof-of-work algorithm %v", algo)
		return hash, makeError(ErrUnknownAlgo, str)
	}
	fn, ok := h.funcs[algo]
	if !ok {
		return hash, unavailableError(algo, height)
	}

	start := time.Now()
	sum, err := fn(header)
	if err != nil {
		return hash, fmt.Errorf("unable to compute %v hash of block %d: %w",
			algo, height, err)
	}
	if err := hash.SetBytes(sum); err != nil {
		return hash, fmt.Errorf("%v hash of block %d: %w", algo, height, err)
	}
	if h.recorder != nil {
		h.recorder.ObservePowHash(algo, time.Since(start))
	}
	return hash, nil
}

// PowHash returns the proof-of-work hash of the provided header at the
// provided height.
func (h *Hasher) PowHash(header *wire.BlockHeader, height int64) (chainhash.Hash, error) {
	serialized := header.SerializeArray()
	return h.Sum(h.Algo(header, height), serialized[:], height)
}

// CheckProofOfWork ensures the provided header at the provided height has a
// difficulty target within the range allowed at that height and a
// proof-of-work hash that satisfies it.  The proof-of-work hash is returned so
// callers may cache it.
func (h *Hasher) CheckProofOfWork(header *wire.BlockHeader, height int64) (chainhash.Hash, error) {
	powHash, err := h.PowHash(header, height)
	if err != nil {
		return powHash, err
	}
	powLimit, _ := h.params.PowLimitForHeight(height)
	err = standalone.CheckProofOfWork(&powHash, header.Bits, powLimit)
	return powHash, err
}

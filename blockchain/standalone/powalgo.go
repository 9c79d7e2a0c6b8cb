// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package standalone

import "fmt"

// PowAlgo identifies a proof-of-work hashing algorithm.
type PowAlgo uint8

// These constants define the proof-of-work hashing algorithms that have been
// used by the chain over its history.
const (
	// PowAlgoScryptN is scrypt with an adaptive N factor.  The N factor was
	// fixed at 10 (N = 2048) for the entire period it was in use.
	PowAlgoScryptN PowAlgo = iota

	// PowAlgoLyra2RE is the original Lyra2RE chained hash.
	PowAlgoLyra2RE

	// PowAlgoLyra2REv2 is the Lyra2REv2 chained hash.
	PowAlgoLyra2REv2

	// PowAlgoLyra2REv3 is the Lyra2REv3 chained hash.
	PowAlgoLyra2REv3

	// PowAlgoVerthash is the memory-hard Verthash hash which reads from a
	// large proof-of-space data file.
	PowAlgoVerthash

	// numPowAlgos is the maximum number of algorithms.  This value is used
	// internally for bounds checking and must be the final entry.
	numPowAlgos
)

// powAlgoNames maps proof-of-work algorithms to their historical names.
var powAlgoNames = [numPowAlgos]string{
	PowAlgoScryptN:   "scrypt-n",
	PowAlgoLyra2RE:   "lyra2re",
	PowAlgoLyra2REv2: "lyra2rev2",
	PowAlgoLyra2REv3: "lyra2rev3",
	PowAlgoVerthash:  "verthash",
}

// String returns the algorithm as a human-readable name.
func (a PowAlgo) String() string {
	if a < numPowAlgos {
		return powAlgoNames[a]
	}
	return fmt.Sprintf("unknown algorithm (%d)", uint8(a))
}

// IsValid returns whether or not the algorithm is a known one.
func (a PowAlgo) IsValid() bool {
	return a < numPowAlgos
}

// BlockVersionAlgoMask is the set of block version bits that select the
// algorithm variant while a version selected fork is active.
const BlockVersionAlgoMask int32 = 0x7800

// These constants define the block version algorithm variants.  They are the
// values of the version bits covered by BlockVersionAlgoMask.
const (
	BlockVersionLyra2REv3 int32 = 0
	BlockVersionNewAlgo1  int32 = 1 << 11
	BlockVersionNewAlgo2  int32 = 2 << 11
)

// versionAlgo describes an algorithm variant that is selected via block
// version bits.
type versionAlgo struct {
	bits int32
	name string
	algo PowAlgo
}

// versionAlgos houses the known block version algorithm variants.  The first
// entry is the canonical variant used when the version bits do not match any
// known variant.  The reserved variants share the Lyra2REv3 hash until they are
// assigned an algorithm of their own.
var versionAlgos = []versionAlgo{
	{bits: BlockVersionLyra2REv3, name: "lyra2rev3", algo: PowAlgoLyra2REv3},
	{bits: BlockVersionNewAlgo1, name: "newalgo1", algo: PowAlgoLyra2REv3},
	{bits: BlockVersionNewAlgo2, name: "newalgo2", algo: PowAlgoLyra2REv3},
}

// lookupVersionAlgo returns the algorithm variant selected by the version bits
// of the provided block version.
func lookupVersionAlgo(version int32) *versionAlgo {
	bits := version & BlockVersionAlgoMask
	for i := range versionAlgos {
		if versionAlgos[i].bits == bits {
			return &versionAlgos[i]
		}
	}
	return &versionAlgos[0]
}

// PowHashFork describes the activation of a proof-of-work hashing algorithm.
// The algorithm is in effect for all blocks at or above the activation height
// until the next fork activates.
type PowHashFork struct {
	// ActivationHeight is the first block height that uses the algorithm.
	ActivationHeight int64

	// Algo is the algorithm in effect from the activation height.
	Algo PowAlgo

	// VersionSelect indicates the block version bits select the algorithm
	// variant while the fork is active.  Algo is the canonical variant.
	VersionSelect bool
}

// activeFork returns the fork in effect for the provided height along with
// whether or not one was found.  The forks must be sorted by ascending
// activation height.
func activeFork(height int64, forks []PowHashFork) (PowHashFork, bool) {
	for i := len(forks) - 1; i >= 0; i-- {
		if height >= forks[i].ActivationHeight {
			return forks[i], true
		}
	}
	return PowHashFork{}, false
}

// ActivePowHashFork returns the fork in effect for the provided block height.
// The forks must be sorted by ascending activation height.  A height before
// the first activation is treated as governed by the first fork.
func ActivePowHashFork(height int64, forks []PowHashFork) PowHashFork {
	if fork, ok := activeFork(height, forks); ok {
		return fork
	}
	if len(forks) > 0 {
		return forks[0]
	}
	return PowHashFork{}
}

// SelectPowAlgo returns the proof-of-work hashing algorithm for a block with
// the provided version at the provided height according to the given fork
// activation table which must be sorted by ascending activation height.
func SelectPowAlgo(version int32, height int64, forks []PowHashFork) PowAlgo {
	fork := ActivePowHashFork(height, forks)
	if fork.VersionSelect {
		return lookupVersionAlgo(version).algo
	}
	return fork.Algo
}

// AlgoName returns a descriptive name of the proof-of-work hashing algorithm
// for a block with the provided version at the provided height.  Unlike the
// name of the selected algorithm, it distinguishes the version selected
// variants.
func AlgoName(version int32, height int64, forks []PowHashFork) string {
	fork := ActivePowHashFork(height, forks)
	if fork.VersionSelect {
		return lookupVersionAlgo(version).name
	}
	return fork.Algo.String()
}

// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/decred/dcrd/math/uint256"
	"github.com/vertcoin-project/vtcd/blockchain/standalone"
	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
	"github.com/vertcoin-project/vtcd/wire"
)

// Network identifies a Vertcoin network.
type Network uint8

// These constants define the supported networks.
const (
	MainNet Network = iota
	TestNet
	RegNet
)

// String returns the network as a human-readable name.
func (n Network) String() string {
	switch n {
	case MainNet:
		return "mainnet"
	case TestNet:
		return "testnet"
	case RegNet:
		return "regtest"
	}
	return fmt.Sprintf("Unknown Network (%d)", uint8(n))
}

// Checkpoint identifies a known good point in the block chain.  Using
// checkpoints allows a few optimizations for old blocks during initial download
// and also prevents forks from old blocks.
type Checkpoint struct {
	Height int64
	Hash   *chainhash.Hash
}

// PowHashFork describes the activation of a proof-of-work hashing algorithm.
type PowHashFork = standalone.PowHashFork

// DifficultyOverride forces the difficulty bits of a contiguous range of
// blocks.  Overrides were used to reset the difficulty when the proof-of-work
// algorithm changed.
type DifficultyOverride struct {
	// StartHeight is the first block height the override applies to.
	StartHeight int64

	// Length is the number of consecutive blocks the override applies to.
	Length int64

	// Bits is the compact target difficulty required for the blocks.
	Bits uint32
}

// Params defines a Vertcoin network by its parameters.  These parameters may be
// used by applications to differentiate networks as well as addresses and keys
// for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the network.
	Net Network

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// GenesisHeader defines the first block header of the chain.
	GenesisHeader *wire.BlockHeader

	// GenesisHash is the starting block hash.
	GenesisHash chainhash.Hash

	// PowLimit defines the highest allowed proof of work value for a block
	// as a uint256.
	PowLimit *uint256.Uint256

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// LegacyPowLimit and LegacyPowLimitBits define the highest allowed proof
	// of work value for blocks before the Verthash fork.
	LegacyPowLimit     *uint256.Uint256
	LegacyPowLimitBits uint32

	// ReduceMinDifficulty defines whether the network should reduce the
	// minimum required difficulty after a long enough period of time has
	// passed without finding a block.  This is really only useful for test
	// networks and should not be set on a main network.
	ReduceMinDifficulty bool

	// MinDiffReductionTime is the amount of time after which the minimum
	// required difficulty should be reduced when a block hasn't been found.
	//
	// NOTE: This only applies if ReduceMinDifficulty is true.
	MinDiffReductionTime time.Duration

	// NoRetargeting disables difficulty retargeting entirely so every block
	// requires the difficulty of its parent.
	NoRetargeting bool

	// GenerateSupported specifies whether or not CPU mining is allowed.
	GenerateSupported bool

	// TargetTimespan is the desired amount of time that should elapse
	// before the block difficulty requirement is examined to determine how
	// it should be changed in order to maintain the desired block
	// generation rate.
	TargetTimespan time.Duration

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// RetargetAdjustmentFactor is the adjustment factor used to limit
	// the minimum and maximum amount of adjustment that can occur between
	// difficulty retargets.
	RetargetAdjustmentFactor int64

	// KGWActivationHeight is the first block height whose difficulty is
	// calculated with the Kimoto Gravity Well.
	KGWActivationHeight int64

	// KGWInterval is the number of blocks between Kimoto Gravity Well
	// recalculations.  Blocks in between require the difficulty of their
	// parent.
	KGWInterval int64

	// KGWPastSecondsMin and KGWPastSecondsMax bound the window of past
	// blocks examined by the Kimoto Gravity Well.
	KGWPastSecondsMin time.Duration
	KGWPastSecondsMax time.Duration

	// DifficultyOverrides houses ranges of blocks with fixed difficulty.
	DifficultyOverrides []DifficultyOverride

	// PowHashForks houses the proof-of-work hashing algorithm activations
	// ordered from oldest to newest.
	PowHashForks []PowHashFork

	// Checkpoints ordered from oldest to newest.
	Checkpoints []Checkpoint

	// VerthashDatFileDigest is the SHA-256 digest of the Verthash data file.
	VerthashDatFileDigest [32]byte
}

// KGWPastBlocksMin returns the minimum number of past blocks examined by the
// Kimoto Gravity Well before it may stop early.
func (p *Params) KGWPastBlocksMin() int64 {
	return int64(p.KGWPastSecondsMin / p.TargetTimePerBlock)
}

// KGWPastBlocksMax returns the maximum number of past blocks examined by the
// Kimoto Gravity Well.
func (p *Params) KGWPastBlocksMax() int64 {
	return int64(p.KGWPastSecondsMax / p.TargetTimePerBlock)
}

// VerthashForkHeight returns the activation height of the Verthash algorithm
// along with whether or not the network has one.
func (p *Params) VerthashForkHeight() (int64, bool) {
	for _, fork := range p.PowHashForks {
		if fork.Algo == standalone.PowAlgoVerthash {
			return fork.ActivationHeight, true
		}
	}
	return 0, false
}

// PowLimitForHeight returns the highest allowed proof of work value and its
// compact form for a block at the provided height.  Blocks before the Verthash
// fork use the legacy limit.
func (p *Params) PowLimitForHeight(height int64) (*uint256.Uint256, uint32) {
	forkHeight, ok := p.VerthashForkHeight()
	if ok && height >= forkHeight {
		return p.PowLimit, p.PowLimitBits
	}
	return p.LegacyPowLimit, p.LegacyPowLimitBits
}

// PowHashForkForHeight returns the proof-of-work hashing algorithm activation
// in effect for a block at the provided height.
func (p *Params) PowHashForkForHeight(height int64) PowHashFork {
	return standalone.ActivePowHashFork(height, p.PowHashForks)
}

// PowAlgo returns the proof-of-work hashing algorithm for a block with the
// provided version at the provided height.
func (p *Params) PowAlgo(version int32, height int64) standalone.PowAlgo {
	return standalone.SelectPowAlgo(version, height, p.PowHashForks)
}

// DifficultyOverride returns the forced difficulty bits for a block at the
// provided height along with whether or not an override applies.
func (p *Params) DifficultyOverride(height int64) (uint32, bool) {
	for _, o := range p.DifficultyOverrides {
		if height >= o.StartHeight && height < o.StartHeight+o.Length {
			return o.Bits, true
		}
	}
	return 0, false
}

// Checkpoint returns the checkpoint at the provided height, if any.
func (p *Params) Checkpoint(height int64) *Checkpoint {
	for i := range p.Checkpoints {
		if p.Checkpoints[i].Height == height {
			return &p.Checkpoints[i]
		}
	}
	return nil
}

// LatestCheckpointHeight is the height of the latest checkpoint block in the
// parameters.
func (p *Params) LatestCheckpointHeight() int64 {
	if len(p.Checkpoints) == 0 {
		return 0
	}
	return p.Checkpoints[len(p.Checkpoints)-1].Height
}

// newHashFromStr converts the passed big-endian hex string into a
// chainhash.Hash.  It only differs from the one available in chainhash in that
// it panics on an error since it will only (and must only) be called with
// hard-coded, and therefore known good, hashes.
func newHashFromStr(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		// Ordinarily I don't like panics in library code since it
		// can take applications down without them having a chance to
		// recover which is extremely annoying, however an exception is
		// being made in this case because the only way this can panic
		// is if there is an error in the hard-coded hashes.  Thus it
		// will only ever potentially panic on init and therefore is
		// 100% predictable.
		panic(err)
	}
	return hash
}

// hexToDigest converts the passed hex string into a 32-byte digest and will
// panic if there is an error.  This is only provided for the hard-coded
// constants so errors in the source code can be detected.  It will only (and
// must only) be called for initialization purposes.
func hexToDigest(hexStr string) [32]byte {
	var digest [32]byte
	if len(hexStr)%2 != 0 {
		hexStr = "0" + hexStr
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil || len(b) != len(digest) {
		panic("invalid hex in source file: " + hexStr)
	}
	copy(digest[:], b)
	return digest
}

// hexToUint256 converts the passed hex string into a uint256 and will panic if
// there is an error.  This is only provided for the hard-coded constants so
// errors in the source code can be detected.  It will only (and must only) be
// called for initialization purposes.
func hexToUint256(hexStr string) *uint256.Uint256 {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		panic("invalid hex in source file: " + hexStr)
	}
	var n uint256.Uint256
	if truncated := n.SetByteSlice(b); truncated {
		panic("hex in source file overflows uint256: " + hexStr)
	}
	return &n
}

// verthashDatFileDigest is the SHA-256 digest of the Verthash data file which
// is shared by all networks.
const verthashDatFileDigest = "a55531e843cd56b010114aaf6325b0d529ecf88f8ad47639b6ededafd721aa48"

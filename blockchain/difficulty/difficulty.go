// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package difficulty

import (
	"fmt"
	"math"
	"time"

	"github.com/decred/dcrd/math/uint256"
	"github.com/vertcoin-project/vtcd/blockchain/standalone"
	"github.com/vertcoin-project/vtcd/chaincfg"
)

const (
	// kgwDeviationScale is the window length the event horizon deviation of
	// the Kimoto Gravity Well is scaled by.
	kgwDeviationScale = 144

	// kgwDeviationFactor and kgwDeviationExponent define the event horizon
	// deviation 1 + factor * (mass / scale)^exponent.
	kgwDeviationFactor   = 0.7084
	kgwDeviationExponent = -1.228

	// fShiftBits is the bit length above which a target is halved before
	// the retarget multiplication so the intermediate product can not
	// overflow.
	fShiftBits = 235
)

// HeaderCtx is an interface to describe the block header context required to
// calculate the difficulty of the next block.  Implementations must not be
// modified while a calculation is in progress.
type HeaderCtx interface {
	// Height returns the height of the block.
	Height() int64

	// Version returns the version of the block.
	Version() int32

	// Timestamp returns the unix timestamp of the block.
	Timestamp() int64

	// Bits returns the compact target difficulty of the block.
	Bits() uint32

	// Parent returns the parent of the block or nil when it is not known.
	Parent() HeaderCtx
}

// retargetInterval returns the number of blocks between Bitcoin-style
// difficulty retargets.
func retargetInterval(p *chaincfg.Params) int64 {
	return int64(p.TargetTimespan / p.TargetTimePerBlock)
}

// NextWorkRequired calculates the required difficulty for the block after the
// provided previous block given the timestamp of the new block.  A nil
// previous block means the next block is the genesis block.
//
// This function is safe for concurrent access provided the header contexts
// are not modified.
func NextWorkRequired(prev HeaderCtx, newBlockTime int64, p *chaincfg.Params) (uint32, error) {
	if prev == nil {
		_, powLimitBits := p.PowLimitForHeight(0)
		return powLimitBits, nil
	}
	if p.NoRetargeting {
		return prev.Bits(), nil
	}

	nextHeight := prev.Height() + 1
	if bits, ok := p.DifficultyOverride(nextHeight); ok {
		log.Debugf("Using difficulty override %08x at block height %d", bits,
			nextHeight)
		return bits, nil
	}
	if nextHeight < p.KGWActivationHeight {
		return bitcoinNextWork(prev, newBlockTime, p)
	}
	return kgwNextWork(prev, p), nil
}

// findPrevNonMinDiffBits returns the difficulty of the most recent block that
// was not mined under the minimum difficulty rule.  The walk stops at the last
// retarget block regardless of its difficulty since a retarget may legitimately
// produce the limit.
func findPrevNonMinDiffBits(start HeaderCtx, interval int64, powLimitBits uint32) uint32 {
	node := start
	for node.Parent() != nil && node.Height()%interval != 0 &&
		node.Bits() == powLimitBits {

		node = node.Parent()
	}
	return node.Bits()
}

// bitcoinNextWork calculates the required difficulty for the block after the
// provided previous block using the periodic retarget inherited from Bitcoin
// along with the protection against timestamp manipulation adopted by
// Litecoin.
func bitcoinNextWork(prev HeaderCtx, newBlockTime int64, p *chaincfg.Params) (uint32, error) {
	nextHeight := prev.Height() + 1
	powLimit, powLimitBits := p.PowLimitForHeight(nextHeight)
	interval := retargetInterval(p)

	// Only change once per difficulty adjustment interval.
	if nextHeight%interval != 0 {
		if !p.ReduceMinDifficulty {
			return prev.Bits(), nil
		}

		// Allow a minimum difficulty block when the new block is more
		// than the reduction time after the previous one.  Otherwise use
		// the difficulty of the last block that was not one.
		reductionTime := int64(p.MinDiffReductionTime / time.Second)
		if newBlockTime > prev.Timestamp()+reductionTime {
			return powLimitBits, nil
		}
		return findPrevNonMinDiffBits(prev, interval, powLimitBits), nil
	}

	// Go back the full interval unless this is the first retarget after
	// genesis, so the timespan covers every block since the last retarget.
	blocksToGoBack := interval
	if nextHeight == interval {
		blocksToGoBack = interval - 1
	}
	first := prev
	for i := int64(0); first != nil && i < blocksToGoBack; i++ {
		first = first.Parent()
	}
	if first == nil {
		str := fmt.Sprintf("unable to find the block %d blocks before "+
			"height %d to retarget", blocksToGoBack, prev.Height())
		return 0, makeError(ErrMissingAncestor, str)
	}

	// Limit the amount of adjustment that can occur to the previous
	// difficulty.
	targetTimespan := int64(p.TargetTimespan / time.Second)
	minTimespan := targetTimespan / p.RetargetAdjustmentFactor
	maxTimespan := targetTimespan * p.RetargetAdjustmentFactor
	actualTimespan := prev.Timestamp() - first.Timestamp()
	adjustedTimespan := actualTimespan
	if adjustedTimespan < minTimespan {
		adjustedTimespan = minTimespan
	} else if adjustedTimespan > maxTimespan {
		adjustedTimespan = maxTimespan
	}

	// Calculate new target difficulty as:
	//  currentDifficulty * adjustedTimespan / targetTimespan
	//
	// The target is halved first when it is large enough that the
	// multiplication could overflow.
	oldTarget, _, _ := standalone.DiffBitsToUint256(prev.Bits())
	var newTarget uint256.Uint256
	newTarget.Set(&oldTarget)
	shift := newTarget.BitLen() > fShiftBits
	if shift {
		newTarget.Rsh(1)
	}
	newTarget.MulUint64(uint64(adjustedTimespan))
	newTarget.DivUint64(uint64(targetTimespan))
	if shift {
		newTarget.Lsh(1)
	}

	// Limit new value to the proof of work limit.
	if newTarget.Gt(powLimit) {
		newTarget.Set(powLimit)
	}
	newBits := standalone.Uint256ToDiffBits(&newTarget)

	log.Debugf("Difficulty retarget at block height %d", nextHeight)
	log.Debugf("Old target %08x (%064x)", prev.Bits(), oldTarget)
	log.Debugf("New target %08x (%064x)", newBits, newTarget)
	log.Debugf("Actual timespan %v, adjusted timespan %v, target timespan %v",
		time.Duration(actualTimespan)*time.Second,
		time.Duration(adjustedTimespan)*time.Second, p.TargetTimespan)

	return newBits, nil
}

// kgwNextWork calculates the required difficulty for the block after the
// provided previous block using the Kimoto Gravity Well.
//
// The well walks backwards through up to the maximum number of past blocks
// while maintaining a running average of their targets.  Once the minimum
// number of blocks have been examined, it stops as soon as the ratio of the
// expected to the actual time to produce the blocks leaves a band that narrows
// as more blocks are examined.  The new target is the average scaled by the
// actual over the expected time.
//
// The walk never includes blocks from before the activation of the
// proof-of-work hashing algorithm the previous block was mined with since
// their targets are for a different algorithm.
func kgwNextWork(prev HeaderCtx, p *chaincfg.Params) uint32 {
	nextHeight := prev.Height() + 1
	powLimit, powLimitBits := p.PowLimitForHeight(nextHeight)

	// Only recalculate at the configured interval.  Other blocks require
	// the difficulty of their parent.
	if p.KGWInterval > 1 && nextHeight%p.KGWInterval != 0 {
		target, _, _ := standalone.DiffBitsToUint256(prev.Bits())
		if target.Gt(powLimit) {
			return powLimitBits
		}
		return standalone.Uint256ToDiffBits(&target)
	}

	pastBlocksMin := p.KGWPastBlocksMin()
	pastBlocksMax := p.KGWPastBlocksMax()
	if prev.Height() == 0 || prev.Height() < pastBlocksMin {
		return powLimitBits
	}

	forkHeight := p.PowHashForkForHeight(prev.Height()).ActivationHeight
	spacing := int64(p.TargetTimePerBlock / time.Second)
	lastSolvedTime := prev.Timestamp()

	var mass, actualSeconds, targetSeconds int64
	var average, prevAverage signedInt
	reading := prev
	for i := int64(1); reading != nil && reading.Height() > 0 &&
		reading.Height() >= forkHeight; i++ {

		if pastBlocksMax > 0 && i > pastBlocksMax {
			break
		}
		mass++

		if i == 1 {
			target, _, _ := standalone.DiffBitsToUint256(reading.Bits())
			average.setUint256(&target)
		} else {
			// average = (target - prevAverage) / i + prevAverage
			average.setCompact(reading.Bits())
			average.sub(&prevAverage)
			average.quoUint64(uint64(i))
			average.add(&prevAverage)
		}
		prevAverage = average

		actualSeconds = lastSolvedTime - reading.Timestamp()
		if actualSeconds < 0 {
			actualSeconds = 0
		}
		targetSeconds = spacing * mass
		adjustmentRatio := 1.0
		if actualSeconds != 0 && targetSeconds != 0 {
			adjustmentRatio = float64(targetSeconds) / float64(actualSeconds)
		}

		deviation := 1 + kgwDeviationFactor*math.Pow(
			float64(mass)/kgwDeviationScale, kgwDeviationExponent)
		if mass >= pastBlocksMin && (adjustmentRatio <= 1/deviation ||
			adjustmentRatio >= deviation) {

			break
		}

		reading = reading.Parent()
	}
	if mass == 0 {
		return powLimitBits
	}

	newTarget := average.uint256()
	if actualSeconds != 0 && targetSeconds != 0 {
		newTarget.MulUint64(uint64(actualSeconds))
		newTarget.DivUint64(uint64(targetSeconds))
	}
	if newTarget.Gt(powLimit) {
		newTarget.Set(powLimit)
	}
	newBits := standalone.Uint256ToDiffBits(&newTarget)

	log.Tracef("Kimoto Gravity Well at block height %d examined %d blocks: "+
		"actual %ds, target %ds, new target %08x", nextHeight, mass,
		actualSeconds, targetSeconds, newBits)

	return newBits
}

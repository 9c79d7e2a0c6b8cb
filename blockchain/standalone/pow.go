// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2023 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package standalone

import (
	"fmt"

	"github.com/decred/dcrd/math/uint256"
	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
)

// HashToUint256 converts the provided hash to an unsigned 256-bit integer that
// can be used to perform math comparisons.  Hashes are treated as little
// endian numbers.
func HashToUint256(hash *chainhash.Hash) uint256.Uint256 {
	var n uint256.Uint256
	n.SetBytesLE((*[chainhash.HashSize]byte)(hash))
	return n
}

// DiffBitsToUint256 converts the compact representation used to encode
// difficulty targets to an unsigned 256-bit integer.  The representation is
// similar to IEEE754 floating point numbers.
//
// Like IEEE754 floating point, there are three basic components: the sign,
// the exponent, and the mantissa.  They are broken out as follows:
//
//  1. the most significant 8 bits represent the unsigned base 256 exponent
//  2. zero-based bit 23 (the 24th bit) represents the sign bit
//  3. the least significant 23 bits represent the mantissa
//
// Diagram:
//
//	-------------------------------------------------
//	|   Exponent     |    Sign    |    Mantissa     |
//	|-----------------------------------------------|
//	| 8 bits [31-24] | 1 bit [23] | 23 bits [22-00] |
//	-------------------------------------------------
//
// N = (-1^sign) * mantissa * 256^(exponent-3)
//
// The flags report whether the encoding is for a negative value and whether it
// does not fit into 256 bits, since neither is ever a valid target.  A value
// that overflows decodes to zero.  The sign bit is ignored when the mantissa,
// after any right shift for small exponents, is zero.
func DiffBitsToUint256(bits uint32) (n uint256.Uint256, isNegative, overflows bool) {
	mantissa := bits & 0x007fffff
	isSignBitSet := bits&0x00800000 != 0
	exponent := bits >> 24

	// Small exponents shift the mantissa right and can never overflow.
	if exponent <= 3 {
		word := mantissa >> (8 * (3 - exponent))
		n.SetUint64(uint64(word))
		return n, isSignBitSet && word != 0, false
	}
	if mantissa == 0 {
		return n, false, false
	}

	// The mantissa is shifted left by 8*(exponent-3) bits, so the exponents
	// that leave fewer than 24 bits of room overflow unless the mantissa is
	// small enough to fit in the space that remains.
	overflows = exponent > 34 || (exponent > 33 && mantissa > 0xff) ||
		(exponent > 32 && mantissa > 0xffff)
	if overflows {
		return n, isSignBitSet, true
	}
	n.SetUint64(uint64(mantissa))
	n.Lsh(8 * (exponent - 3))
	return n, isSignBitSet, false
}

// uint256ToDiffBits converts a uint256 to the compact representation with the
// sign bit set when isNegative is true and the value is not zero.
func uint256ToDiffBits(n *uint256.Uint256, isNegative bool) uint32 {
	if n.IsZero() {
		return 0
	}

	// The exponent is the number of bytes needed to represent the value.
	var mantissa uint32
	exponent := uint32((n.BitLen() + 7) / 8)
	if exponent <= 3 {
		mantissa = n.Uint32() << (8 * (3 - exponent))
	} else {
		var shifted uint256.Uint256
		mantissa = shifted.RshVal(n, 8*(exponent-3)).Uint32()
	}

	// A mantissa with the sign bit set does not fit in 23 bits.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	bits := exponent<<24 | mantissa
	if isNegative && mantissa != 0 {
		bits |= 0x00800000
	}
	return bits
}

// Uint256ToDiffBits converts a uint256 to a compact representation using an
// unsigned 32-bit integer.  The compact representation only provides 23 bits of
// precision, so values larger than (2^23 - 1) only encode the most significant
// digits of the number.  See DiffBitsToUint256 for details.
func Uint256ToDiffBits(n *uint256.Uint256) uint32 {
	return uint256ToDiffBits(n, false)
}

// CalcWork calculates a work value from difficulty bits.  Vertcoin increases
// the difficulty for generating a block by decreasing the value which the
// generated hash must be less than.  Since a lower target difficulty value
// equates to higher actual difficulty, the work value which will be accumulated
// must be the inverse of the difficulty.  The result is 2^256 / (target + 1)
// which is computed as (~target / (target + 1)) + 1 so it fits in 256 bits.
func CalcWork(bits uint32) uint256.Uint256 {
	// Return a work value of zero if the passed difficulty bits represent a
	// negative number, a number that overflows, or zero.  Note this should not
	// happen in practice with valid blocks, but an invalid block could trigger
	// it.
	var work uint256.Uint256
	target, isNegative, overflows := DiffBitsToUint256(bits)
	if isNegative || overflows || target.IsZero() {
		return work
	}

	var denominator uint256.Uint256
	denominator.Set(&target).AddUint64(1)
	if denominator.IsZero() {
		// The target is the maximum uint256.
		return *work.SetUint64(1)
	}
	work.Set(&target).Not().Div(&denominator).AddUint64(1)
	return work
}

// checkProofOfWorkRange ensures the provided target difficulty is in min/max
// range per the provided proof-of-work limit.
func checkProofOfWorkRange(diffBits uint32, powLimit *uint256.Uint256) (uint256.Uint256, error) {
	// The target difficulty must not be negative or overflow.
	target, isNegative, overflows := DiffBitsToUint256(diffBits)
	if isNegative {
		str := fmt.Sprintf("target difficulty bits %08x is a negative value",
			diffBits)
		return target, ruleError(ErrUnexpectedDifficulty, str)
	}
	if overflows {
		str := fmt.Sprintf("target difficulty bits %08x is higher than the "+
			"max limit %x", diffBits, powLimit)
		return target, ruleError(ErrUnexpectedDifficulty, str)
	}

	// The target difficulty must be larger than zero.
	if target.IsZero() {
		str := "target difficulty is zero"
		return target, ruleError(ErrUnexpectedDifficulty, str)
	}

	// The target difficulty must be less than the maximum allowed.
	if target.Gt(powLimit) {
		str := fmt.Sprintf("target difficulty of %x is higher than max of %x",
			target, powLimit)
		return target, ruleError(ErrUnexpectedDifficulty, str)
	}

	return target, nil
}

// CheckProofOfWorkRange ensures the provided compact target difficulty is in
// min/max range per the provided proof-of-work limit.
func CheckProofOfWorkRange(diffBits uint32, powLimit *uint256.Uint256) error {
	_, err := checkProofOfWorkRange(diffBits, powLimit)
	return err
}

// checkProofOfWorkHash ensures the provided hash is less than or equal to the
// provided target difficulty.
func checkProofOfWorkHash(powHash *chainhash.Hash, target *uint256.Uint256) error {
	// The proof of work hash must be less than the target difficulty.
	hashNum := HashToUint256(powHash)
	if hashNum.Gt(target) {
		str := fmt.Sprintf("proof of work hash %x is higher than expected "+
			"max of %x", hashNum, target)
		return ruleError(ErrHighHash, str)
	}

	return nil
}

// CheckProofOfWorkHash ensures the provided hash is less than or equal to the
// provided compact target difficulty.  The difficulty bits are assumed to be
// in range.
func CheckProofOfWorkHash(powHash *chainhash.Hash, diffBits uint32) error {
	target, _, _ := DiffBitsToUint256(diffBits)
	return checkProofOfWorkHash(powHash, &target)
}

// CheckProofOfWork ensures the provided hash is less than or equal to the
// provided compact target difficulty and that the target difficulty is in
// min/max range per the provided proof-of-work limit.
//
// This is semantically equivalent to and slightly more efficient than calling
// CheckProofOfWorkRange followed by CheckProofOfWorkHash.
func CheckProofOfWork(powHash *chainhash.Hash, diffBits uint32, powLimit *uint256.Uint256) error {
	target, err := checkProofOfWorkRange(diffBits, powLimit)
	if err != nil {
		return err
	}

	// The proof of work hash must be less than the target difficulty.
	return checkProofOfWorkHash(powHash, &target)
}

// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package difficulty

import (
	"github.com/decred/dcrd/math/uint256"
	"github.com/vertcoin-project/vtcd/blockchain/standalone"
)

// signedInt is a 257-bit signed integer made of a sign and a 256-bit
// magnitude.  It only provides what the running difficulty average needs,
// since the difference between a target and the average may be negative.
//
// Zero is never negative.
type signedInt struct {
	mag uint256.Uint256
	neg bool
}

// setCompact sets the value to the target encoded by the compact
// representation including its sign.
func (s *signedInt) setCompact(bits uint32) *signedInt {
	mag, isNegative, _ := standalone.DiffBitsToUint256(bits)
	s.mag = mag
	s.neg = isNegative && !s.mag.IsZero()
	return s
}

// setUint256 sets the value to the provided unsigned value.
func (s *signedInt) setUint256(n *uint256.Uint256) *signedInt {
	s.mag.Set(n)
	s.neg = false
	return s
}

// add sets the value to the sum of itself and the provided value.
func (s *signedInt) add(n *signedInt) *signedInt {
	if s.neg == n.neg {
		s.mag.Add(&n.mag)
		return s
	}

	// The signs differ, so the result has the sign of the larger magnitude.
	if s.mag.GtEq(&n.mag) {
		s.mag.Sub(&n.mag)
	} else {
		var mag uint256.Uint256
		mag.Set(&n.mag).Sub(&s.mag)
		s.mag = mag
		s.neg = n.neg
	}
	if s.mag.IsZero() {
		s.neg = false
	}
	return s
}

// sub sets the value to the difference of itself and the provided value.
func (s *signedInt) sub(n *signedInt) *signedInt {
	negated := *n
	negated.neg = !n.neg && !n.mag.IsZero()
	return s.add(&negated)
}

// quoUint64 sets the value to the quotient of itself and the provided divisor
// truncated toward zero.  The divisor must not be zero.
func (s *signedInt) quoUint64(divisor uint64) *signedInt {
	s.mag.DivUint64(divisor)
	if s.mag.IsZero() {
		s.neg = false
	}
	return s
}

// uint256 returns the value as an unsigned integer.  Negative values are
// clamped to zero.
func (s *signedInt) uint256() uint256.Uint256 {
	if s.neg {
		return uint256.Uint256{}
	}
	return s.mag
}

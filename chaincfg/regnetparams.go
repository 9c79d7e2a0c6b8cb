// Copyright (c) 2018-2021 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/vertcoin-project/vtcd/blockchain/standalone"
)

// RegNetParams returns the network parameters for the regression test network.
// This should not be confused with the public test network.  The purpose of
// this network is primarily for unit tests and local mining.
//
// Since this network is only intended for unit testing, its values are subject
// to change even if it would cause a hard fork.
func RegNetParams() *Params {
	// regNetPowLimit is the highest proof of work value a Vertcoin block
	// can have for the regression test network.  It is the value 2^255 - 1.
	regNetPowLimit := hexToUint256("7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	// genesisHeader defines the first block header of the regression test
	// network.
	genesisHeader := newGenesisHeader(
		1296688602, // 2011-02-02 23:16:42 +0000 UTC
		0x207fffff, // 545259519 [7fffff0000000000000000000000000000000000000000000000000000000000]
		2)

	return &Params{
		Name:        "regtest",
		Net:         RegNet,
		DefaultPort: "18444",

		// Chain parameters
		GenesisHeader:            genesisHeader,
		GenesisHash:              genesisHeader.BlockHash(),
		PowLimit:                 regNetPowLimit,
		PowLimitBits:             0x207fffff,
		LegacyPowLimit:           regNetPowLimit,
		LegacyPowLimitBits:       0x207fffff,
		ReduceMinDifficulty:      true,
		MinDiffReductionTime:     time.Minute * 20, // TargetTimePerBlock * 2
		NoRetargeting:            true,
		GenerateSupported:        true,
		TargetTimespan:           time.Hour * 24 * 14, // 14 days
		TargetTimePerBlock:       time.Minute * 10,
		RetargetAdjustmentFactor: 4,

		// The Kimoto Gravity Well does not apply since retargeting is
		// disabled.
		KGWActivationHeight: 0,
		KGWInterval:         1,
		KGWPastSecondsMin:   time.Hour * 6,
		KGWPastSecondsMax:   time.Hour * 24 * 7,

		// Proof-of-work hashing algorithm activations.
		PowHashForks: []PowHashFork{
			{ActivationHeight: 0, Algo: standalone.PowAlgoVerthash},
		},

		// Checkpoints ordered from oldest to newest.
		Checkpoints: nil,

		VerthashDatFileDigest: hexToDigest(verthashDatFileDigest),
	}
}

// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/vertcoin-project/vtcd/blockchain/standalone"
)

// TestNetParams returns the network parameters for the public Vertcoin test
// network.  Not to be confused with the regression test network, this network
// is sometimes simply called "testnet".
func TestNetParams() *Params {
	// testNetPowLimit is the highest proof of work value a Vertcoin block
	// can have for the test network.  It is the value 2^236 - 1.
	testNetPowLimit := hexToUint256("00000fffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	// genesisHeader defines the first block header of the test network.
	genesisHeader := newGenesisHeader(
		1481291250, // 2016-12-09 13:47:30 +0000 UTC
		0x1e0ffff0, // 504365040 [00000ffff0000000000000000000000000000000000000000000000000000000]
		915027)

	return &Params{
		Name:        "testnet",
		Net:         TestNet,
		DefaultPort: "15889",

		// Chain parameters
		GenesisHeader:            genesisHeader,
		GenesisHash:              genesisHeader.BlockHash(),
		PowLimit:                 testNetPowLimit,
		PowLimitBits:             0x1e0fffff,
		LegacyPowLimit:           testNetPowLimit,
		LegacyPowLimitBits:       0x1e0fffff,
		ReduceMinDifficulty:      true,
		MinDiffReductionTime:     time.Second * 300, // TargetTimePerBlock * 2
		NoRetargeting:            false,
		GenerateSupported:        false,
		TargetTimespan:           time.Hour * 84, // 3.5 days
		TargetTimePerBlock:       time.Second * 150,
		RetargetAdjustmentFactor: 4,

		// Kimoto Gravity Well parameters.  The test network only
		// recalculates every 12 blocks.
		KGWActivationHeight: 2116,
		KGWInterval:         12,
		KGWPastSecondsMin:   time.Hour * 6,
		KGWPastSecondsMax:   time.Hour * 24 * 7,

		// Difficulty resets at proof-of-work algorithm changes.
		DifficultyOverrides: []DifficultyOverride{
			{StartHeight: 100, Length: 1, Bits: 0x1e0ffff0},
			{StartHeight: 231000, Length: 10, Bits: 0x1e0fffff},
		},

		// Proof-of-work hashing algorithm activations.
		PowHashForks: []PowHashFork{
			{ActivationHeight: 0, Algo: standalone.PowAlgoLyra2REv2},
			{ActivationHeight: 158221, Algo: standalone.PowAlgoLyra2REv3, VersionSelect: true},
			{ActivationHeight: 231000, Algo: standalone.PowAlgoVerthash},
		},

		// Checkpoints ordered from oldest to newest.
		Checkpoints: []Checkpoint{
			{0, newHashFromStr("cee8f24feb7a64c8f07916976aa4855decac79b6741a8ec2e32e2747497ad2c9")},
		},

		VerthashDatFileDigest: hexToDigest(verthashDatFileDigest),
	}
}

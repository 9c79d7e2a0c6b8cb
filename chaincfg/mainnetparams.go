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

// MainNetParams returns the network parameters for the main Vertcoin network.
func MainNetParams() *Params {
	// mainPowLimit is the highest proof of work value a Vertcoin block can
	// have for the main network.  It is the value 2^236 - 1.
	mainPowLimit := hexToUint256("00000fffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	// genesisHeader defines the first block header of the main network.
	genesisHeader := newGenesisHeader(
		1389311371, // 2014-01-09 23:49:31 +0000 UTC
		0x1e0ffff0, // 504365040 [00000ffff0000000000000000000000000000000000000000000000000000000]
		5749262)

	return &Params{
		Name:        "mainnet",
		Net:         MainNet,
		DefaultPort: "5889",

		// Chain parameters
		GenesisHeader:            genesisHeader,
		GenesisHash:              genesisHeader.BlockHash(),
		PowLimit:                 mainPowLimit,
		PowLimitBits:             0x1e0fffff,
		LegacyPowLimit:           mainPowLimit,
		LegacyPowLimitBits:       0x1e0fffff,
		ReduceMinDifficulty:      false,
		MinDiffReductionTime:     0, // Does not apply since ReduceMinDifficulty false
		NoRetargeting:            false,
		GenerateSupported:        false,
		TargetTimespan:           time.Hour * 84, // 3.5 days
		TargetTimePerBlock:       time.Second * 150,
		RetargetAdjustmentFactor: 4,

		// Kimoto Gravity Well parameters.
		KGWActivationHeight: 26754,
		KGWInterval:         1,
		KGWPastSecondsMin:   time.Hour * 6,
		KGWPastSecondsMax:   time.Hour * 24 * 7,

		// Difficulty resets at proof-of-work algorithm changes.
		DifficultyOverrides: []DifficultyOverride{
			{StartHeight: 208301, Length: 1, Bits: 0x1e0ffff0},
			{StartHeight: 1500000, Length: 10, Bits: 0x1e0fffff},
		},

		// Proof-of-work hashing algorithm activations.
		PowHashForks: []PowHashFork{
			{ActivationHeight: 0, Algo: standalone.PowAlgoScryptN},
			{ActivationHeight: 208301, Algo: standalone.PowAlgoLyra2RE},
			{ActivationHeight: 347000, Algo: standalone.PowAlgoLyra2REv2},
			{ActivationHeight: 1080001, Algo: standalone.PowAlgoLyra2REv3, VersionSelect: true},
			{ActivationHeight: 1500000, Algo: standalone.PowAlgoVerthash},
		},

		// Checkpoints ordered from oldest to newest.
		Checkpoints: []Checkpoint{
			{0, newHashFromStr("4d96a915f49d40b1e5c2844d1ee2dccb90013a990ccea12c492d22110489f0c4")},
			{24200, newHashFromStr("d7ed819858011474c8b0cae4ad0b9bdbb745becc4c386bc22d1220cc5a4d1787")},
			{65000, newHashFromStr("9e673a69c35a423f736ab66f9a195d7c42f979847a729c0f3cef2c0b8b9d0289")},
			{84065, newHashFromStr("a904170a5a98109b2909379d9bc03ef97a6b44d5dafbc9084b8699b0cba5aa98")},
			{228023, newHashFromStr("15c94667a9e941359d2ee6527e2876db1b5e7510a5ded3885ca02e7e0f516b51")},
			{346992, newHashFromStr("f1714fa4c7990f4b3d472eb22132891ccd3c7ad7208e2d1ab15bde68854fb0ee")},
			{347269, newHashFromStr("fa1e592b7ea2aa97c5f20ccd7c40f3aaaeb31d1232c978847a79f28f83b6c22a")},
			{430000, newHashFromStr("2f5703cf7b6f956b84fd49948cbf49dc164cfcb5a7b55903b1c4f53bc7851611")},
			{516999, newHashFromStr("572ed47da461743bcae526542053e7bc532de299345e4f51d77786f2870b7b28")},
			{627610, newHashFromStr("6000a787f2d8bb77d4f491a423241a4cc8439d862ca6cec6851aba4c79ccfedc")},
		},

		VerthashDatFileDigest: hexToDigest(verthashDatFileDigest),
	}
}

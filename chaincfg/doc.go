// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines chain configuration parameters.
//
// In addition to the main Vertcoin network, there also exist two standard
// networks: the public test network and the regression test network.  These
// networks are incompatible with each other (each sharing a different genesis
// block) and software should handle errors where input intended for one network
// is used on an application instance running on a different network.
//
// The parameters that matter most to the proof-of-work rules are the power
// limits, the retarget timing, the Kimoto Gravity Well window, the table of
// proof-of-work hashing algorithm activations and the difficulty overrides that
// were applied when the algorithm changed.
//
// For main packages, a (typically global) var may be assigned the address of
// one of the standard Params for use as the application's "active" network.
//
//	package main
//
//	import (
//		"flag"
//		"fmt"
//
//		"github.com/vertcoin-project/vtcd/chaincfg"
//	)
//
//	func main() {
//		var testnet = flag.Bool("testnet", false, "operate on the test network")
//		flag.Parse()
//
//		// By default (without -testnet), use mainnet.
//		var chainParams = chaincfg.MainNetParams()
//
//		// Modify active network parameters if operating on testnet.
//		if *testnet {
//			chainParams = chaincfg.TestNetParams()
//		}
//
//		fmt.Println(chainParams.PowAlgo(0x20000000, 1500000))
//	}
//
// If an application does not use one of the standard Vertcoin networks, a new
// Params struct may be created which defines the parameters for the
// non-standard network.
package chaincfg

// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
	"github.com/vertcoin-project/vtcd/wire"
)

// genesisMerkleRoot is the hash of the coinbase transaction of the genesis
// block.  All networks share the same genesis coinbase.
var genesisMerkleRoot = chainhash.Hash([chainhash.HashSize]byte{ // Make go vet happy.
	0xe7, 0x23, 0x01, 0xfc, 0x49, 0x32, 0x3e, 0xe1,
	0x51, 0xcf, 0x10, 0x48, 0x23, 0x0f, 0x03, 0x2c,
	0xa5, 0x89, 0x75, 0x3b, 0xa7, 0x08, 0x62, 0x22,
	0xa5, 0xc0, 0x23, 0xe3, 0xa0, 0x8c, 0xf3, 0x4a,
})

// newGenesisHeader returns a genesis block header with the provided values.
func newGenesisHeader(timestamp int64, bits, nonce uint32) *wire.BlockHeader {
	return &wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{}, // All zero.
		MerkleRoot: genesisMerkleRoot,
		Timestamp:  time.Unix(timestamp, 0),
		Bits:       bits,
		Nonce:      nonce,
	}
}

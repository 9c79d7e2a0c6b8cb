// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/minio/sha256-simd"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/vertcoin-project/vtcd/blockchain/powhash"
	"github.com/vertcoin-project/vtcd/chaincfg"
	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
	"github.com/vertcoin-project/vtcd/crypto/verthash"
	"github.com/vertcoin-project/vtcd/wire"
)

// testTimeOffset is how far after the genesis block the clock of test chains
// is set.  It is large enough for every header the tests create to not be in
// the future.
const testTimeOffset = 1000 * 24 * time.Hour

// testVerthash returns a Verthash hasher over a small data file made of the
// SHA-256 of each little endian uint32 from 0 through 1023.
func testVerthash(t *testing.T) *verthash.Verthash {
	t.Helper()

	var buf bytes.Buffer
	var idx [4]byte
	for i := uint32(0); i < 1024; i++ {
		binary.LittleEndian.PutUint32(idx[:], i)
		sum := sha256.Sum256(idx[:])
		buf.Write(sum[:])
	}
	v, err := verthash.New(buf.Bytes())
	if err != nil {
		t.Fatalf("unable to create verthash hasher: %v", err)
	}
	return v
}

// testMetrics records the header processing notifications of a chain.
type testMetrics struct {
	mtx       sync.Mutex
	connected []int64
	nextBits  uint32
	rejected  []string
}

func (m *testMetrics) HeaderConnected(height int64, nextBits uint32) {
	m.mtx.Lock()
	m.connected = append(m.connected, height)
	m.nextBits = nextBits
	m.mtx.Unlock()
}

func (m *testMetrics) HeaderRejected(reason string) {
	m.mtx.Lock()
	m.rejected = append(m.rejected, reason)
	m.mtx.Unlock()
}

// chainHarness houses a header chain backed by an in-memory database along
// with the hasher used to solve headers for it.
type chainHarness struct {
	t        *testing.T
	params   *chaincfg.Params
	hasher   *powhash.Hasher
	stor     storage.Storage
	db       *leveldb.DB
	chain    *BlockChain
	metrics  *testMetrics
	now      time.Time
	checkpts []chaincfg.Checkpoint
}

// newChainHarness returns a harness for a regression test network header
// chain that only contains the genesis block.
func newChainHarness(t *testing.T, checkpoints []chaincfg.Checkpoint) *chainHarness {
	t.Helper()

	params := chaincfg.RegNetParams()
	h := &chainHarness{
		t:      t,
		params: params,
		hasher: powhash.New(&powhash.Config{
			ChainParams: params,
			Verthash:    testVerthash(t),
		}),
		stor:     storage.NewMemStorage(),
		metrics:  &testMetrics{},
		now:      params.GenesisHeader.Timestamp.Add(testTimeOffset),
		checkpts: checkpoints,
	}
	h.open()
	t.Cleanup(func() {
		if h.db != nil {
			h.db.Close()
		}
	})
	return h
}

// open opens the database of the harness and loads the chain from it.
func (h *chainHarness) open() {
	h.t.Helper()

	db, err := leveldb.Open(h.stor, nil)
	if err != nil {
		h.t.Fatalf("unable to open database: %v", err)
	}
	h.db = db
	chain, err := New(context.Background(), &Config{
		DB:          db,
		ChainParams: h.params,
		Hasher:      h.hasher,
		Checkpoints: h.checkpts,
		TimeSource:  func() time.Time { return h.now },
		Metrics:     h.metrics,
	})
	if err != nil {
		h.t.Fatalf("unable to create chain: %v", err)
	}
	h.chain = chain
}

// reopen closes the database of the harness and loads the chain from it
// again.
func (h *chainHarness) reopen() {
	h.t.Helper()

	if err := h.db.Close(); err != nil {
		h.t.Fatalf("unable to close database: %v", err)
	}
	h.db = nil
	h.open()
}

// headerAt returns the header of the chain with the provided hash.
func (h *chainHarness) headerAt(hash chainhash.Hash) *wire.BlockHeader {
	h.t.Helper()

	header, err := h.chain.HeaderByHash(&hash)
	if err != nil {
		h.t.Fatalf("unable to fetch header %v: %v", hash, err)
	}
	return &header
}

// newHeader returns an unsolved header that builds on the provided parent with
// a timestamp one target block time after it.  The branch value is committed
// to by the merkle root so headers on different branches have different
// hashes.
func (h *chainHarness) newHeader(parent *wire.BlockHeader, branch uint32) *wire.BlockHeader {
	var merkleRoot chainhash.Hash
	binary.LittleEndian.PutUint32(merkleRoot[:], branch)
	return &wire.BlockHeader{
		Version:    0x20000000,
		PrevBlock:  parent.BlockHash(),
		MerkleRoot: merkleRoot,
		Timestamp:  parent.Timestamp.Add(h.params.TargetTimePerBlock),
		Bits:       h.params.PowLimitBits,
	}
}

// solve iterates the nonce of the provided header until its proof-of-work
// hash at the provided height satisfies its target.  Only a couple of
// attempts are expected with the regression test network limit.
func (h *chainHarness) solve(header *wire.BlockHeader, height int64) *wire.BlockHeader {
	h.t.Helper()

	for nonce := uint32(0); nonce < 1000; nonce++ {
		header.Nonce = nonce
		if _, err := h.hasher.CheckProofOfWork(header, height); err == nil {
			return header
		}
	}
	h.t.Fatalf("unable to solve header at height %d", height)
	return nil
}

// unsolve iterates the nonce of the provided header until its proof-of-work
// hash at the provided height does not satisfy its target.
func (h *chainHarness) unsolve(header *wire.BlockHeader, height int64) *wire.BlockHeader {
	h.t.Helper()

	for nonce := uint32(0); nonce < 1000; nonce++ {
		header.Nonce = nonce
		if _, err := h.hasher.CheckProofOfWork(header, height); err != nil {
			return header
		}
	}
	h.t.Fatalf("unable to find a failing nonce at height %d", height)
	return nil
}

// buildBranch returns the given number of solved headers building on the
// provided parent at the provided height.
func (h *chainHarness) buildBranch(parent *wire.BlockHeader, parentHeight int64, n int, branch uint32) []*wire.BlockHeader {
	h.t.Helper()

	headers := make([]*wire.BlockHeader, 0, n)
	for i := 0; i < n; i++ {
		height := parentHeight + int64(i) + 1
		header := h.solve(h.newHeader(parent, branch), height)
		headers = append(headers, header)
		parent = header
	}
	return headers
}

// processAll processes the provided headers in order and fails the test when
// any of them are rejected or do not extend the best chain.
func (h *chainHarness) processAll(headers []*wire.BlockHeader) {
	h.t.Helper()

	for i, header := range headers {
		forkLen, err := h.chain.ProcessHeader(header, BFNone)
		if err != nil {
			h.t.Fatalf("header #%d (%v) rejected: %v", i, header.BlockHash(),
				err)
		}
		if forkLen != 0 {
			h.t.Fatalf("header #%d (%v) has fork length %d", i,
				header.BlockHash(), forkLen)
		}
	}
}

// expectTip fails the test when the tip of the best chain is not the provided
// header at the provided height.
func (h *chainHarness) expectTip(header *wire.BlockHeader, height int64) {
	h.t.Helper()

	wantHash := header.BlockHash()
	gotHash, gotHeight := h.chain.BestHeader()
	if gotHash != wantHash || gotHeight != height {
		h.t.Fatalf("unexpected tip -- got %v (height %d), want %v (height %d)",
			gotHash, gotHeight, wantHash, height)
	}
}

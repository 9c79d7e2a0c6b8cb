// Copyright (c) 2018-2019 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
	"github.com/vertcoin-project/vtcd/wire"
)

// newFakeNode creates a block node connected to the passed parent with the
// provided fields populated and fake values for the other fields.
func newFakeNode(parent *blockNode, blockVersion int32, bits uint32, timestamp time.Time) *blockNode {
	// Make up a header and create a block node from it.
	var prevHash chainhash.Hash
	var height int64
	if parent != nil {
		prevHash = parent.hash
		height = parent.height + 1
	}
	header := &wire.BlockHeader{
		Version:   blockVersion,
		PrevBlock: prevHash,
		Bits:      bits,
		Timestamp: timestamp,
		Nonce:     uint32(height),
	}
	var node blockNode
	initBlockNode(&node, header, height, parent)
	return &node
}

// chainedFakeNodes returns the specified number of nodes constructed such that
// each subsequent node points to the previous one to create a chain.  The
// first node will point to the passed parent which can be nil if desired.
func chainedFakeNodes(parent *blockNode, numNodes int) []*blockNode {
	nodes := make([]*blockNode, numNodes)
	tip := parent
	blockTime := time.Unix(1389688018, 0) // 2014-01-14 08:26:58 +0000 UTC
	if tip != nil {
		blockTime = time.Unix(tip.timestamp, 0)
	}
	for i := 0; i < numNodes; i++ {
		blockTime = blockTime.Add(150 * time.Second)
		node := newFakeNode(tip, 1, 0x207fffff, blockTime)
		tip = node

		nodes[i] = node
	}
	return nodes
}

// branchTip is a convenience function to grab the tip of a chain of block nodes
// created via chainedFakeNodes.
func branchTip(nodes []*blockNode) *blockNode {
	return nodes[len(nodes)-1]
}

// TestBlockNodeHeader ensures that block nodes reconstruct the correct header.
func TestBlockNodeHeader(t *testing.T) {
	t.Parallel()

	parent := newFakeNode(nil, 1, 0x1e0ffff0, time.Unix(1389688018, 0))
	testHeader := wire.BlockHeader{
		Version:    0x20000000,
		PrevBlock:  parent.hash,
		MerkleRoot: *mustParseHash("4a8cf3a0e323c0a5226208a73b7589a52c030f234810cf51e13e3249fc0123e7"),
		Timestamp:  time.Unix(1620000000, 0),
		Bits:       0x1b0404cb,
		Nonce:      0x3ade68b1,
	}
	node := newBlockNode(&testHeader, parent)
	if node.height != 1 {
		t.Fatalf("unexpected height %d", node.height)
	}
	if got := node.Header(); got != testHeader {
		t.Fatalf("mismatched headers: got %v, want %v", spew.Sdump(got),
			spew.Sdump(testHeader))
	}
	if node.hash != testHeader.BlockHash() {
		t.Fatalf("mismatched hash %v", node.hash)
	}

	// The difficulty calculation accessors must reflect the header.
	if node.Height() != 1 || node.Version() != testHeader.Version ||
		node.Timestamp() != 1620000000 || node.Bits() != testHeader.Bits {

		t.Fatalf("unexpected accessor values for %v", spew.Sdump(node))
	}
	if node.Parent() == nil || parent.Parent() != nil {
		t.Fatal("unexpected parent accessor values")
	}
}

// mustParseHash converts the passed big-endian hex string into a
// chainhash.Hash and will panic if there is an error.  It only differs from the
// one available in chainhash in that it will panic so errors in the source code
// be detected.  It will only (and must only) be called with hard-coded, and
// therefore known good, hashes.
func mustParseHash(s string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic("invalid hash in source file: " + s)
	}
	return hash
}

// TestCalcPastMedianTime ensures the CalcPastMedianTime function works as
// intended including when there are less than the typical number of blocks
// which happens near the beginning of the chain.
func TestCalcPastMedianTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		timestamps []int64
		expected   int64
	}{{
		name:       "one block",
		timestamps: []int64{1517188771},
		expected:   1517188771,
	}, {
		name:       "two blocks, in order",
		timestamps: []int64{1517188771, 1517188831},
		expected:   1517188831,
	}, {
		name:       "three blocks, in order",
		timestamps: []int64{1517188771, 1517188831, 1517188891},
		expected:   1517188831,
	}, {
		name:       "three blocks, out of order",
		timestamps: []int64{1517188771, 1517188891, 1517188831},
		expected:   1517188831,
	}, {
		name:       "four blocks, in order",
		timestamps: []int64{1517188771, 1517188831, 1517188891, 1517188951},
		expected:   1517188891,
	}, {
		name:       "four blocks, out of order",
		timestamps: []int64{1517188831, 1517188771, 1517188951, 1517188891},
		expected:   1517188891,
	}, {
		name: "eleven blocks, in order",
		timestamps: []int64{1517188771, 1517188831, 1517188891, 1517188951,
			1517189011, 1517189071, 1517189131, 1517189191, 1517189251,
			1517189311, 1517189371},
		expected: 1517189071,
	}, {
		name: "eleven blocks, out of order",
		timestamps: []int64{1517188831, 1517188771, 1517188891, 1517189011,
			1517188951, 1517189071, 1517189131, 1517189191, 1517189251,
			1517189371, 1517189311},
		expected: 1517189071,
	}, {
		name: "fifteen blocks, in order",
		timestamps: []int64{1517188771, 1517188831, 1517188891, 1517188951,
			1517189011, 1517189071, 1517189131, 1517189191, 1517189251,
			1517189311, 1517189371, 1517189431, 1517189491, 1517189551,
			1517189611},
		expected: 1517189311,
	}, {
		name: "fifteen blocks, out of order",
		timestamps: []int64{1517188771, 1517188891, 1517188831, 1517189011,
			1517188951, 1517189131, 1517189071, 1517189251, 1517189191,
			1517189371, 1517189311, 1517189491, 1517189431, 1517189611,
			1517189551},
		expected: 1517189311,
	}}

	for _, test := range tests {
		// Create a synthetic chain with the correct number of nodes and the
		// timestamps as specified by the test.
		var node *blockNode
		for _, timestamp := range test.timestamps {
			node = newFakeNode(node, 1, 0x207fffff, time.Unix(timestamp, 0))
		}

		// Ensure the median time is the expected value.
		gotTime := node.CalcPastMedianTime()
		wantTime := time.Unix(test.expected, 0)
		if !gotTime.Equal(wantTime) {
			t.Errorf("%s: mismatched timestamps -- got: %v, want: %v",
				test.name, gotTime, wantTime)
			continue
		}
	}
}

// TestAncestorSkipList ensures the skip list functionality and ancestor
// traversal that makes use of it works as expected.
func TestAncestorSkipList(t *testing.T) {
	t.Parallel()

	// Create fake nodes to use for skip list traversal.
	nodes := chainedFakeNodes(nil, 50000)

	// Ensure the skip list is constructed correctly by checking that each node
	// points to an ancestor with a lower height and that said ancestor is
	// actually the node at that height.
	for i, node := range nodes[1:] {
		ancestorHeight := node.skipToAncestor.height
		if ancestorHeight >= int64(i+1) {
			t.Fatalf("height for skip list pointer %d is not lower than "+
				"current node height %d", ancestorHeight, int64(i+1))
		}

		if node.skipToAncestor != nodes[ancestorHeight] {
			t.Fatalf("unxpected node for skip list pointer for height %d",
				ancestorHeight)
		}
	}

	// Use a unique random seed each test instance and log it if the tests fail.
	seed := time.Now().Unix()
	rng := rand.New(rand.NewSource(seed))
	defer func(t *testing.T, seed int64) {
		if t.Failed() {
			t.Logf("random seed: %d", seed)
		}
	}(t, seed)

	for i := 0; i < 2500; i++ {
		// Ensure obtaining the ancestor at a random starting height from the
		// tip is the expected node.
		startHeight := rng.Int63n(int64(len(nodes) - 1))
		startNode := nodes[startHeight]
		if branchTip(nodes).Ancestor(startHeight) != startNode {
			t.Fatalf("unxpected ancestor for height %d from tip",
				startHeight)
		}

		// Ensure obtaining the ancestor at height 0 starting from the node at
		// the random starting height is the expected node.
		if startNode.Ancestor(0) != nodes[0] {
			t.Fatalf("unxpected ancestor for height 0 from start height %d",
				startHeight)
		}

		// Ensure obtaining the ancestor from a random ending height starting
		// from the node at the random starting height is the expected node.
		endHeight := rng.Int63n(startHeight + 1)
		if startNode.Ancestor(endHeight) != nodes[endHeight] {
			t.Fatalf("unxpected ancestor for height %d from start height %d",
				endHeight, startHeight)
		}
	}

	// Heights outside of the chain have no ancestor.
	tip := branchTip(nodes)
	if tip.Ancestor(-1) != nil || tip.Ancestor(tip.height+1) != nil {
		t.Fatal("unexpected ancestor for invalid height")
	}
	if tip.RelativeAncestor(1) != nodes[len(nodes)-2] {
		t.Fatal("unexpected relative ancestor")
	}
}

// TestWorkSorterLess ensures nodes are ordered by cumulative work and then by
// hash.
func TestWorkSorterLess(t *testing.T) {
	t.Parallel()

	base := chainedFakeNodes(nil, 2)
	short, long := base[0], base[1]
	if !workSorterLess(short, long) || workSorterLess(long, short) {
		t.Fatal("nodes with less work must sort first")
	}

	// Nodes with the same work are ordered by hash.
	a := newFakeNode(short, 1, 0x207fffff, time.Unix(1389688500, 0))
	b := newFakeNode(short, 2, 0x207fffff, time.Unix(1389688500, 0))
	if workSorterLess(a, b) == workSorterLess(b, a) {
		t.Fatal("nodes with equal work must be strictly ordered")
	}
	if workSorterLess(a, a) {
		t.Fatal("node must not sort before itself")
	}
}

// TestBlockIndex ensures nodes added to the block index can be looked up and
// the node with the most work is tracked.
func TestBlockIndex(t *testing.T) {
	t.Parallel()

	bi := newBlockIndex()
	nodes := chainedFakeNodes(nil, 5)
	for _, node := range nodes[:3] {
		bi.addNodeFromDB(node)
	}
	for _, node := range nodes[3:] {
		bi.AddNode(node)
	}

	if bi.Len() != 5 {
		t.Fatalf("unexpected index length %d", bi.Len())
	}
	for _, node := range nodes {
		if !bi.HaveBlock(&node.hash) || bi.LookupNode(&node.hash) != node {
			t.Fatalf("node %v not found", node.hash)
		}
	}
	if bi.BestHeader() != branchTip(nodes) {
		t.Fatal("unexpected best header")
	}

	// Only the nodes added outside of initialization are modified.
	if len(bi.modified) != 2 {
		t.Fatalf("unexpected number of modified nodes %d", len(bi.modified))
	}

	var unknown chainhash.Hash
	if bi.HaveBlock(&unknown) || bi.LookupNode(&unknown) != nil {
		t.Fatal("unexpected node for unknown hash")
	}
}

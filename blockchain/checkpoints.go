// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/vertcoin-project/vtcd/chaincfg"
	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
)

// indexCheckpoints returns the provided checkpoints keyed by height.  The
// checkpoints must be sorted by strictly increasing height.
func indexCheckpoints(checkpoints []chaincfg.Checkpoint) (map[int64]*chaincfg.Checkpoint, error) {
	if len(checkpoints) == 0 {
		return nil, nil
	}
	byHeight := make(map[int64]*chaincfg.Checkpoint, len(checkpoints))
	for i := range checkpoints {
		checkpoint := &checkpoints[i]
		if i > 0 && checkpoint.Height <= checkpoints[i-1].Height {
			return nil, AssertError("blockchain.New checkpoints are not " +
				"sorted by height")
		}
		byHeight[checkpoint.Height] = checkpoint
	}
	return byHeight, nil
}

// Checkpoints returns the checkpoints headers must match, or nil when there are
// none.  The returned slice must not be modified.
//
// This function is safe for concurrent access.
func (b *BlockChain) Checkpoints() []chaincfg.Checkpoint {
	return b.checkpoints
}

// LatestCheckpoint returns the checkpoint with the greatest height whether or
// not a header matching it is known yet.  It returns nil when there are no
// checkpoints.
//
// This function is safe for concurrent access.
func (b *BlockChain) LatestCheckpoint() *chaincfg.Checkpoint {
	if len(b.checkpoints) == 0 {
		return nil
	}
	return &b.checkpoints[len(b.checkpoints)-1]
}

// findCheckpointNode sets the most recently known checkpoint to the highest
// checkpoint matched by the best chain.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) findCheckpointNode() {
	b.checkpointNode = nil
	for i := len(b.checkpoints) - 1; i >= 0; i-- {
		checkpoint := &b.checkpoints[i]
		node := b.bestChain.NodeByHeight(checkpoint.Height)
		if node != nil && node.hash == *checkpoint.Hash {
			b.checkpointNode = node
			return
		}
	}
}

// checkHeaderCheckpoints ensures a header with the provided hash at the
// provided height matches the checkpoint at its height, if any, and does not
// fork the main chain before the most recently known checkpoint.  Headers that
// fork that far back build on old headers with a much easier difficulty, so
// they are rejected before they can waste storage.
//
// This function MUST be called with the chain lock held (for reads).
func (b *BlockChain) checkHeaderCheckpoints(hash *chainhash.Hash, height int64) error {
	if checkpoint, ok := b.checkpointsByHeight[height]; ok {
		if *checkpoint.Hash != *hash {
			str := fmt.Sprintf("header %v at height %d does not match "+
				"checkpoint hash %v", hash, height, checkpoint.Hash)
			return ruleError(ErrBadCheckpoint, str)
		}
		log.Infof("Verified checkpoint at height %d/block %s", height, hash)
	}

	if b.checkpointNode != nil && height < b.checkpointNode.height {
		str := fmt.Sprintf("header at height %d forks the main chain "+
			"before the previous checkpoint at height %d", height,
			b.checkpointNode.height)
		return ruleError(ErrForkTooOld, str)
	}
	return nil
}

// maybeUpdateMostRecentCheckpoint updates the most recently known checkpoint
// when the provided node matches a checkpoint higher than it.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) maybeUpdateMostRecentCheckpoint(node *blockNode) {
	checkpoint, ok := b.checkpointsByHeight[node.height]
	if !ok || node.hash != *checkpoint.Hash {
		return
	}
	if b.checkpointNode == nil || b.checkpointNode.height < node.height {
		log.Debugf("Most recent checkpoint updated to %s (height %d)",
			node.hash, node.height)
		b.checkpointNode = node
	}
}

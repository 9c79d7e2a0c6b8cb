// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/vertcoin-project/vtcd/blockchain/powhash"
	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
	"github.com/vertcoin-project/vtcd/internal/progresslog"
	"github.com/vertcoin-project/vtcd/wire"
	"golang.org/x/sync/errgroup"
)

// BehaviorFlags is a bitmask defining tweaks to the normal behavior when
// performing chain processing and consensus rules checks.
type BehaviorFlags uint32

const (
	// BFFastAdd may be set to indicate that several checks can be avoided
	// for the header since it is already known to fit into the chain due to
	// already proving it correct links into the chain up to a known
	// checkpoint.  This is primarily used for headers-first mode.
	BFFastAdd BehaviorFlags = 1 << iota

	// BFNoPoWCheck may be set to indicate the proof of work check which
	// ensures a header hashes to a value less than the required target will
	// not be performed.
	BFNoPoWCheck

	// BFNone is a convenience value to specifically indicate no flags.
	BFNone BehaviorFlags = 0
)

// rejectReason returns the kind of error that caused a header to be rejected
// for the purposes of reporting metrics.
func rejectReason(err error) string {
	var kind ErrorKind
	if errors.As(err, &kind) {
		return string(kind)
	}
	var powKind powhash.ErrorKind
	if errors.As(err, &powKind) {
		return string(powKind)
	}
	return "other"
}

// connectBestChain handles connecting the passed header node to the chain
// while respecting proper chain selection according to the chain with the
// most proof of work.
//
// When the node extends the best chain or has more cumulative work than the
// current tip, and therefore causes a reorganize, the returned fork length
// will be 0.  Otherwise it is the number of headers the side chain the node
// extends has since it forked from the best chain.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) connectBestChain(node *blockNode) int64 {
	// The common case is the node extending the current best chain.
	tip := b.bestChain.Tip()
	if node.parent == tip {
		b.bestChain.SetTip(node)
		return 0
	}

	// Headers on side chains only become the new tip when they have strictly
	// more cumulative work than the current tip.  Ties keep the first seen
	// chain.
	fork := b.bestChain.FindFork(node)
	if node.workSum.Gt(&tip.workSum) {
		log.Infof("REORGANIZE: Header %v (height %d) forks from %v (height "+
			"%d) and replaces tip %v (height %d)", node.hash, node.height,
			fork.hash, fork.height, tip.hash, tip.height)
		b.bestChain.SetTip(node)
		return 0
	}

	log.Debugf("Header %v (height %d) extends a side chain which forks from "+
		"the best chain at height %d", node.hash, node.height, fork.height)
	return node.height - fork.height
}

// updateStateSnapshot replaces the best state snapshot with one describing the
// current tip of the best chain.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) updateStateSnapshot() {
	state := newBestState(b.bestChain.Tip(), b.index.Len())
	b.stateLock.Lock()
	b.stateSnapshot = state
	b.stateLock.Unlock()
}

// processHeader performs all validation of the passed header and, when it
// passes, adds it to the block index and connects it to the chain.  The
// proof-of-work hash is computed when it is nil and needed.
//
// The flags modify the behavior of this function as follows:
//   - BFFastAdd: The positional checks other than those involving the
//     checkpoints are not performed.
//   - BFNoPoWCheck: The check to ensure the header hashes to a value less than
//     the target difficulty is not performed.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) processHeader(header *wire.BlockHeader, powHash *chainhash.Hash, flags BehaviorFlags) (int64, error) {
	// The header must not already exist in the main chain or side chains.
	hash := header.BlockHash()
	if b.index.HaveBlock(&hash) {
		str := fmt.Sprintf("already have header %v", hash)
		return 0, ruleError(ErrDuplicateBlock, str)
	}

	// Orphans are rejected since their height and therefore algorithm and
	// proof-of-work limit are unknown.
	prevNode := b.index.LookupNode(&header.PrevBlock)
	if prevNode == nil {
		str := fmt.Sprintf("previous header %s is not known",
			header.PrevBlock)
		return 0, ruleError(ErrMissingParent, str)
	}
	height := prevNode.height + 1

	if powHash == nil && flags&BFNoPoWCheck != BFNoPoWCheck {
		computed, err := b.PowHash(header, height)
		if err != nil {
			return 0, err
		}
		powHash = &computed
	}

	err := b.checkBlockHeaderSanity(header, height, powHash, flags)
	if err != nil {
		return 0, err
	}
	err = b.checkBlockHeaderPositional(header, prevNode, flags)
	if err != nil {
		return 0, err
	}

	node := newBlockNode(header, prevNode)
	b.index.AddNode(node)
	forkLen := b.connectBestChain(node)
	b.maybeUpdateMostRecentCheckpoint(node)

	log.Tracef("Accepted header %v (height %d)", hash, height)
	return forkLen, nil
}

// reportConnected notifies the metrics of the current tip along with the
// difficulty required of the next header.
//
// This function MUST be called with the chain lock held (for reads).
func (b *BlockChain) reportConnected() {
	if b.metrics == nil {
		return
	}
	tip := b.bestChain.Tip()
	nextBits, err := b.calcNextRequiredDifficulty(tip, b.timeSource())
	if err != nil {
		log.Warnf("Unable to calculate the next difficulty: %v", err)
		return
	}
	b.metrics.HeaderConnected(tip.height, nextBits)
}

// reportRejected notifies the metrics of a rejected header.
func (b *BlockChain) reportRejected(err error) {
	if b.metrics == nil {
		return
	}
	b.metrics.HeaderRejected(rejectReason(err))
}

// ProcessHeader is the main workhorse for handling insertion of new headers
// into the header chain.  It includes functionality such as rejecting
// duplicate headers, ensuring headers follow all rules, and insertion into the
// header chain along with best chain selection and reorganization.
//
// It is up to the caller to ensure the headers are processed in order since
// orphans are rejected.
//
// When no errors occurred during processing, the first return value indicates
// the length of the fork the header extended.  In the case it either extended
// the best chain or is now the tip of the best chain due to causing a
// reorganize, the fork length will be 0.
//
// This function is safe for concurrent access.
func (b *BlockChain) ProcessHeader(header *wire.BlockHeader, flags BehaviorFlags) (int64, error) {
	b.chainLock.Lock()
	defer b.chainLock.Unlock()

	hash := header.BlockHash()
	log.Tracef("Processing header %v", hash)
	currentTime := time.Now()
	defer func() {
		log.Debugf("Header %v finished processing in %s", hash,
			time.Since(currentTime))
	}()

	forkLen, err := b.processHeader(header, nil, flags)
	if err != nil {
		b.reportRejected(err)
		return 0, err
	}
	if err := b.flushHeaderIndex(); err != nil {
		return 0, err
	}
	b.updateStateSnapshot()
	b.reportConnected()

	return forkLen, nil
}

// ProcessHeaders processes a batch of headers which are expected to be
// ordered such that each header either builds on a header earlier in the
// batch or on one already known.  The proof-of-work hashes of the headers are
// computed in parallel and the headers are then connected in order.  Headers
// that are already known are skipped.
//
// Processing stops at the first header that fails validation.  The number of
// headers that were connected before it is returned along with the error.  All
// connected headers are written to the database in a single batch.
//
// This function is safe for concurrent access.
func (b *BlockChain) ProcessHeaders(ctx context.Context, headers []*wire.BlockHeader, flags BehaviorFlags) (int, error) {
	// Determine the height each header would connect at.  Headers that do
	// not connect to a known header or one earlier in the batch are given a
	// negative height and rejected as orphans once reached.
	heights := make([]int64, len(headers))
	batchHeights := make(map[chainhash.Hash]int64, len(headers))
	for i, header := range headers {
		height := int64(-1)
		if parent := b.index.LookupNode(&header.PrevBlock); parent != nil {
			height = parent.height + 1
		} else if h, ok := batchHeights[header.PrevBlock]; ok && h >= 0 {
			height = h + 1
		}
		heights[i] = height
		batchHeights[header.BlockHash()] = height
	}

	// Compute the proof-of-work hashes in parallel since they dominate the
	// cost of validation.  Hashing errors are recorded per header so they
	// are only reported when the header is reached.
	powHashes := make([]*chainhash.Hash, len(headers))
	hashErrs := make([]error, len(headers))
	if flags&BFNoPoWCheck != BFNoPoWCheck {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.NumCPU())
		for i := range headers {
			if heights[i] < 0 {
				continue
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				powHash, err := b.PowHash(headers[i], heights[i])
				if err != nil {
					hashErrs[i] = err
					return nil
				}
				powHashes[i] = &powHash
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return 0, err
		}
	}

	b.chainLock.Lock()
	defer b.chainLock.Unlock()

	progressLogger := progresslog.New("Processed", log)
	var connected int
	var procErr error
	for i, header := range headers {
		if err := ctx.Err(); err != nil {
			procErr = err
			break
		}

		hash := header.BlockHash()
		if b.index.HaveBlock(&hash) {
			continue
		}
		if hashErrs[i] != nil {
			procErr = hashErrs[i]
			break
		}
		if _, err := b.processHeader(header, powHashes[i], flags); err != nil {
			procErr = err
			break
		}
		connected++
		progressLogger.LogProgress(header, heights[i], i == len(headers)-1)
	}

	if procErr != nil && !errors.Is(procErr, context.Canceled) &&
		!errors.Is(procErr, context.DeadlineExceeded) {

		b.reportRejected(procErr)
	}
	if connected == 0 {
		return 0, procErr
	}

	if err := b.flushHeaderIndex(); err != nil {
		return 0, err
	}
	b.updateStateSnapshot()
	b.reportConnected()

	return connected, procErr
}

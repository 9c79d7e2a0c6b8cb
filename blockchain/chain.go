// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/decred/dcrd/container/lru"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/vertcoin-project/vtcd/blockchain/difficulty"
	"github.com/vertcoin-project/vtcd/blockchain/powhash"
	"github.com/vertcoin-project/vtcd/chaincfg"
	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
	"github.com/vertcoin-project/vtcd/wire"
)

// DefaultPowCacheSize is the default number of proof-of-work hashes kept in
// the cache when the configuration does not specify one.
const DefaultPowCacheSize = 10000

// Metrics is the interface header processing is reported to.
type Metrics interface {
	// HeaderConnected is invoked when a header becomes the tip of the best
	// chain along with the difficulty required of the next block.
	HeaderConnected(height int64, nextBits uint32)

	// HeaderRejected is invoked when a header fails validation along with
	// the kind of the rule it violated.
	HeaderRejected(reason string)
}

// BestState houses information about the current best block and other info
// related to the state of the main chain as it exists from the point of view of
// the current best block.
//
// The BestSnapshot method can be used to obtain access to this information
// in a concurrent safe manner and the data will not be changed out from under
// the caller when chain state changes occur as the function name implies.
// However, the returned snapshot must be treated as immutable since it is
// shared by all callers.
type BestState struct {
	Hash       chainhash.Hash // The hash of the block.
	PrevHash   chainhash.Hash // The previous block hash.
	Height     int64          // The height of the block.
	Bits       uint32         // The difficulty bits of the block.
	MedianTime time.Time      // Median time as per CalcPastMedianTime.
	WorkSum    [32]byte       // The total work of the chain, big endian.
	NumHeaders uint64         // The number of known headers.
}

// newBestState returns a new best stats instance for the given parameters.
func newBestState(node *blockNode, numHeaders int) *BestState {
	prevHash := zeroHash
	if node.parent != nil {
		prevHash = node.parent.hash
	}
	return &BestState{
		Hash:       node.hash,
		PrevHash:   prevHash,
		Height:     node.height,
		Bits:       node.bits,
		MedianTime: node.CalcPastMedianTime(),
		WorkSum:    node.workSum.Bytes(),
		NumHeaders: uint64(numHeaders),
	}
}

// powCacheKey identifies a cached proof-of-work hash.  The height is part of
// the key since the algorithm depends on it.
type powCacheKey struct {
	hash   chainhash.Hash
	height int64
}

// BlockChain provides functions for working with the Vertcoin header chain.  It
// includes functionality such as rejecting duplicate headers, ensuring headers
// follow all proof-of-work and difficulty rules, checkpoint handling, and best
// chain selection with reorganization.
type BlockChain struct {
	// The following fields are set when the instance is created and can't
	// be changed afterwards, so there is no need to protect them with a
	// separate mutex.
	checkpoints         []chaincfg.Checkpoint
	checkpointsByHeight map[int64]*chaincfg.Checkpoint
	db                  *leveldb.DB
	chainParams         *chaincfg.Params
	hasher              *powhash.Hasher
	timeSource          func() time.Time
	metrics             Metrics

	// powCache houses recently computed proof-of-work hashes.  It is safe
	// for concurrent access.
	powCache *lru.Map[powCacheKey, chainhash.Hash]

	// chainLock protects concurrent access to the vast majority of the
	// fields in this struct below this point.
	chainLock sync.RWMutex

	// These fields are related to the memory block index.  They both have
	// their own locks, however they are often also protected by the chain
	// lock to help prevent logic races when headers are being processed.
	//
	// index houses the entire block index in memory.  The block index is
	// a tree-shaped structure.
	//
	// bestChain tracks the current active chain by making use of an
	// efficient chain view into the block index.
	index     *blockIndex
	bestChain *chainView

	// checkpointNode tracks the most recently known checkpoint.  It will be nil
	// when no checkpoints are known or are disabled.  It is protected by the
	// chain lock.
	checkpointNode *blockNode

	// The state is used as a fairly efficient way to cache information
	// about the current best chain state that is returned to callers when
	// requested.  It operates on the principle of MVCC such that any time a
	// new block becomes the best block, the state pointer is replaced with
	// a new struct and the old state is left untouched.
	stateLock     sync.RWMutex
	stateSnapshot *BestState
}

// Config is a descriptor which specifies the header chain instance
// configuration.
type Config struct {
	// DB defines the database which houses the headers and will be used to
	// store all new headers.
	//
	// This field is required.
	DB *leveldb.DB

	// ChainParams identifies which chain parameters the chain is associated
	// with.
	//
	// This field is required.
	ChainParams *chaincfg.Params

	// Hasher computes the proof-of-work hashes of headers.
	//
	// This field is required.
	Hasher *powhash.Hasher

	// Checkpoints specifies the checkpoints headers must match.  They must be
	// sorted by height.  Nil disables checkpoints.
	Checkpoints []chaincfg.Checkpoint

	// TimeSource returns the current time used to reject headers too far in
	// the future.  It defaults to the local clock.
	TimeSource func() time.Time

	// PowCacheSize is the number of proof-of-work hashes to cache.  Zero
	// selects DefaultPowCacheSize.
	PowCacheSize uint32

	// Metrics is notified of processed headers when set.
	Metrics Metrics
}

// New returns a BlockChain instance using the provided configuration details.
// The chain state is loaded from the database, which is initialized with the
// genesis block of the network when it is empty.
func New(ctx context.Context, config *Config) (*BlockChain, error) {
	// Enforce required config fields.
	if config.DB == nil {
		return nil, AssertError("blockchain.New database is nil")
	}
	if config.ChainParams == nil {
		return nil, AssertError("blockchain.New chain parameters nil")
	}
	if config.Hasher == nil {
		return nil, AssertError("blockchain.New proof-of-work hasher is nil")
	}

	checkpointsByHeight, err := indexCheckpoints(config.Checkpoints)
	if err != nil {
		return nil, err
	}

	timeSource := config.TimeSource
	if timeSource == nil {
		timeSource = time.Now
	}
	powCacheSize := config.PowCacheSize
	if powCacheSize == 0 {
		powCacheSize = DefaultPowCacheSize
	}

	b := BlockChain{
		checkpoints:         config.Checkpoints,
		checkpointsByHeight: checkpointsByHeight,
		db:                  config.DB,
		chainParams:         config.ChainParams,
		hasher:              config.Hasher,
		timeSource:          timeSource,
		metrics:             config.Metrics,
		powCache:            lru.NewMap[powCacheKey, chainhash.Hash](powCacheSize),
		index:               newBlockIndex(),
		bestChain:           newChainView(nil),
	}

	// Initialize the chain state from the passed database.  When the db
	// does not yet contain any chain state, both it and the chain state
	// will be initialized to contain only the genesis block.
	if err := b.initChainState(ctx); err != nil {
		return nil, err
	}

	b.findCheckpointNode()

	tip := b.bestChain.Tip()
	b.stateSnapshot = newBestState(tip, b.index.Len())
	log.Infof("Chain state: height %d, hash %v, headers %d", tip.height,
		tip.hash, b.stateSnapshot.NumHeaders)

	return &b, nil
}

// ChainParams returns the network parameters of the chain.
//
// This function is safe for concurrent access.
func (b *BlockChain) ChainParams() *chaincfg.Params {
	return b.chainParams
}

// BestSnapshot returns information about the current best chain block and
// related state as of the current point in time.  The returned instance must be
// treated as immutable since it is shared by all callers.
//
// This function is safe for concurrent access.
func (b *BlockChain) BestSnapshot() *BestState {
	b.stateLock.RLock()
	snapshot := b.stateSnapshot
	b.stateLock.RUnlock()
	return snapshot
}

// BestHeader returns the hash and height of the tip of the best chain.
//
// This function is safe for concurrent access.
func (b *BlockChain) BestHeader() (chainhash.Hash, int64) {
	snapshot := b.BestSnapshot()
	return snapshot.Hash, snapshot.Height
}

// HaveHeader returns whether or not the chain instance has the header
// represented by the passed hash.  This includes checking the various places a
// header can be like part of the main chain or on a side chain.
//
// This function is safe for concurrent access.
func (b *BlockChain) HaveHeader(hash *chainhash.Hash) bool {
	return b.index.HaveBlock(hash)
}

// HeaderByHash returns the block header identified by the given hash or an
// error if it doesn't exist.  Note that this will return headers from both the
// main chain and any side chains.
//
// This function is safe for concurrent access.
func (b *BlockChain) HeaderByHash(hash *chainhash.Hash) (wire.BlockHeader, error) {
	node := b.index.LookupNode(hash)
	if node == nil {
		return wire.BlockHeader{}, unknownBlockError(hash)
	}

	return node.Header(), nil
}

// HeaderByHeight returns the block header at the given height in the main
// chain.
//
// This function is safe for concurrent access.
func (b *BlockChain) HeaderByHeight(height int64) (wire.BlockHeader, error) {
	node := b.bestChain.NodeByHeight(height)
	if node == nil {
		str := fmt.Sprintf("no block at height %d exists", height)
		return wire.BlockHeader{}, contextError(ErrNotInMainChain, str)
	}

	return node.Header(), nil
}

// HeaderHeight returns the height of the header identified by the provided
// hash.  Note that this will return heights for headers on side chains.
//
// This function is safe for concurrent access.
func (b *BlockChain) HeaderHeight(hash *chainhash.Hash) (int64, error) {
	node := b.index.LookupNode(hash)
	if node == nil {
		return 0, unknownBlockError(hash)
	}

	return node.height, nil
}

// MainChainHasHeader returns whether or not the header with the given hash is
// in the main chain.
//
// This function is safe for concurrent access.
func (b *BlockChain) MainChainHasHeader(hash *chainhash.Hash) bool {
	node := b.index.LookupNode(hash)
	return node != nil && b.bestChain.Contains(node)
}

// calcNextRequiredDifficulty calculates the required difficulty for the block
// after the passed previous block node based on the difficulty retarget rules.
func (b *BlockChain) calcNextRequiredDifficulty(prevNode *blockNode, newBlockTime time.Time) (uint32, error) {
	// Avoid passing a typed nil pointer in the interface.
	var prev difficulty.HeaderCtx
	if prevNode != nil {
		prev = prevNode
	}
	return difficulty.NextWorkRequired(prev, newBlockTime.Unix(),
		b.chainParams)
}

// CalcNextRequiredDifficulty calculates the required difficulty for the block
// after the end of the current best chain based on the difficulty retarget
// rules.
//
// This function is safe for concurrent access.
func (b *BlockChain) CalcNextRequiredDifficulty(newBlockTime time.Time) (uint32, error) {
	b.chainLock.RLock()
	bits, err := b.calcNextRequiredDifficulty(b.bestChain.Tip(), newBlockTime)
	b.chainLock.RUnlock()
	return bits, err
}

// PowHash returns the proof-of-work hash of the provided header at the provided
// height.  Recently computed hashes are served from a cache.
//
// This function is safe for concurrent access.
func (b *BlockChain) PowHash(header *wire.BlockHeader, height int64) (chainhash.Hash, error) {
	key := powCacheKey{hash: header.BlockHash(), height: height}
	if powHash, ok := b.powCache.Get(key); ok {
		return powHash, nil
	}

	powHash, err := b.hasher.PowHash(header, height)
	if err != nil {
		return chainhash.Hash{}, err
	}
	b.powCache.Put(key, powHash)
	return powHash, nil
}

// PowCacheHitRatio returns the ratio of proof-of-work hash lookups served
// from the cache.
func (b *BlockChain) PowCacheHitRatio() float64 {
	return b.powCache.HitRatio()
}

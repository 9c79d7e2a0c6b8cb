// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2023 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cpuminer

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/dcrd/math/uint256"
	"github.com/vertcoin-project/vtcd/blockchain"
	"github.com/vertcoin-project/vtcd/blockchain/powhash"
	"github.com/vertcoin-project/vtcd/blockchain/standalone"
	"github.com/vertcoin-project/vtcd/chaincfg"
	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
	"github.com/vertcoin-project/vtcd/wire"
	"golang.org/x/sync/errgroup"
)

const (
	// maxNonce is the maximum value a nonce can be in a block header.
	maxNonce = ^uint32(0) // 2^32 - 1

	// checkInterval is the number of nonces each worker tries in between
	// checks for cancellation.
	checkInterval = 65535

	// blockVersion is the version of the generated headers.
	blockVersion = 0x20000000
)

var (
	// MaxNumWorkers is the maximum number of workers that will be allowed for
	// mining and is based on the number of processor cores.  This helps ensure
	// system stays reasonably responsive under heavy load.
	MaxNumWorkers = uint32(runtime.NumCPU() * 2)

	// defaultNumWorkers is the default number of workers to use for mining.
	defaultNumWorkers = uint32(1)

	// littleEndian is a convenience variable since binary.LittleEndian is
	// quite long.
	littleEndian = binary.LittleEndian
)

// ErrGenerateUnsupported indicates headers were requested to be generated on
// a network that does not support it.
var ErrGenerateUnsupported = errors.New("no support for generating headers " +
	"on the current network")

// speedStats houses tracking information used to monitor the hashing speed of
// the CPU miner.
type speedStats struct {
	totalHashes  atomic.Uint64
	elapsedNanos atomic.Uint64
}

// Chain is the header chain the CPU miner extends.
type Chain interface {
	BestSnapshot() *blockchain.BestState
	CalcNextRequiredDifficulty(newBlockTime time.Time) (uint32, error)
	ProcessHeader(header *wire.BlockHeader, flags blockchain.BehaviorFlags) (int64, error)
}

// Metrics is the interface solved headers are reported to.
type Metrics interface {
	HeaderSolved()
}

// Config is a descriptor containing the CPU miner configuration.
type Config struct {
	// ChainParams identifies which chain parameters the CPU miner is
	// associated with.
	ChainParams *chaincfg.Params

	// Hasher computes the proof-of-work hashes of candidate headers.
	Hasher *powhash.Hasher

	// Chain is the header chain solved headers are submitted to.
	Chain Chain

	// TimeSource returns the current time used for the timestamp of
	// generated headers.  It defaults to the local clock.
	TimeSource func() time.Time

	// Metrics is notified of solved headers when set.
	Metrics Metrics
}

// CPUMiner provides facilities for solving headers (mining) using the CPU in
// a concurrency-safe manner.  The nonce space of a header is split between
// worker goroutines.  The number of workers can be set via the SetNumWorkers
// function.
type CPUMiner struct {
	numWorkers atomic.Uint32
	cfg        Config
	stats      speedStats

	// generateMtx ensures only one call to GenerateHeaders extends the
	// chain at a time.
	generateMtx sync.Mutex
}

// SolveHeader attempts to find a nonce for the provided header which makes
// its proof-of-work hash at the provided height not exceed the provided
// target.  The nonce space is split between the workers, each of which checks
// for cancellation every 65535 nonces.
//
// It returns true with the nonce of the header updated when a solution is
// found.  It returns false when the entire nonce space was searched without
// finding a solution, in which case the caller is expected to update another
// field of the header, such as the timestamp, and try again.
func (m *CPUMiner) SolveHeader(ctx context.Context, header *wire.BlockHeader, height int64, target *uint256.Uint256) (bool, error) {
	hasher := m.cfg.Hasher
	algo := hasher.Algo(header, height)
	numWorkers := m.numWorkers.Load()

	solveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var solved atomic.Bool
	var solution atomic.Uint32
	serialized := header.SerializeArray()
	g, gctx := errgroup.WithContext(solveCtx)
	for worker := uint32(0); worker < numWorkers; worker++ {
		g.Go(func() error {
			// Each worker mutates its own copy of the serialized header so
			// only the nonce needs to be updated in the loop below.
			hdrBytes := serialized
			var hashesCompleted uint64
			start := time.Now()
			defer func() {
				m.stats.totalHashes.Add(hashesCompleted)
				elapsed := time.Since(start).Nanoseconds()
				m.stats.elapsedNanos.Add(uint64(elapsed))
			}()

			step := uint64(numWorkers)
			for nonce := uint64(worker); nonce <= uint64(maxNonce); nonce += step {
				if hashesCompleted%checkInterval == 0 && gctx.Err() != nil {
					return nil
				}

				littleEndian.PutUint32(hdrBytes[wire.NonceOffset:], uint32(nonce))
				hash, err := hasher.Sum(algo, hdrBytes[:], height)
				if err != nil {
					return err
				}
				hashesCompleted++

				// The header is solved when the hash does not exceed the
				// target difficulty.
				if n := standalone.HashToUint256(&hash); n.LtEq(target) {
					if solved.CompareAndSwap(false, true) {
						solution.Store(uint32(nonce))
					}
					cancel()
					return nil
				}
			}
			return nil
		})
	}
	err := g.Wait()
	if solved.Load() {
		header.Nonce = solution.Load()
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, ctx.Err()
}

// nextHeader returns an unsolved header that extends the provided best chain
// state along with the target its proof-of-work hash must satisfy.
func (m *CPUMiner) nextHeader(best *blockchain.BestState) (*wire.BlockHeader, *uint256.Uint256, error) {
	// The timestamp must be after the median time of the last several
	// blocks.
	timestamp := time.Unix(m.cfg.TimeSource().Unix(), 0)
	if !timestamp.After(best.MedianTime) {
		timestamp = best.MedianTime.Add(time.Second)
	}

	bits, err := m.cfg.Chain.CalcNextRequiredDifficulty(timestamp)
	if err != nil {
		return nil, nil, err
	}
	target, isNeg, overflows := standalone.DiffBitsToUint256(bits)
	if isNeg || overflows {
		return nil, nil, fmt.Errorf("unable to convert difficulty bits %08x "+
			"to a target (negative: %v, overflows: %v)", bits, isNeg,
			overflows)
	}

	// There are no transactions, so commit to the height in place of a merkle
	// root to distinguish the headers of competing miners.
	var heightBytes [8]byte
	littleEndian.PutUint64(heightBytes[:], uint64(best.Height+1))
	header := &wire.BlockHeader{
		Version:    blockVersion,
		PrevBlock:  best.Hash,
		MerkleRoot: chainhash.HashH(heightBytes[:]),
		Timestamp:  timestamp,
		Bits:       bits,
	}
	return header, &target, nil
}

// GenerateHeaders generates the requested number of headers that extend the
// best chain and submits them to it.  It returns the hashes of the generated
// headers.
//
// It is only supported on networks that permit generation, such as the
// regression test network.
func (m *CPUMiner) GenerateHeaders(ctx context.Context, n uint32) ([]chainhash.Hash, error) {
	if !m.cfg.ChainParams.GenerateSupported {
		return nil, ErrGenerateUnsupported
	}

	m.generateMtx.Lock()
	defer m.generateMtx.Unlock()

	log.Tracef("Generating %d headers", n)
	hashes := make([]chainhash.Hash, 0, n)
	for uint32(len(hashes)) < n {
		best := m.cfg.Chain.BestSnapshot()
		height := best.Height + 1
		header, target, err := m.nextHeader(best)
		if err != nil {
			return hashes, err
		}

		// Roll the timestamp forward when the nonce space is exhausted.
		for {
			solved, err := m.SolveHeader(ctx, header, height, target)
			if err != nil {
				return hashes, err
			}
			if solved {
				break
			}
			header.Timestamp = header.Timestamp.Add(time.Second)
		}

		if _, err := m.cfg.Chain.ProcessHeader(header, blockchain.BFNone); err != nil {
			return hashes, fmt.Errorf("generated header at height %d was "+
				"rejected: %w", height, err)
		}
		if m.cfg.Metrics != nil {
			m.cfg.Metrics.HeaderSolved()
		}

		hash := header.BlockHash()
		log.Infof("Generated header %v (height %d)", hash, height)
		hashes = append(hashes, hash)
	}

	return hashes, nil
}

// HashesPerSecond returns the average number of hashes per second each worker
// has been performing.  It is 0 when nothing has been mined yet.
//
// This function is safe for concurrent access.
func (m *CPUMiner) HashesPerSecond() float64 {
	elapsedNanos := m.stats.elapsedNanos.Load()
	if elapsedNanos == 0 {
		return 0
	}
	totalHashes := m.stats.totalHashes.Load()
	return float64(totalHashes) / (float64(elapsedNanos) / 1e9)
}

// SetNumWorkers sets the number of workers to create which solve headers.  Any
// negative values will cause a default number of workers to be used which is
// based on the number of processor cores in the system.  A value of 0 will
// cause the default of one worker.  Values over MaxNumWorkers are clamped.
//
// This function is safe for concurrent access.
func (m *CPUMiner) SetNumWorkers(numWorkers int32) {
	targetNumWorkers := uint32(numWorkers)
	switch {
	case numWorkers < 0:
		targetNumWorkers = uint32(runtime.NumCPU())
	case numWorkers == 0:
		targetNumWorkers = defaultNumWorkers
	case targetNumWorkers > MaxNumWorkers:
		targetNumWorkers = MaxNumWorkers
	}
	m.numWorkers.Store(targetNumWorkers)
}

// NumWorkers returns the number of workers which are running to solve headers.
//
// This function is safe for concurrent access.
func (m *CPUMiner) NumWorkers() int32 {
	return int32(m.numWorkers.Load())
}

// New returns a new instance of a CPU miner for the provided configuration.
func New(cfg *Config) *CPUMiner {
	miner := &CPUMiner{cfg: *cfg}
	if miner.cfg.TimeSource == nil {
		miner.cfg.TimeSource = time.Now
	}
	miner.numWorkers.Store(defaultNumWorkers)
	return miner
}

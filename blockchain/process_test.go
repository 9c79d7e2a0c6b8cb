// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/vertcoin-project/vtcd/chaincfg"
	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
	"github.com/vertcoin-project/vtcd/wire"
)

// TestProcessHeaderExtends ensures solved headers that extend the best chain
// are accepted and can be queried.
func TestProcessHeaderExtends(t *testing.T) {
	t.Parallel()

	h := newChainHarness(t, nil)
	headers := h.buildBranch(h.params.GenesisHeader, 0, 10, 0)
	h.processAll(headers)
	h.expectTip(headers[9], 10)

	for i, header := range headers {
		hash := header.BlockHash()
		height := int64(i + 1)
		if !h.chain.HaveHeader(&hash) {
			t.Fatalf("header at height %d not known", height)
		}
		if !h.chain.MainChainHasHeader(&hash) {
			t.Fatalf("header at height %d not in main chain", height)
		}
		gotHeight, err := h.chain.HeaderHeight(&hash)
		if err != nil || gotHeight != height {
			t.Fatalf("HeaderHeight: got %d (err %v), want %d", gotHeight,
				err, height)
		}
		gotHeader, err := h.chain.HeaderByHeight(height)
		if err != nil {
			t.Fatalf("HeaderByHeight(%d): %v", height, err)
		}
		if gotHeader != *header {
			t.Fatalf("HeaderByHeight(%d): got %v, want %v", height,
				spew.Sdump(gotHeader), spew.Sdump(header))
		}
	}

	snapshot := h.chain.BestSnapshot()
	if snapshot.NumHeaders != 11 {
		t.Fatalf("unexpected number of headers -- got %d, want 11",
			snapshot.NumHeaders)
	}
	if snapshot.PrevHash != headers[8].BlockHash() {
		t.Fatalf("unexpected previous hash %v", snapshot.PrevHash)
	}
	if snapshot.Bits != h.params.PowLimitBits {
		t.Fatalf("unexpected bits %08x", snapshot.Bits)
	}

	// Each header at the regression test network limit has a work of two.
	if snapshot.WorkSum[31] != 22 {
		t.Fatalf("unexpected work sum %x", snapshot.WorkSum)
	}

	// The metrics must have been notified of every connected header.
	if len(h.metrics.connected) != 10 || h.metrics.connected[9] != 10 {
		t.Fatalf("unexpected connected metrics %v", h.metrics.connected)
	}
	if h.metrics.nextBits != h.params.PowLimitBits {
		t.Fatalf("unexpected next bits %08x", h.metrics.nextBits)
	}

	// Unknown headers and heights must be reported.
	var unknown chainhash.Hash
	if _, err := h.chain.HeaderByHash(&unknown); !errors.Is(err, ErrUnknownBlock) {
		t.Fatalf("HeaderByHash: unexpected error %v", err)
	}
	if _, err := h.chain.HeaderByHeight(11); !errors.Is(err, ErrNotInMainChain) {
		t.Fatalf("HeaderByHeight: unexpected error %v", err)
	}
}

// TestProcessHeaderErrors ensures headers that violate the rules are rejected
// with the expected error kind.
func TestProcessHeaderErrors(t *testing.T) {
	t.Parallel()

	h := newChainHarness(t, nil)
	headers := h.buildBranch(h.params.GenesisHeader, 0, 12, 0)
	h.processAll(headers)
	tip := headers[len(headers)-1]
	const nextHeight = 13

	tests := []struct {
		name    string                   // test description
		header  func() *wire.BlockHeader // header to process
		flags   BehaviorFlags            // processing flags
		wantErr error                    // expected error kind
	}{{
		name:    "duplicate header",
		header:  func() *wire.BlockHeader { return headers[5] },
		wantErr: ErrDuplicateBlock,
	}, {
		name: "missing parent",
		header: func() *wire.BlockHeader {
			orphan := h.newHeader(tip, 1)
			orphan.PrevBlock = chainhash.Hash{0x01}
			return orphan
		},
		flags:   BFNoPoWCheck,
		wantErr: ErrMissingParent,
	}, {
		name: "hash above target",
		header: func() *wire.BlockHeader {
			return h.unsolve(h.newHeader(tip, 1), nextHeight)
		},
		wantErr: ErrHighHash,
	}, {
		name: "target above the proof-of-work limit",
		header: func() *wire.BlockHeader {
			header := h.newHeader(tip, 1)
			header.Bits = 0x2100ffff
			return header
		},
		flags:   BFNoPoWCheck,
		wantErr: ErrUnexpectedDifficulty,
	}, {
		name: "unexpected difficulty",
		header: func() *wire.BlockHeader {
			header := h.newHeader(tip, 1)
			header.Bits = 0x207ffffe
			return header
		},
		flags:   BFNoPoWCheck,
		wantErr: ErrUnexpectedDifficulty,
	}, {
		name: "timestamp with sub-second precision",
		header: func() *wire.BlockHeader {
			header := h.newHeader(tip, 1)
			header.Timestamp = header.Timestamp.Add(time.Nanosecond)
			return header
		},
		flags:   BFNoPoWCheck,
		wantErr: ErrInvalidTime,
	}, {
		name: "timestamp too far in the future",
		header: func() *wire.BlockHeader {
			header := h.newHeader(tip, 1)
			header.Timestamp = h.now.Add(MaxTimeOffsetSeconds*time.Second +
				time.Second)
			return header
		},
		flags:   BFNoPoWCheck,
		wantErr: ErrTimeTooNew,
	}, {
		name: "timestamp not after the median time",
		header: func() *wire.BlockHeader {
			header := h.newHeader(tip, 1)
			header.Timestamp = h.chain.BestSnapshot().MedianTime
			return header
		},
		flags:   BFNoPoWCheck,
		wantErr: ErrTimeTooOld,
	}}

	for _, test := range tests {
		_, err := h.chain.ProcessHeader(test.header(), test.flags)
		if !errors.Is(err, test.wantErr) {
			t.Errorf("%q: unexpected error -- got %v, want %v", test.name,
				err, test.wantErr)
			continue
		}
		var rErr RuleError
		if !errors.As(err, &rErr) {
			t.Errorf("%q: error is not a RuleError: %T", test.name, err)
			continue
		}
	}

	// None of the rejected headers may have changed the chain.
	h.expectTip(tip, 12)
	if got := len(h.metrics.rejected); got != len(tests) {
		t.Fatalf("unexpected number of rejections -- got %d, want %d", got,
			len(tests))
	}
	if h.metrics.rejected[0] != string(ErrDuplicateBlock) {
		t.Fatalf("unexpected rejection reason %q", h.metrics.rejected[0])
	}

	// Timestamps not after the median time are accepted in fast add mode.
	header := h.newHeader(tip, 1)
	header.Timestamp = h.chain.BestSnapshot().MedianTime
	if _, err := h.chain.ProcessHeader(header, BFFastAdd|BFNoPoWCheck); err != nil {
		t.Fatalf("fast add header rejected: %v", err)
	}
	h.expectTip(header, 13)
}

// TestReorganize ensures side chains are tracked with their fork length and
// that a side chain with more cumulative work becomes the best chain.
func TestReorganize(t *testing.T) {
	t.Parallel()

	h := newChainHarness(t, nil)
	genesis := h.params.GenesisHeader
	mainBranch := h.buildBranch(genesis, 0, 3, 0)
	h.processAll(mainBranch)

	sideBranch := h.buildBranch(genesis, 0, 4, 1)
	tests := []struct {
		header      *wire.BlockHeader
		wantForkLen int64
		wantTip     *wire.BlockHeader
		wantHeight  int64
	}{
		{sideBranch[0], 1, mainBranch[2], 3},
		{sideBranch[1], 2, mainBranch[2], 3},
		{sideBranch[2], 3, mainBranch[2], 3}, // equal work keeps first seen
		{sideBranch[3], 0, sideBranch[3], 4}, // more work reorganizes
	}
	for i, test := range tests {
		forkLen, err := h.chain.ProcessHeader(test.header, BFNone)
		if err != nil {
			t.Fatalf("#%d: unexpected error: %v", i, err)
		}
		if forkLen != test.wantForkLen {
			t.Fatalf("#%d: unexpected fork length -- got %d, want %d", i,
				forkLen, test.wantForkLen)
		}
		h.expectTip(test.wantTip, test.wantHeight)
	}

	for _, header := range mainBranch {
		hash := header.BlockHash()
		if h.chain.MainChainHasHeader(&hash) {
			t.Fatalf("header %v still in the main chain", hash)
		}
		if !h.chain.HaveHeader(&hash) {
			t.Fatalf("header %v no longer known", hash)
		}
	}
	for i, header := range sideBranch {
		got, err := h.chain.HeaderByHeight(int64(i + 1))
		if err != nil || got.BlockHash() != header.BlockHash() {
			t.Fatalf("unexpected main chain header at height %d", i+1)
		}
	}
	if got := h.chain.BestSnapshot().NumHeaders; got != 8 {
		t.Fatalf("unexpected number of headers -- got %d, want 8", got)
	}

	// Extending the old branch continues to track it as a side chain.
	extra := h.buildBranch(mainBranch[2], 3, 1, 0)
	forkLen, err := h.chain.ProcessHeader(extra[0], BFNone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if forkLen != 4 {
		t.Fatalf("unexpected fork length -- got %d, want 4", forkLen)
	}
	h.expectTip(sideBranch[3], 4)
}

// TestCheckpoints ensures headers must match the checkpoints and may not fork
// the chain before the most recent known checkpoint.
func TestCheckpoints(t *testing.T) {
	t.Parallel()

	// Build the headers with a separate harness so their hashes can be used
	// as checkpoints.
	gen := newChainHarness(t, nil)
	headers := gen.buildBranch(gen.params.GenesisHeader, 0, 6, 0)
	hash2, hash4 := headers[1].BlockHash(), headers[3].BlockHash()
	checkpoints := []chaincfg.Checkpoint{
		{Height: 2, Hash: &hash2},
		{Height: 4, Hash: &hash4},
	}

	h := newChainHarness(t, checkpoints)
	if got := h.chain.LatestCheckpoint(); got == nil || got.Height != 4 {
		t.Fatalf("unexpected latest checkpoint %v", spew.Sdump(got))
	}
	if got := len(h.chain.Checkpoints()); got != 2 {
		t.Fatalf("unexpected number of checkpoints %d", got)
	}

	h.processAll(headers[:5])
	if h.chain.checkpointNode == nil || h.chain.checkpointNode.height != 4 {
		t.Fatalf("most recent checkpoint not updated")
	}

	// A header forking before the most recent checkpoint must be rejected.
	fork := h.buildBranch(headers[1], 2, 1, 1)
	_, err := h.chain.ProcessHeader(fork[0], BFNone)
	if !errors.Is(err, ErrForkTooOld) {
		t.Fatalf("unexpected error -- got %v, want %v", err, ErrForkTooOld)
	}

	// A header at a checkpoint height with a different hash must be rejected.
	h2 := newChainHarness(t, checkpoints)
	h2.processAll(headers[:1])
	wrong := h2.buildBranch(headers[0], 1, 1, 1)
	_, err = h2.chain.ProcessHeader(wrong[0], BFNone)
	if !errors.Is(err, ErrBadCheckpoint) {
		t.Fatalf("unexpected error -- got %v, want %v", err, ErrBadCheckpoint)
	}

	// The most recent checkpoint must be found when the chain is loaded.
	h.reopen()
	if h.chain.checkpointNode == nil || h.chain.checkpointNode.height != 4 {
		t.Fatalf("most recent checkpoint not found on load")
	}
}

// TestNewErrors ensures invalid configurations are rejected.
func TestNewErrors(t *testing.T) {
	t.Parallel()

	h := newChainHarness(t, nil)
	hash := h.params.GenesisHash
	tests := []struct {
		name   string
		config Config
	}{{
		name:   "no database",
		config: Config{ChainParams: h.params, Hasher: h.hasher},
	}, {
		name:   "no chain params",
		config: Config{DB: h.db, Hasher: h.hasher},
	}, {
		name:   "no hasher",
		config: Config{DB: h.db, ChainParams: h.params},
	}, {
		name: "unsorted checkpoints",
		config: Config{DB: h.db, ChainParams: h.params, Hasher: h.hasher,
			Checkpoints: []chaincfg.Checkpoint{
				{Height: 5, Hash: &hash},
				{Height: 5, Hash: &hash},
			}},
	}}

	for _, test := range tests {
		_, err := New(context.Background(), &test.config)
		var aErr AssertError
		if !errors.As(err, &aErr) {
			t.Errorf("%q: unexpected error -- got %v, want AssertError",
				test.name, err)
		}
	}
}

// TestPersistence ensures the header chain, including side chains, is
// restored when the database is loaded again.
func TestPersistence(t *testing.T) {
	t.Parallel()

	h := newChainHarness(t, nil)
	genesis := h.params.GenesisHeader
	headers := h.buildBranch(genesis, 0, 5, 0)
	h.processAll(headers)
	side := h.buildBranch(headers[1], 2, 2, 1)
	for _, header := range side {
		if _, err := h.chain.ProcessHeader(header, BFNone); err != nil {
			t.Fatalf("side chain header rejected: %v", err)
		}
	}
	want := *h.chain.BestSnapshot()

	h.reopen()
	got := *h.chain.BestSnapshot()
	if got.Hash != want.Hash || got.Height != want.Height ||
		got.WorkSum != want.WorkSum || got.NumHeaders != want.NumHeaders ||
		!got.MedianTime.Equal(want.MedianTime) {

		t.Fatalf("mismatched state after reload\ngot: %v\nwant: %v",
			spew.Sdump(got), spew.Sdump(want))
	}
	for _, header := range side {
		hash := header.BlockHash()
		if !h.chain.HaveHeader(&hash) || h.chain.MainChainHasHeader(&hash) {
			t.Fatalf("side chain header %v not restored", hash)
		}
	}

	// The reloaded chain must continue to accept headers.
	next := h.buildBranch(headers[4], 5, 1, 0)
	h.processAll(next)
	h.expectTip(next[0], 6)
}

// TestProcessHeaders ensures batches of headers are processed with their
// proof-of-work hashes computed in parallel.
func TestProcessHeaders(t *testing.T) {
	t.Parallel()

	h := newChainHarness(t, nil)
	headers := h.buildBranch(h.params.GenesisHeader, 0, 20, 0)
	ctx := context.Background()

	n, err := h.chain.ProcessHeaders(ctx, headers[:15], BFNone)
	if err != nil || n != 15 {
		t.Fatalf("unexpected result -- got %d (err %v), want 15", n, err)
	}
	h.expectTip(headers[14], 15)

	// Known headers are skipped.
	n, err = h.chain.ProcessHeaders(ctx, headers, BFNone)
	if err != nil || n != 5 {
		t.Fatalf("unexpected result -- got %d (err %v), want 5", n, err)
	}
	h.expectTip(headers[19], 20)
	n, err = h.chain.ProcessHeaders(ctx, headers, BFNone)
	if err != nil || n != 0 {
		t.Fatalf("unexpected result -- got %d (err %v), want 0", n, err)
	}

	// Headers that do not connect are rejected as orphans.
	orphans := h.buildBranch(headers[19], 20, 2, 0)
	n, err = h.chain.ProcessHeaders(ctx, orphans[1:], BFNone)
	if !errors.Is(err, ErrMissingParent) || n != 0 {
		t.Fatalf("unexpected result -- got %d (err %v), want 0 and %v", n,
			err, ErrMissingParent)
	}

	// Processing stops at the first invalid header and keeps the headers
	// connected before it.
	batch := h.buildBranch(headers[19], 20, 3, 0)
	bad := h.newHeader(batch[2], 0)
	bad.Bits = 0x207ffffe
	bad = h.solve(bad, 24)
	batch = append(batch, bad)
	batch = append(batch, h.buildBranch(bad, 24, 1, 0)...)
	n, err = h.chain.ProcessHeaders(ctx, batch, BFNone)
	if !errors.Is(err, ErrUnexpectedDifficulty) || n != 3 {
		t.Fatalf("unexpected result -- got %d (err %v), want 3 and %v", n,
			err, ErrUnexpectedDifficulty)
	}
	h.expectTip(batch[2], 23)
	if got := h.chain.BestSnapshot().NumHeaders; got != 24 {
		t.Fatalf("unexpected number of headers -- got %d, want 24", got)
	}

	// A canceled context aborts processing.
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	more := h.buildBranch(batch[2], 23, 2, 0)
	n, err = h.chain.ProcessHeaders(canceled, more, BFNone)
	if !errors.Is(err, context.Canceled) || n != 0 {
		t.Fatalf("unexpected result -- got %d (err %v), want 0 and %v", n,
			err, context.Canceled)
	}
	h.expectTip(batch[2], 23)

	// The connected headers must have been written to the database.
	h.reopen()
	h.expectTip(batch[2], 23)
}

// TestPowHashCache ensures proof-of-work hashes are served from the cache.
func TestPowHashCache(t *testing.T) {
	t.Parallel()

	h := newChainHarness(t, nil)
	header := h.newHeader(h.params.GenesisHeader, 0)
	first, err := h.chain.PowHash(header, 1)
	if err != nil {
		t.Fatalf("unable to compute hash: %v", err)
	}
	second, err := h.chain.PowHash(header, 1)
	if err != nil {
		t.Fatalf("unable to compute hash: %v", err)
	}
	if first != second {
		t.Fatalf("mismatched hashes %v and %v", first, second)
	}
	if ratio := h.chain.PowCacheHitRatio(); ratio <= 0 {
		t.Fatalf("unexpected cache hit ratio %v", ratio)
	}
}

// TestCalcNextRequiredDifficulty ensures the required difficulty of the next
// header is calculated from the tip of the best chain.
func TestCalcNextRequiredDifficulty(t *testing.T) {
	t.Parallel()

	h := newChainHarness(t, nil)
	h.processAll(h.buildBranch(h.params.GenesisHeader, 0, 2, 0))
	bits, err := h.chain.CalcNextRequiredDifficulty(h.now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bits != h.params.PowLimitBits {
		t.Fatalf("unexpected bits -- got %08x, want %08x", bits,
			h.params.PowLimitBits)
	}
}

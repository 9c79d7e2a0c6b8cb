// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2016-2022 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"testing"

	"github.com/decred/dcrd/math/uint256"
	"github.com/vertcoin-project/vtcd/blockchain/standalone"
)

// allParams returns the parameters of every standard network.
func allParams() []*Params {
	return []*Params{MainNetParams(), TestNetParams(), RegNetParams()}
}

// TestPowLimits ensures the proof-of-work limits of every network are
// consistent with their compact forms.
func TestPowLimits(t *testing.T) {
	t.Parallel()

	for _, params := range allParams() {
		checkLimit := func(name string, limit *uint256.Uint256, bits uint32) {
			t.Helper()

			if got := standalone.Uint256ToDiffBits(limit); got != bits {
				t.Fatalf("%s: %s bits mismatch -- got %08x, want %08x",
					params.Name, name, got, bits)
			}

			// The decoded bits are the limit truncated to the compact
			// precision, so they must never exceed it.
			decoded, _, _ := standalone.DiffBitsToUint256(bits)
			if decoded.Gt(limit) {
				t.Fatalf("%s: %s bits %08x exceed the limit %x",
					params.Name, name, bits, limit)
			}
		}
		checkLimit("pow limit", params.PowLimit, params.PowLimitBits)
		checkLimit("legacy pow limit", params.LegacyPowLimit,
			params.LegacyPowLimitBits)

		// The genesis header must satisfy the rules it is checked against.
		err := standalone.CheckProofOfWorkRange(params.GenesisHeader.Bits,
			params.LegacyPowLimit)
		if err != nil {
			t.Fatalf("%s: genesis bits out of range: %v", params.Name, err)
		}
	}

	main := MainNetParams()
	want := new(uint256.Uint256).SetUint64(1)
	want.Lsh(236).SubUint64(1)
	if !main.PowLimit.Eq(want) {
		t.Fatalf("mainnet pow limit -- got %x, want %x", main.PowLimit, want)
	}
	reg := RegNetParams()
	want.SetUint64(1).Lsh(255).SubUint64(1)
	if !reg.PowLimit.Eq(want) {
		t.Fatalf("regtest pow limit -- got %x, want %x", reg.PowLimit, want)
	}
}

// TestPowHashForks ensures the proof-of-work hash fork tables are sorted,
// start at genesis and end with Verthash.
func TestPowHashForks(t *testing.T) {
	t.Parallel()

	for _, params := range allParams() {
		forks := params.PowHashForks
		if len(forks) == 0 {
			t.Fatalf("%s: no proof-of-work hash forks", params.Name)
		}
		if forks[0].ActivationHeight != 0 {
			t.Fatalf("%s: first fork activates at %d", params.Name,
				forks[0].ActivationHeight)
		}
		for i := 1; i < len(forks); i++ {
			if forks[i].ActivationHeight <= forks[i-1].ActivationHeight {
				t.Fatalf("%s: fork %d is not sorted", params.Name, i)
			}
		}
		if last := forks[len(forks)-1]; last.Algo != standalone.PowAlgoVerthash {
			t.Fatalf("%s: last fork is %v", params.Name, last.Algo)
		}
	}
}

// TestParamsLookups ensures the helper lookups on the parameters return the
// expected values at the boundaries of the mainnet and testnet schedules.
func TestParamsLookups(t *testing.T) {
	t.Parallel()

	main, test := MainNetParams(), TestNetParams()

	if got := main.KGWPastBlocksMin(); got != 144 {
		t.Errorf("mainnet past blocks min -- got %d, want 144", got)
	}
	if got := main.KGWPastBlocksMax(); got != 4032 {
		t.Errorf("mainnet past blocks max -- got %d, want 4032", got)
	}
	if got := int64(main.TargetTimespan / main.TargetTimePerBlock); got != 2016 {
		t.Errorf("mainnet retarget interval -- got %d, want 2016", got)
	}

	overrides := []struct {
		params *Params
		height int64
		bits   uint32
		ok     bool
	}{
		{main, 208300, 0, false},
		{main, 208301, 0x1e0ffff0, true},
		{main, 208302, 0, false},
		{main, 1499999, 0, false},
		{main, 1500000, 0x1e0fffff, true},
		{main, 1500009, 0x1e0fffff, true},
		{main, 1500010, 0, false},
		{test, 100, 0x1e0ffff0, true},
		{test, 101, 0, false},
		{test, 231009, 0x1e0fffff, true},
		{test, 231010, 0, false},
	}
	for _, o := range overrides {
		bits, ok := o.params.DifficultyOverride(o.height)
		if bits != o.bits || ok != o.ok {
			t.Errorf("%s: override at %d -- got (%08x, %v), want (%08x, %v)",
				o.params.Name, o.height, bits, ok, o.bits, o.ok)
		}
	}

	forks := []struct {
		params *Params
		height int64
		want   int64
	}{
		{main, 0, 0},
		{main, 208300, 0},
		{main, 208301, 208301},
		{main, 346999, 208301},
		{main, 347000, 347000},
		{main, 1080000, 347000},
		{main, 1080001, 1080001},
		{main, 1499999, 1080001},
		{main, 1500000, 1500000},
		{test, 99, 0},
		{test, 100, 0},
		{test, 158220, 0},
		{test, 158221, 158221},
		{test, 231005, 231000},
		{RegNetParams(), 100, 0},
	}
	for _, f := range forks {
		got := f.params.PowHashForkForHeight(f.height).ActivationHeight
		if got != f.want {
			t.Errorf("%s: fork activation at %d -- got %d, want %d",
				f.params.Name, f.height, got, f.want)
		}
	}

	if h, ok := main.VerthashForkHeight(); !ok || h != 1500000 {
		t.Errorf("mainnet verthash fork -- got (%d, %v)", h, ok)
	}
	if h, ok := RegNetParams().VerthashForkHeight(); !ok || h != 0 {
		t.Errorf("regtest verthash fork -- got (%d, %v)", h, ok)
	}
	if got := main.PowAlgo(0x20000000, 1499999); got != standalone.PowAlgoLyra2REv3 {
		t.Errorf("mainnet algo at 1499999 -- got %v", got)
	}
	if got := test.PowHashForkForHeight(231000); got.Algo != standalone.PowAlgoVerthash {
		t.Errorf("testnet fork at 231000 -- got %v", got.Algo)
	}

	if limit, bits := main.PowLimitForHeight(1499999); limit != main.LegacyPowLimit ||
		bits != main.LegacyPowLimitBits {
		t.Errorf("mainnet limit before verthash -- got %x %08x", limit, bits)
	}
	if limit, bits := main.PowLimitForHeight(1500000); limit != main.PowLimit ||
		bits != main.PowLimitBits {
		t.Errorf("mainnet limit at verthash -- got %x %08x", limit, bits)
	}
}

// TestCheckpoints ensures the checkpoints are sorted and can be looked up by
// height.
func TestCheckpoints(t *testing.T) {
	t.Parallel()

	for _, params := range allParams() {
		for i := 1; i < len(params.Checkpoints); i++ {
			if params.Checkpoints[i].Height <= params.Checkpoints[i-1].Height {
				t.Fatalf("%s: checkpoint %d is not sorted", params.Name, i)
			}
		}
		if len(params.Checkpoints) > 0 {
			genesis := params.Checkpoint(0)
			if genesis == nil || *genesis.Hash != params.GenesisHash {
				t.Fatalf("%s: genesis checkpoint mismatch", params.Name)
			}
		}
	}

	main := MainNetParams()
	if got := main.LatestCheckpointHeight(); got != 627610 {
		t.Fatalf("latest checkpoint -- got %d, want 627610", got)
	}
	if main.Checkpoint(24201) != nil {
		t.Fatal("unexpected checkpoint at 24201")
	}
	if got := RegNetParams().LatestCheckpointHeight(); got != 0 {
		t.Fatalf("regtest latest checkpoint -- got %d, want 0", got)
	}
}

// TestNetworkStringer tests the stringized output for the Network type.
func TestNetworkStringer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Network
		want string
	}{
		{MainNet, "mainnet"},
		{TestNet, "testnet"},
		{RegNet, "regtest"},
		{0xff, "Unknown Network (255)"},
	}
	for i, test := range tests {
		if result := test.in.String(); result != test.want {
			t.Errorf("String #%d\n got: %s want: %s", i, result, test.want)
		}
	}
	for _, params := range allParams() {
		if params.Net.String() != params.Name {
			t.Errorf("network name mismatch: %s vs %s", params.Net, params.Name)
		}
	}
}

// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package standalone

import (
	"testing"
)

// mockMainNetForks returns the proof-of-work hash fork table of the main
// network as of the time this comment was written.  It is used to ensure the
// tests are stable independent of any potential changes to chain parameters.
func mockMainNetForks() []PowHashFork {
	return []PowHashFork{
		{ActivationHeight: 0, Algo: PowAlgoScryptN},
		{ActivationHeight: 208301, Algo: PowAlgoLyra2RE},
		{ActivationHeight: 347000, Algo: PowAlgoLyra2REv2},
		{ActivationHeight: 1080001, Algo: PowAlgoLyra2REv3, VersionSelect: true},
		{ActivationHeight: 1500000, Algo: PowAlgoVerthash},
	}
}

// TestPowAlgoStringer tests the stringized output for the PowAlgo type.
func TestPowAlgoStringer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   PowAlgo
		want string
	}{
		{PowAlgoScryptN, "scrypt-n"},
		{PowAlgoLyra2RE, "lyra2re"},
		{PowAlgoLyra2REv2, "lyra2rev2"},
		{PowAlgoLyra2REv3, "lyra2rev3"},
		{PowAlgoVerthash, "verthash"},
		{0xff, "unknown algorithm (255)"},
	}

	// Detect additional algorithms that don't have the stringer added.
	if len(tests)-1 != int(numPowAlgos) {
		t.Fatal("It appears an algorithm was added without adding an " +
			"associated stringer test")
	}

	for i, test := range tests {
		result := test.in.String()
		if result != test.want {
			t.Errorf("String #%d\n got: %s want: %s", i, result, test.want)
			continue
		}
		if valid := test.in.IsValid(); valid != (test.in < numPowAlgos) {
			t.Errorf("IsValid #%d\n got: %v", i, valid)
			continue
		}
	}
}

// TestSelectPowAlgo ensures the algorithm selection works as expected across
// fork activation boundaries and with the version selected variants.
func TestSelectPowAlgo(t *testing.T) {
	t.Parallel()

	forks := mockMainNetForks()
	tests := []struct {
		name     string  // test description
		version  int32   // block version
		height   int64   // block height
		want     PowAlgo // expected algorithm
		wantName string  // expected descriptive name
	}{{
		name:     "genesis",
		version:  1,
		height:   0,
		want:     PowAlgoScryptN,
		wantName: "scrypt-n",
	}, {
		name:     "last scrypt-n block",
		version:  2,
		height:   208300,
		want:     PowAlgoScryptN,
		wantName: "scrypt-n",
	}, {
		name:     "first lyra2re block",
		version:  2,
		height:   208301,
		want:     PowAlgoLyra2RE,
		wantName: "lyra2re",
	}, {
		name:     "last lyra2re block",
		version:  2,
		height:   346999,
		want:     PowAlgoLyra2RE,
		wantName: "lyra2re",
	}, {
		name:     "first lyra2rev2 block",
		version:  2,
		height:   347000,
		want:     PowAlgoLyra2REv2,
		wantName: "lyra2rev2",
	}, {
		name:     "last lyra2rev2 block",
		version:  0x20000000,
		height:   1080000,
		want:     PowAlgoLyra2REv2,
		wantName: "lyra2rev2",
	}, {
		name:     "first lyra2rev3 block",
		version:  0x20000000,
		height:   1080001,
		want:     PowAlgoLyra2REv3,
		wantName: "lyra2rev3",
	}, {
		name:     "newalgo1 version bits",
		version:  0x20000000 | BlockVersionNewAlgo1,
		height:   1200000,
		want:     PowAlgoLyra2REv3,
		wantName: "newalgo1",
	}, {
		name:     "newalgo2 version bits",
		version:  0x20000000 | BlockVersionNewAlgo2,
		height:   1200000,
		want:     PowAlgoLyra2REv3,
		wantName: "newalgo2",
	}, {
		name:     "unknown version bits fall back to canonical variant",
		version:  0x20000000 | 0x7800,
		height:   1200000,
		want:     PowAlgoLyra2REv3,
		wantName: "lyra2rev3",
	}, {
		name:     "version bits ignored before version selection",
		version:  0x20000000 | BlockVersionNewAlgo1,
		height:   1000000,
		want:     PowAlgoLyra2REv2,
		wantName: "lyra2rev2",
	}, {
		name:     "last lyra2rev3 block",
		version:  0x20000000,
		height:   1499999,
		want:     PowAlgoLyra2REv3,
		wantName: "lyra2rev3",
	}, {
		name:     "first verthash block",
		version:  0x20000000,
		height:   1500000,
		want:     PowAlgoVerthash,
		wantName: "verthash",
	}, {
		name:     "version bits ignored after verthash",
		version:  0x20000000 | BlockVersionNewAlgo2,
		height:   2000000,
		want:     PowAlgoVerthash,
		wantName: "verthash",
	}}

	for _, test := range tests {
		algo := SelectPowAlgo(test.version, test.height, forks)
		if algo != test.want {
			t.Errorf("%q: unexpected algorithm -- got %v, want %v", test.name,
				algo, test.want)
			continue
		}
		name := AlgoName(test.version, test.height, forks)
		if name != test.wantName {
			t.Errorf("%q: unexpected name -- got %s, want %s", test.name,
				name, test.wantName)
			continue
		}
	}
}

// TestActivePowHashFork ensures the fork governing a height is found and that
// degenerate tables are handled.
func TestActivePowHashFork(t *testing.T) {
	t.Parallel()

	forks := []PowHashFork{
		{ActivationHeight: 10, Algo: PowAlgoLyra2REv2},
		{ActivationHeight: 20, Algo: PowAlgoVerthash},
	}
	if got := ActivePowHashFork(5, forks); got.ActivationHeight != 10 {
		t.Fatalf("height before first fork -- got %+v", got)
	}
	if got := ActivePowHashFork(19, forks); got.Algo != PowAlgoLyra2REv2 {
		t.Fatalf("height 19 -- got %+v", got)
	}
	if got := ActivePowHashFork(20, forks); got.Algo != PowAlgoVerthash {
		t.Fatalf("height 20 -- got %+v", got)
	}
	if got := ActivePowHashFork(20, nil); got != (PowHashFork{}) {
		t.Fatalf("empty table -- got %+v", got)
	}
}

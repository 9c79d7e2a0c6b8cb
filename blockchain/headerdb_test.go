// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2016-2022 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/vertcoin-project/vtcd/chaincfg"
	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
	"github.com/vertcoin-project/vtcd/wire"
)

// TestHeaderEntrySerialization ensures header entries serialize to the
// expected format and decode back to the same header and height.
func TestHeaderEntrySerialization(t *testing.T) {
	t.Parallel()

	header := wire.BlockHeader{
		Version:    0x20000000,
		PrevBlock:  chainhash.Hash{0x01},
		MerkleRoot: chainhash.Hash{0x02},
		Timestamp:  time.Unix(1620000000, 0),
		Bits:       0x1b0404cb,
		Nonce:      0x01020304,
	}
	parent := newFakeNode(nil, 1, 0x207fffff, time.Unix(1619999850, 0))
	parent.height = 1500000
	node := newBlockNode(&header, parent)

	serialized := serializeHeaderEntry(node)
	if len(serialized) != headerEntrySize {
		t.Fatalf("unexpected entry size %d", len(serialized))
	}
	if height := binary.LittleEndian.Uint32(serialized); height != 1500001 {
		t.Fatalf("unexpected serialized height %d", height)
	}
	headerBytes := header.SerializeArray()
	if !bytes.Equal(serialized[4:], headerBytes[:]) {
		t.Fatalf("unexpected serialized header %x", serialized[4:])
	}

	entry, err := deserializeHeaderEntry(serialized)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.height != 1500001 || entry.header != header {
		t.Fatalf("mismatched entry: %v", spew.Sdump(entry))
	}

	// Truncated entries are corrupt.
	_, err = deserializeHeaderEntry(serialized[:headerEntrySize-1])
	if !errors.Is(err, ErrHeaderDBCorruption) {
		t.Fatalf("unexpected error -- got %v, want %v", err,
			ErrHeaderDBCorruption)
	}
}

// TestBestChainStateSerialization ensures the best chain state serializes to
// the expected format.
func TestBestChainStateSerialization(t *testing.T) {
	t.Parallel()

	state := bestChainState{
		hash:       *mustParseHash("4d96a915f49d40b1e5c2844d1ee2dccb90013a990ccea12c492d22110489f0c4"),
		height:     1500000,
		numHeaders: 1500003,
		workSum:    [32]byte{31: 0x02},
	}
	serialized := serializeBestChainState(state)
	want := make([]byte, 0, bestChainStateSize)
	want = append(want, state.hash[:]...)
	want = binary.LittleEndian.AppendUint32(want, 1500000)
	want = binary.LittleEndian.AppendUint64(want, 1500003)
	want = append(want, state.workSum[:]...)
	if !bytes.Equal(serialized, want) {
		t.Fatalf("mismatched serialization\ngot: %x\nwant: %x", serialized,
			want)
	}

	got, err := deserializeBestChainState(serialized)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != state {
		t.Fatalf("mismatched state\ngot: %v\nwant: %v", spew.Sdump(got),
			spew.Sdump(state))
	}

	_, err = deserializeBestChainState(serialized[1:])
	if !errors.Is(err, ErrHeaderDBCorruption) {
		t.Fatalf("unexpected error -- got %v, want %v", err,
			ErrHeaderDBCorruption)
	}
}

// TestHeaderDBInit ensures a new database is initialized with the genesis
// block and that unsupported or corrupt databases are rejected when loaded.
func TestHeaderDBInit(t *testing.T) {
	t.Parallel()

	h := newChainHarness(t, nil)
	version, err := dbFetchDatabaseVersion(h.db)
	if err != nil || version != currentDatabaseVersion {
		t.Fatalf("unexpected version %d (err %v)", version, err)
	}
	h.expectTip(h.params.GenesisHeader, 0)
	if _, err := h.db.Get(dbInfoCreatedKey, nil); err != nil {
		t.Fatalf("unable to fetch creation time: %v", err)
	}

	headers := h.buildBranch(h.params.GenesisHeader, 0, 3, 0)
	h.processAll(headers)

	// A header missing from the database is detected.
	tipHash := headers[2].BlockHash()
	if err := h.db.Delete(headerKey(&tipHash), nil); err != nil {
		t.Fatalf("unable to delete header: %v", err)
	}
	_, err = New(context.Background(), &Config{DB: h.db,
		ChainParams: h.params, Hasher: h.hasher})
	if !errors.Is(err, ErrHeaderDBCorruption) {
		t.Fatalf("unexpected error -- got %v, want %v", err,
			ErrHeaderDBCorruption)
	}

	// A database from a newer version of the software is rejected.
	var newVersion [4]byte
	binary.LittleEndian.PutUint32(newVersion[:], currentDatabaseVersion+1)
	if err := h.db.Put(dbInfoVersionKey, newVersion[:], nil); err != nil {
		t.Fatalf("unable to store version: %v", err)
	}
	_, err = New(context.Background(), &Config{DB: h.db,
		ChainParams: h.params, Hasher: h.hasher})
	if !errors.Is(err, ErrDBTooNewToUpgrade) {
		t.Fatalf("unexpected error -- got %v, want %v", err,
			ErrDBTooNewToUpgrade)
	}
}

// TestHeaderDBGenesisMismatch ensures a database created for one network can
// not be loaded for another.
func TestHeaderDBGenesisMismatch(t *testing.T) {
	t.Parallel()

	h := newChainHarness(t, nil)
	_, err := New(context.Background(), &Config{DB: h.db,
		ChainParams: chaincfg.TestNetParams(), Hasher: h.hasher})
	if !errors.Is(err, ErrHeaderDBCorruption) {
		t.Fatalf("unexpected error -- got %v, want %v", err,
			ErrHeaderDBCorruption)
	}
}

// TestLoadHeaderDB ensures header databases are created on disk and that the
// regression test database is removed on every load.
func TestLoadHeaderDB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		params    *chaincfg.Params
		wantReset bool
	}{
		{"mainnet keeps data", chaincfg.MainNetParams(), false},
		{"regtest starts clean", chaincfg.RegNetParams(), true},
	}
	for _, test := range tests {
		dataDir := filepath.Join(t.TempDir(), "data")
		db, err := LoadHeaderDB(test.params, dataDir)
		if err != nil {
			t.Fatalf("%q: unable to create database: %v", test.name, err)
		}
		if _, err := os.Stat(filepath.Join(dataDir, headerDbName)); err != nil {
			t.Fatalf("%q: database not created: %v", test.name, err)
		}
		if err := db.Put([]byte("marker"), []byte{0x01}, nil); err != nil {
			t.Fatalf("%q: unable to write: %v", test.name, err)
		}
		db.Close()

		db, err = LoadHeaderDB(test.params, dataDir)
		if err != nil {
			t.Fatalf("%q: unable to open database: %v", test.name, err)
		}
		_, err = db.Get([]byte("marker"), nil)
		db.Close()
		if gotReset := errors.Is(err, leveldb.ErrNotFound); gotReset != test.wantReset {
			t.Fatalf("%q: unexpected reset %v (err %v)", test.name, gotReset,
				err)
		}
	}
}

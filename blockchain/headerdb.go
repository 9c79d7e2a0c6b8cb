// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2016-2022 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/vertcoin-project/vtcd/chaincfg"
	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
	"github.com/vertcoin-project/vtcd/wire"
)

const (
	// currentDatabaseVersion indicates the current header database version.
	currentDatabaseVersion = 1

	// headerDbName is the name of the header database.
	headerDbName = "headers"
)

// -----------------------------------------------------------------------------
// keySet represents a top level key set in the header database.  All keys
// start with a serialized prefix consisting of the key set and version of that
// key set as follows:
//
//	<key set><version>
//
//	Key        Value    Size      Description
//	key set    uint8    1 byte    The key set identifier, as defined below
//	version    uint8    1 byte    The version of the key set
//
// -----------------------------------------------------------------------------
type keySet uint8

// These constants define the available header database key sets.
const (
	keySetDbInfo     keySet = iota + 1 // 1
	keySetChainState                   // 2
	keySetHeaders                      // 3
)

// keySetNoVersion defines the value to be used for the version of key sets
// where versioning does not apply.
const keySetNoVersion = 0

// keySetVersions defines the current version for each key set.
var keySetVersions = map[keySet]uint8{
	// Note: The database info key set must remain at fixed keys so that older
	// software can properly load the database versioning info, detect newer
	// versions, and throw an error.
	keySetDbInfo:     keySetNoVersion,
	keySetChainState: 1,
	keySetHeaders:    1,
}

// These variables define the serialized prefix for each key set and associated
// version.
var (
	prefixDbInfo     = []byte{byte(keySetDbInfo), keySetVersions[keySetDbInfo]}
	prefixChainState = []byte{byte(keySetChainState), keySetVersions[keySetChainState]}
	prefixHeaders    = []byte{byte(keySetHeaders), keySetVersions[keySetHeaders]}
)

// prefixedKey returns a new byte slice that consists of the provided prefix
// appended with the provided key.
func prefixedKey(prefix []byte, key []byte) []byte {
	lenPrefix := len(prefix)
	prefixedKey := make([]byte, lenPrefix+len(key))
	_ = copy(prefixedKey, prefix)
	_ = copy(prefixedKey[lenPrefix:], key)
	return prefixedKey
}

// These variables define the keys of the database info and chain state key
// sets.
var (
	// dbInfoVersionKey is the database key used to house the database
	// version.
	dbInfoVersionKey = prefixedKey(prefixDbInfo, []byte("version"))

	// dbInfoCreatedKey is the database key used to house the date the
	// database was created.
	dbInfoCreatedKey = prefixedKey(prefixDbInfo, []byte("created"))

	// bestChainStateKey is the database key used to house the best chain
	// state.
	bestChainStateKey = prefixedKey(prefixChainState, []byte("bestchain"))
)

// convertLdbErr converts the passed leveldb error into a context error with an
// equivalent error kind and the passed description.  It also sets the passed
// error as the underlying error and adds its error string to the description.
func convertLdbErr(ldbErr error, desc string) ContextError {
	// Use the general header database error kind by default.  The code below
	// will update this with the converted error if it's recognized.
	var kind = ErrHeaderDB

	switch {
	// Database corruption errors.
	case ldberrors.IsCorrupted(ldbErr):
		kind = ErrHeaderDBCorruption

	// Database open/create errors.
	case errors.Is(ldbErr, leveldb.ErrClosed):
		kind = ErrHeaderDBNotOpen
	}

	// Include the original error in description.
	desc = fmt.Sprintf("%s: %v", desc, ldbErr)

	err := contextError(kind, desc)
	err.RawErr = ldbErr

	return err
}

// removeRegressionDB removes the existing regression test database if running
// in regression test mode and it already exists.
func removeRegressionDB(net chaincfg.Network, dbPath string) error {
	// Don't do anything if not in regression test mode.
	if net != chaincfg.RegNet {
		return nil
	}

	// Remove the old regression test database if it already exists.
	if _, err := os.Stat(dbPath); err == nil {
		log.Infof("Removing regression test header database from '%s'", dbPath)
		return os.RemoveAll(dbPath)
	}

	return nil
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// LoadHeaderDB loads (or creates when needed) the header database and returns
// a handle to it.  It also contains additional logic such as ensuring the
// regression test database is clean when in regression test mode.
func LoadHeaderDB(params *chaincfg.Params, dataDir string) (*leveldb.DB, error) {
	// Set the database path based on the data directory and database name.
	dbPath := filepath.Join(dataDir, headerDbName)

	// The regression test is special in that it needs a clean database for each
	// run, so remove it now if it already exists.
	_ = removeRegressionDB(params.Net, dbPath)

	// Ensure the full path to the database exists.
	dbExists := fileExists(dbPath)
	if !dbExists {
		// The error can be ignored here since the call to leveldb.OpenFile will
		// fail if the directory couldn't be created.
		//
		// NOTE: It is important that os.MkdirAll is only called if the database
		// does not exist.  The documentation states that os.MidirAll does
		// nothing if the directory already exists.  However, this has proven
		// not to be the case on some less supported OSes and can lead to
		// creating new directories with the wrong permissions or otherwise lead
		// to hard to diagnose issues.
		_ = os.MkdirAll(dataDir, 0700)
	}

	// Open the database (will create it if needed).
	log.Infof("Loading header database from '%s'", dbPath)
	opts := opt.Options{
		ErrorIfExist: !dbExists,
		Strict:       opt.DefaultStrict,
		Compression:  opt.NoCompression,
		Filter:       filter.NewBloomFilter(10),
	}
	db, err := leveldb.OpenFile(dbPath, &opts)
	if err != nil {
		return nil, convertLdbErr(err, "failed to open header database")
	}

	log.Info("Header database loaded")

	return db, nil
}

// -----------------------------------------------------------------------------
// The header entries are keyed by block hash and consist of the height of the
// block followed by the serialized block header:
//
//	Field      Type             Size
//	height     uint32           4 bytes
//	header     wire.BlockHeader 80 bytes
//
// -----------------------------------------------------------------------------

// headerEntrySize is the size of a serialized header entry.
const headerEntrySize = 4 + wire.MaxBlockHeaderPayload

// headerEntry houses a header loaded from the database along with its height.
type headerEntry struct {
	height int64
	header wire.BlockHeader
}

// headerKey returns the database key of the header with the provided hash.
func headerKey(hash *chainhash.Hash) []byte {
	return prefixedKey(prefixHeaders, hash[:])
}

// serializeHeaderEntry returns the serialized header entry of the provided
// block node.
func serializeHeaderEntry(node *blockNode) []byte {
	header := node.Header()
	serialized := make([]byte, headerEntrySize)
	binary.LittleEndian.PutUint32(serialized[0:4], uint32(node.height))
	headerBytes := header.SerializeArray()
	copy(serialized[4:], headerBytes[:])
	return serialized
}

// deserializeHeaderEntry decodes a header entry from the provided bytes.
func deserializeHeaderEntry(serialized []byte) (*headerEntry, error) {
	if len(serialized) != headerEntrySize {
		str := fmt.Sprintf("header entry is %d bytes instead of %d",
			len(serialized), headerEntrySize)
		return nil, contextError(ErrHeaderDBCorruption, str)
	}

	var entry headerEntry
	entry.height = int64(binary.LittleEndian.Uint32(serialized[0:4]))
	if err := entry.header.FromBytes(serialized[4:]); err != nil {
		str := fmt.Sprintf("unable to decode header entry: %v", err)
		return nil, contextError(ErrHeaderDBCorruption, str)
	}
	return &entry, nil
}

// -----------------------------------------------------------------------------
// The best chain state consists of the best block hash and height, the total
// number of headers in the index, and the accumulated work sum as of the best
// block:
//
//	Field      Type             Size
//	hash       chainhash.Hash   32 bytes
//	height     uint32           4 bytes
//	numHeaders uint64           8 bytes
//	work sum   uint256          32 bytes (big endian)
//
// -----------------------------------------------------------------------------

// bestChainStateSize is the size of the serialized best chain state.
const bestChainStateSize = chainhash.HashSize + 4 + 8 + 32

// bestChainState represents the data to be stored the database for the current
// best chain state.
type bestChainState struct {
	hash       chainhash.Hash
	height     int64
	numHeaders uint64
	workSum    [32]byte
}

// serializeBestChainState returns the serialization of the passed block best
// chain state.
func serializeBestChainState(state bestChainState) []byte {
	serialized := make([]byte, bestChainStateSize)
	copy(serialized[0:chainhash.HashSize], state.hash[:])
	offset := chainhash.HashSize
	binary.LittleEndian.PutUint32(serialized[offset:], uint32(state.height))
	offset += 4
	binary.LittleEndian.PutUint64(serialized[offset:], state.numHeaders)
	offset += 8
	copy(serialized[offset:], state.workSum[:])
	return serialized
}

// deserializeBestChainState deserializes the passed serialized best chain
// state.
func deserializeBestChainState(serialized []byte) (bestChainState, error) {
	if len(serialized) != bestChainStateSize {
		str := fmt.Sprintf("corrupt best chain state size %d",
			len(serialized))
		return bestChainState{}, contextError(ErrHeaderDBCorruption, str)
	}

	var state bestChainState
	copy(state.hash[:], serialized[0:chainhash.HashSize])
	offset := chainhash.HashSize
	state.height = int64(binary.LittleEndian.Uint32(serialized[offset:]))
	offset += 4
	state.numHeaders = binary.LittleEndian.Uint64(serialized[offset:])
	offset += 8
	copy(state.workSum[:], serialized[offset:])
	return state, nil
}

// newBestChainState returns the best chain state for the provided tip and
// number of headers.
func newBestChainState(tip *blockNode, numHeaders int) bestChainState {
	return bestChainState{
		hash:       tip.hash,
		height:     tip.height,
		numHeaders: uint64(numHeaders),
		workSum:    tip.workSum.Bytes(),
	}
}

// dbFetchDatabaseVersion fetches the version of the header database.  It
// returns zero when the database has not been initialized.
func dbFetchDatabaseVersion(db *leveldb.DB) (uint32, error) {
	serialized, err := db.Get(dbInfoVersionKey, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return 0, nil
		}
		return 0, convertLdbErr(err, "failed to fetch database version")
	}
	if len(serialized) != 4 {
		str := fmt.Sprintf("corrupt database version size %d",
			len(serialized))
		return 0, contextError(ErrHeaderDBCorruption, str)
	}
	return binary.LittleEndian.Uint32(serialized), nil
}

// createChainState initializes the header database with the genesis block of
// the network.
func (b *BlockChain) createChainState() error {
	genesis := newBlockNode(b.chainParams.GenesisHeader, nil)
	if genesis.hash != b.chainParams.GenesisHash {
		return AssertError(fmt.Sprintf("genesis header hash %s does not "+
			"match the network genesis hash %s", genesis.hash,
			b.chainParams.GenesisHash))
	}
	b.index.addNodeFromDB(genesis)
	b.bestChain.SetTip(genesis)

	var version, created [8]byte
	binary.LittleEndian.PutUint32(version[:4], currentDatabaseVersion)
	binary.LittleEndian.PutUint64(created[:], uint64(time.Now().Unix()))

	var batch leveldb.Batch
	batch.Put(dbInfoVersionKey, version[:4])
	batch.Put(dbInfoCreatedKey, created[:])
	batch.Put(headerKey(&genesis.hash), serializeHeaderEntry(genesis))
	batch.Put(bestChainStateKey, serializeBestChainState(
		newBestChainState(genesis, 1)))
	if err := b.db.Write(&batch, nil); err != nil {
		return convertLdbErr(err, "failed to initialize header database")
	}
	return nil
}

// loadHeaderIndex loads every header stored in the database into the block
// index.  Headers are linked to their parents in height order, so a header
// whose parent is missing indicates corruption.
func (b *BlockChain) loadHeaderIndex(ctx context.Context) error {
	log.Info("Loading header index...")
	start := time.Now()

	var entries []*headerEntry
	iter := b.db.NewIterator(util.BytesPrefix(prefixHeaders), nil)
	for iter.Next() {
		if len(entries)%100000 == 0 && ctx.Err() != nil {
			iter.Release()
			return ctx.Err()
		}
		entry, err := deserializeHeaderEntry(iter.Value())
		if err != nil {
			iter.Release()
			return err
		}
		entries = append(entries, entry)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return convertLdbErr(err, "failed to iterate header database")
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].height < entries[j].height
	})
	for _, entry := range entries {
		var parent *blockNode
		if entry.height == 0 {
			if hash := entry.header.BlockHash(); hash != b.chainParams.GenesisHash {
				str := fmt.Sprintf("stored genesis header %s does not match "+
					"the network genesis hash %s", hash,
					b.chainParams.GenesisHash)
				return contextError(ErrHeaderDBCorruption, str)
			}
		} else {
			parent = b.index.lookupNode(&entry.header.PrevBlock)
			if parent == nil || parent.height != entry.height-1 {
				str := fmt.Sprintf("stored header %s at height %d does not "+
					"connect to a known parent", entry.header.BlockHash(),
					entry.height)
				return contextError(ErrHeaderDBCorruption, str)
			}
		}

		var node blockNode
		initBlockNode(&node, &entry.header, entry.height, parent)
		b.index.addNodeFromDB(&node)
	}

	log.Infof("Loaded %d headers in %v", len(entries),
		time.Since(start).Round(time.Millisecond))
	return nil
}

// initChainState attempts to load and initialize the chain state from the
// database.  When the database is empty, it is initialized with the genesis
// block of the network.
func (b *BlockChain) initChainState(ctx context.Context) error {
	version, err := dbFetchDatabaseVersion(b.db)
	if err != nil {
		return err
	}
	if version == 0 {
		log.Info("Creating header database with the genesis block")
		return b.createChainState()
	}
	if version > currentDatabaseVersion {
		str := fmt.Sprintf("the current header database is no longer "+
			"compatible with this version of the software (%d > %d)",
			version, currentDatabaseVersion)
		return contextError(ErrDBTooNewToUpgrade, str)
	}

	serializedState, err := b.db.Get(bestChainStateKey, nil)
	if err != nil {
		return convertLdbErr(err, "failed to fetch best chain state")
	}
	state, err := deserializeBestChainState(serializedState)
	if err != nil {
		return err
	}

	if err := b.loadHeaderIndex(ctx); err != nil {
		return err
	}

	tip := b.index.lookupNode(&state.hash)
	if tip == nil || tip.height != state.height {
		str := fmt.Sprintf("best chain tip %s at height %d is not in the "+
			"header index", state.hash, state.height)
		return contextError(ErrHeaderDBCorruption, str)
	}
	if uint64(len(b.index.index)) != state.numHeaders {
		str := fmt.Sprintf("header index contains %d headers instead of %d",
			len(b.index.index), state.numHeaders)
		return contextError(ErrHeaderDBCorruption, str)
	}
	b.bestChain.SetTip(tip)

	log.Infof("Chain state (height %d, hash %v, work %x)", tip.height,
		tip.hash, tip.workSum.Bytes())
	return nil
}

// flushHeaderIndex atomically writes all headers added to the block index
// since the last flush along with the best chain state.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) flushHeaderIndex() error {
	b.index.Lock()
	defer b.index.Unlock()

	var batch leveldb.Batch
	for node := range b.index.modified {
		batch.Put(headerKey(&node.hash), serializeHeaderEntry(node))
	}
	state := newBestChainState(b.bestChain.Tip(), len(b.index.index))
	batch.Put(bestChainStateKey, serializeBestChainState(state))
	if err := b.db.Write(&batch, nil); err != nil {
		return convertLdbErr(err, "failed to flush header index")
	}
	clear(b.index.modified)
	return nil
}

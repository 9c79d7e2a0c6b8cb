// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2019 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vertcoin-project/vtcd/chaincfg/chainhash"
)

// MaxBlockHeaderPayload is the number of bytes a block header can be.
// Version 4 bytes + PrevBlock 32 bytes + MerkleRoot 32 bytes + Timestamp 4
// bytes + Bits 4 bytes + Nonce 4 bytes.
const MaxBlockHeaderPayload = 80

// NonceOffset is the offset of the nonce field within a serialized block
// header.
const NonceOffset = 76

// BlockHeader defines information about a block and is used in the block
// (MsgBlock) and headers (MsgHeaders) messages.
type BlockHeader struct {
	// Version of the block.  This is not the same as the protocol version.
	// Some of its bits also select the proof-of-work algorithm variant.
	Version int32

	// Hash of the previous block in the block chain.
	PrevBlock chainhash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	MerkleRoot chainhash.Hash

	// Time the block was created.  This is, unfortunately, encoded as a
	// uint32 on the wire and therefore is limited to 2106.
	Timestamp time.Time

	// Difficulty target for the block.
	Bits uint32

	// Nonce used to generate the block.
	Nonce uint32
}

// BlockHash computes the block identifier hash for the given block header.
// It is the double sha256 of the serialized header and is unrelated to the
// proof-of-work hash, which depends on the block height.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	buf := h.SerializeArray()
	return chainhash.DoubleHashH(buf[:])
}

// Deserialize decodes a block header from r into the receiver.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, h)
}

// Serialize encodes a block header from the receiver into w.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, h)
}

// SerializeArray returns the serialized header as a fixed size array.  This
// avoids allocations in hot paths such as mining and proof-of-work hashing.
func (h *BlockHeader) SerializeArray() [MaxBlockHeaderPayload]byte {
	var b [MaxBlockHeaderPayload]byte
	littleEndian.PutUint32(b[0:4], uint32(h.Version))
	copy(b[4:36], h.PrevBlock[:])
	copy(b[36:68], h.MerkleRoot[:])
	littleEndian.PutUint32(b[68:72], uint32(h.Timestamp.Unix()))
	littleEndian.PutUint32(b[72:76], h.Bits)
	littleEndian.PutUint32(b[NonceOffset:], h.Nonce)
	return b
}

// Bytes returns a byte slice containing the serialized contents of the block
// header.
func (h *BlockHeader) Bytes() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, MaxBlockHeaderPayload))
	err := h.Serialize(buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromBytes deserializes a block header byte slice.
func (h *BlockHeader) FromBytes(b []byte) error {
	const op = "BlockHeader.FromBytes"
	if len(b) != MaxBlockHeaderPayload {
		str := fmt.Sprintf("serialized block header is %d bytes instead "+
			"of %d", len(b), MaxBlockHeaderPayload)
		return messageError(op, ErrHeaderSize, str)
	}
	r := bytes.NewReader(b)
	return h.Deserialize(r)
}

// NewBlockHeader returns a new BlockHeader using the provided version, previous
// block hash, merkle root hash, difficulty bits, and nonce used to generate the
// block with defaults or calculated values for the remaining fields.
func NewBlockHeader(version int32, prevHash *chainhash.Hash,
	merkleRootHash *chainhash.Hash, bits uint32, nonce uint32) *BlockHeader {

	// Limit the timestamp to one second precision since the protocol
	// doesn't support better.
	return &BlockHeader{
		Version:    version,
		PrevBlock:  *prevHash,
		MerkleRoot: *merkleRootHash,
		Timestamp:  time.Unix(time.Now().Unix(), 0),
		Bits:       bits,
		Nonce:      nonce,
	}
}

// readBlockHeader reads a block header from r.
func readBlockHeader(r io.Reader, bh *BlockHeader) error {
	return readElements(r, &bh.Version, &bh.PrevBlock, &bh.MerkleRoot,
		(*uint32Time)(&bh.Timestamp), &bh.Bits, &bh.Nonce)
}

// writeBlockHeader writes a block header to w.
func writeBlockHeader(w io.Writer, bh *BlockHeader) error {
	return writeElements(w, bh.Version, &bh.PrevBlock, &bh.MerkleRoot,
		uint32Time(bh.Timestamp), bh.Bits, bh.Nonce)
}

// ReadHeaders reads consecutive serialized block headers from r until the
// end of the stream, invoking fn for each.  Iteration stops early with the
// error returned by fn when it is non-nil.  A stream that ends part way
// through a header results in ErrTruncatedHeaders.
func ReadHeaders(r io.Reader, fn func(header *BlockHeader) error) error {
	const op = "ReadHeaders"
	var buf [MaxBlockHeaderPayload]byte
	for count := 0; ; count++ {
		_, err := io.ReadFull(r, buf[:])
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			str := fmt.Sprintf("stream ends inside header %d", count)
			return messageError(op, ErrTruncatedHeaders, str)
		case err != nil:
			return err
		}

		var header BlockHeader
		if err := header.FromBytes(buf[:]); err != nil {
			return err
		}
		if err := fn(&header); err != nil {
			return err
		}
	}
}

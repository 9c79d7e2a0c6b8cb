// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vertcoin-project/vtcd/blockchain"
	"github.com/vertcoin-project/vtcd/wire"
)

// importBatchSize is the number of headers handed to the header chain at once.
// The proof-of-work hashes of each batch are computed in parallel.
const importBatchSize = 2000

// headerProcessor is the part of the header chain headers are imported into.
type headerProcessor interface {
	ProcessHeaders(ctx context.Context, headers []*wire.BlockHeader,
		flags blockchain.BehaviorFlags) (int, error)
}

// importHeaders reads consecutive serialized block headers from r and submits
// them to the header chain in batches.  It returns the number of headers read
// and the number connected to the chain.  Headers that are already known are
// read but not connected again.
func importHeaders(ctx context.Context, r io.Reader, chain headerProcessor) (int, int, error) {
	var read, connected int
	batch := make([]*wire.BlockHeader, 0, importBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := chain.ProcessHeaders(ctx, batch, blockchain.BFNone)
		connected += n
		batch = batch[:0]
		return err
	}

	err := wire.ReadHeaders(r, func(header *wire.BlockHeader) error {
		read++
		batch = append(batch, header)
		if len(batch) < importBatchSize {
			return nil
		}
		return flush()
	})
	if err != nil {
		return read, connected, err
	}
	return read, connected, flush()
}

// importHeadersFile imports the headers in the named file.
func importHeadersFile(ctx context.Context, path string, chain headerProcessor) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open header file: %w", err)
	}
	defer f.Close()

	start := time.Now()
	hdrsLog.Infof("Importing headers from %s", path)
	read, connected, err := importHeaders(ctx, bufio.NewReader(f), chain)
	if err != nil {
		return fmt.Errorf("header import stopped after %d headers: %w", read,
			err)
	}
	hdrsLog.Infof("Imported %d headers (%d new) in %v", read, connected,
		time.Since(start).Round(time.Millisecond))
	return nil
}

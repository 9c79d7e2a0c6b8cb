// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package blockchain implements Vertcoin header chain processing and the
proof-of-work consensus rules.

The header chain is a tree of block headers rooted at the genesis block of the
network.  The branch with the most cumulative proof of work is the best chain.
This package validates headers as they arrive, tracks every known branch, and
switches the best chain when a side chain overtakes it.

# Header Processing Overview

Before a header is added to the chain, it must pass the following rules:

  - It must not already be known
  - Its parent must be known, so orphans are rejected
  - Its target difficulty must be within the range allowed at its height
  - Its proof-of-work hash, computed with the algorithm in effect at its
    height, must not exceed its target difficulty
  - Its timestamp must have a precision of one second and must not be more
    than two hours in the future
  - Its target difficulty must match the one the retarget rules require
  - Its timestamp must be after the median time of the last 11 blocks
  - It must match the hard-coded checkpoints and may not fork the chain
    before the most recent known checkpoint

Headers are persisted in a leveldb database along with the best chain state so
the chain is restored when the database is loaded again.

ProcessHeaders accepts batches of headers, such as those read from a headers
message or file, and computes their proof-of-work hashes in parallel before
connecting them in order.

# Errors

Errors returned by this package are either the raw errors provided by
underlying calls or of type blockchain.RuleError or blockchain.ContextError.
This allows the caller to differentiate between unexpected errors, such as
database errors, versus errors due to rule violations through errors.As.  In
addition, callers can programmatically determine the specific rule violation
by using errors.Is with one of the ErrorKind values.
*/
package blockchain

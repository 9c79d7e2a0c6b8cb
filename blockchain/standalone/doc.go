// Copyright (c) 2019-2022 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package standalone provides standalone functions useful for working with the
Vertcoin proof-of-work consensus rules.

The primary goal of offering these functions via a separate package is to
reduce the required dependencies to a minimum as compared to the blockchain
package.

It is ideal for applications such as lightweight clients that need to ensure
basic security properties hold.  For example, some things an SPV wallet needs
to prove are that the block headers all connect together and that they satisfy
the proof of work requirements.

# Function categories

The provided functions fall into the following categories:

  - Proof-of-work
  - Proof-of-work algorithm selection

# Proof-of-work

  - Converting to and from the compact target difficulty representation
  - Calculating work values based on the compact target difficulty
  - Checking a block hash satisfies a target difficulty and that target
    difficulty is within a valid range

# Proof-of-work algorithm selection

The chain has changed its proof-of-work hashing algorithm several times.  A
table of PowHashFork entries describes when each algorithm activated and
SelectPowAlgo returns the algorithm that applies to a given block height and
version.  While a version selected fork is active, bits 11 through 14 of the
block version choose between the algorithm variants.

# Errors

Errors returned by this package are of type standalone.RuleError.  This allows
the caller to differentiate between errors further up the call stack through
type assertions.  In addition, callers can programmatically determine the
specific rule violation by using errors.Is with one of the ErrorKind values.
*/
package standalone

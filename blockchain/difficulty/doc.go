// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package difficulty calculates the proof-of-work difficulty required of the next
block of a Vertcoin chain.

Two retarget algorithms have been used over the life of the chain.  Early
blocks use the periodic retarget inherited from Bitcoin, which only changes the
difficulty once every interval.  Later blocks use the Kimoto Gravity Well, which
recalculates the difficulty every block (every 12 blocks on the test network)
from a window of past blocks whose length adapts to how far the recent block
rate has strayed from the target.

Networks may force the difficulty of specific ranges of blocks.  These
overrides reset the difficulty when the proof-of-work algorithm changes, and
the Kimoto Gravity Well never averages across them.

The package only reads block headers through the HeaderCtx interface, so it
does not depend on how the caller stores the chain.
*/
package difficulty

// Copyright (c) 2020 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package progresslog provides periodic logging for header processing.

Tests are included to ensure proper functionality.

## Feature Overview

- Maintains the cumulative number of headers processed between each logging
  interval
- Logs all cumulative data every 10 seconds
- Immediately logs any outstanding data when forced, such as when the end of
  an import is reached
*/
package progresslog

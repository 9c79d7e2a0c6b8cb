// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
vtcd maintains a validated chain of Vertcoin block headers.

It loads the Verthash data file, validates the proof of work and difficulty of
every header it is given, and persists the best header chain.  Headers may be
imported from a file of consecutive raw 80-byte headers, and on the regression
test network they may be generated with the built-in CPU miner.

The long form of all of the options below (except -C) can be specified in a
configuration file that is automatically parsed when vtcd starts up.  By
default, the configuration file is located at ~/.vtcd/vtcd.conf on POSIX-style
operating systems and %LOCALAPPDATA%\vtcd\vtcd.conf on Windows.  The -C
(--configfile) flag can be used to override this location.

Usage:

	vtcd [OPTIONS]

Application Options:

	-V, --version             Display version information and exit
	-A, --appdata=            Path to application home directory
	-C, --configfile=         Path to configuration file
	-b, --datadir=            Directory to store data
	    --logdir=             Directory to log output
	    --logsize=            Maximum size of log file before it is rotated
	                          (default: 10M)
	    --nofilelogging       Disable file logging
	-d, --debuglevel=         Logging level for all subsystems {trace, debug,
	                          info, warn, error, critical} -- You may also
	                          specify
	                          <subsystem>=<level>,<subsystem2>=<level>,... to
	                          set the log level for individual subsystems --
	                          Use show to list available subsystems (info)
	    --testnet             Use the test network
	    --regtest             Use the regression test network
	    --verthashfile=       Path to the Verthash data file (default:
	                          <datadir>/verthash.dat)
	    --verthashmode=       How the Verthash data file is accessed while
	                          hashing {mem, mmap, file} (mmap)
	    --genverthash         Generate the Verthash data file when it does not
	                          exist
	    --skipverthashverify  Do not verify the digest of the Verthash data
	                          file when loading it
	    --importheaders=      Import consecutive raw 80-byte block headers from
	                          the given file
	    --powcachesize=       The maximum number of proof-of-work hashes to
	                          cache (10000)
	    --generate=           Generate (mine) the given number of headers on
	                          startup -- Only supported on the regression test
	                          network
	    --miningworkers=      Number of CPU mining workers -- A negative value
	                          uses one per processor core (1)
	    --metricslisten=      Serve Prometheus metrics at /metrics on the given
	                          [addr:]port

Help Options:

	-h, --help           Show this help message
*/
package main

// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/vertcoin-project/vtcd/blockchain"
	"github.com/vertcoin-project/vtcd/blockchain/powhash"
	"github.com/vertcoin-project/vtcd/internal/metrics"
	"github.com/vertcoin-project/vtcd/internal/mining/cpuminer"
	"github.com/vertcoin-project/vtcd/internal/version"
)

// vtcdMain is the real main function for vtcd.  It is necessary to work around
// the fact that deferred functions do not run when os.Exit() is called.
func vtcdMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	cfg, _, err := loadConfig(appName, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		var e errSuppressUsage
		if !errors.As(err, &e) {
			fmt.Fprintf(os.Stderr, "Use %s -h to show usage\n", appName)
		}
		return err
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Get a context that will be canceled when a shutdown signal has been
	// triggered from an OS signal such as SIGINT (Ctrl+C).
	ctx := shutdownListener()
	defer vtcdLog.Info("Shutdown complete")

	// Show version and home dir at startup.
	vtcdLog.Infof("Version %s (Go version %s %s/%s)", version.Full(),
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
	vtcdLog.Infof("Home dir: %s", cfg.HomeDir)
	vtcdLog.Infof("Active network: %s", cfg.params.Name)
	if cfg.NoFileLogging {
		vtcdLog.Info("File logging disabled")
	}

	// Load the Verthash data file.
	vh, err := loadVerthash(ctx, cfg)
	if err != nil {
		vtcdLog.Errorf("Unable to load verthash data file: %v", err)
		return err
	}
	if vh != nil {
		defer vh.Close()
	}

	// Return now if a shutdown signal was triggered.
	if shutdownRequested(ctx) {
		return nil
	}

	m := metrics.New()
	hasher := powhash.New(&powhash.Config{
		ChainParams: cfg.params,
		Verthash:    vh,
		Recorder:    m,
	})

	// Load the header database.
	db, err := blockchain.LoadHeaderDB(cfg.params, cfg.DataDir)
	if err != nil {
		vtcdLog.Errorf("%v", err)
		return err
	}
	defer func() {
		// Ensure the database is sync'd and closed on shutdown.
		vtcdLog.Infof("Gracefully shutting down the header database...")
		db.Close()
	}()

	chain, err := blockchain.New(ctx, &blockchain.Config{
		DB:           db,
		ChainParams:  cfg.params,
		Hasher:       hasher,
		Checkpoints:  cfg.params.Checkpoints,
		PowCacheSize: cfg.PowCacheSize,
		Metrics:      m,
	})
	if err != nil {
		vtcdLog.Errorf("Unable to load header chain: %v", err)
		return err
	}
	best := chain.BestSnapshot()
	vtcdLog.Infof("Best header %v (height %d, bits %08x)", best.Hash,
		best.Height, best.Bits)

	// Serve metrics until shutdown when requested.
	var wg sync.WaitGroup
	defer wg.Wait()
	if cfg.MetricsListen != "" {
		listener, err := net.Listen("tcp", cfg.MetricsListen)
		if err != nil {
			vtcdLog.Errorf("Unable to listen for metrics: %v", err)
			return err
		}
		vtcdLog.Infof("Serving metrics on %s", listener.Addr())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Serve(ctx, listener); err != nil {
				vtcdLog.Errorf("Metrics server: %v", err)
			}
		}()
	}

	if cfg.ImportHeaders != "" {
		err := importHeadersFile(ctx, cfg.ImportHeaders, chain)
		if err != nil && !shutdownRequested(ctx) {
			vtcdLog.Errorf("%v", err)
			return err
		}
	}

	if cfg.Generate > 0 && !shutdownRequested(ctx) {
		miner := cpuminer.New(&cpuminer.Config{
			ChainParams: cfg.params,
			Hasher:      hasher,
			Chain:       chain,
			Metrics:     m,
		})
		miner.SetNumWorkers(cfg.MiningWorkers)
		hashes, err := miner.GenerateHeaders(ctx, cfg.Generate)
		if err != nil && !shutdownRequested(ctx) {
			vtcdLog.Errorf("Unable to generate headers: %v", err)
			return err
		}
		minrLog.Infof("Generated %d headers at %.0f hashes/s", len(hashes),
			miner.HashesPerSecond())
	}

	best = chain.BestSnapshot()
	nextBits, err := chain.CalcNextRequiredDifficulty(time.Now())
	if err != nil {
		vtcdLog.Errorf("Unable to calculate the next difficulty: %v", err)
		return err
	}
	vtcdLog.Infof("Best header %v (height %d), %d headers known, next "+
		"block requires bits %08x", best.Hash, best.Height, best.NumHeaders,
		nextBits)

	// Wait until the context is cancelled which happens when the interrupt
	// signal is received.
	<-ctx.Done()
	return nil
}

func main() {
	// Work around defer not working after os.Exit()
	if err := vtcdMain(); err != nil {
		os.Exit(1)
	}
}

// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/vertcoin-project/vtcd/crypto/verthash"
)

// loadVerthash opens the Verthash data file configured for the network,
// generating it first when requested and it does not exist.
//
// A missing data file is logged along with how to obtain one and a nil hasher is
// returned.  The header chain then rejects headers at and after the fork until
// the data file is provided.
func loadVerthash(ctx context.Context, cfg *config) (*verthash.Verthash, error) {
	forkHeight, hasFork := cfg.params.VerthashForkHeight()
	if !hasFork {
		return nil, nil
	}

	if cfg.GenVerthash {
		vtcdLog.Infof("Generating verthash data file %s.  This takes a "+
			"while and requires %d bytes of disk space", cfg.VerthashFile,
			verthash.DatFileSize(verthash.DatFileGraphIndex))
		if err := os.MkdirAll(filepath.Dir(cfg.VerthashFile), 0700); err != nil {
			return nil, err
		}
		err := verthash.CreateDatFile(ctx, cfg.VerthashFile, nil)
		if err != nil {
			return nil, err
		}
	}

	opts := verthash.Options{
		Mode:             cfg.verthashMode,
		Digest:           cfg.params.VerthashDatFileDigest,
		SkipVerification: cfg.SkipVerthashVerify,
	}
	v, err := verthash.Open(cfg.VerthashFile, &opts)
	if errors.Is(err, verthash.ErrDatFileMissing) {
		vtcdLog.Warnf("%v", err)
		vtcdLog.Warnf("Headers at and after height %d can not be validated "+
			"without the verthash data file", forkHeight)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verthash

import (
	"context"
	"errors"
	"fmt"
	"hash"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
	"github.com/gofrs/flock"
	"github.com/vertcoin-project/vtcd/internal/progresslog"
	"golang.org/x/crypto/sha3"
)

const (
	// DatFileGraphIndex is the graph index of the data file used by the
	// chain.  It yields a data file of 1,283,457,024 bytes.
	DatFileGraphIndex = 17

	// MaxGraphIndex is the largest supported graph index.
	MaxGraphIndex = 24

	// nodeSize is the size of each node of the graph.
	nodeSize = 32

	// datFileSeed is hashed to produce the key that is mixed into every
	// node of the graph.
	datFileSeed = "Verthash Proof-of-Space Datafile"

	// cancelCheckInterval is the number of nodes written between checks
	// for cancellation.
	cancelCheckInterval = 1 << 16
)

var (
	// genMtx protects genPaths.
	genMtx sync.Mutex

	// genPaths houses the data file paths being generated by the process.
	// The lock file next to each path prevents generation across processes.
	genPaths = make(map[string]struct{})
)

// tryLockPath marks the provided data file path as being generated and
// reports whether it was not already marked.
func tryLockPath(path string) bool {
	genMtx.Lock()
	defer genMtx.Unlock()
	if _, ok := genPaths[path]; ok {
		return false
	}
	genPaths[path] = struct{}{}
	return true
}

// unlockPath removes the generation mark of the provided data file path.
func unlockPath(path string) {
	genMtx.Lock()
	delete(genPaths, path)
	genMtx.Unlock()
}

// numXi returns the number of nodes in a graph with the provided index.
func numXi(index int64) int64 {
	return (int64(1) << uint64(index)) * (index + 1) * index
}

// DatFileSize returns the size in bytes of a data file generated with the
// provided graph index.
func DatFileSize(index int64) int64 {
	return numXi(index) * nodeSize
}

// log2 returns the floor of the base 2 logarithm of x.
func log2(x int64) int64 {
	var r int64
	for ; x > 1; x >>= 1 {
		r++
	}
	return r
}

// graph builds the proof-of-space graph directly into the data file image.
// Node ids start at pow2 and are mapped to their position in the image by
// clearing that bit.
type graph struct {
	ctx      context.Context
	data     []byte
	pow2     int64
	pk       [nodeSize]byte
	hasher   hash.Hash
	label    [nodeSize]byte
	written  int64
	total    int64
	progress *progresslog.Logger
}

// node returns the contents of the node with the provided id.
func (g *graph) node(id int64) []byte {
	offset := (id &^ g.pow2) * nodeSize
	return g.data[offset : offset+nodeSize : offset+nodeSize]
}

// putLabel writes the variable length encoding of the provided node id into
// the zero padded label buffer.
func (g *graph) putLabel(id int64) {
	g.label = [nodeSize]byte{}
	uval := uint64(id) << 1
	if id < 0 {
		uval = ^uval
	}
	i := 0
	for uval >= 0x80 {
		g.label[i] = byte(uval) | 0x80
		uval >>= 7
		i++
	}
	g.label[i] = byte(uval)
}

// hashNode sets the node with the provided id to the hash of the graph key,
// the id and the provided parents.
func (g *graph) hashNode(id int64, parents ...[]byte) error {
	g.putLabel(id)
	g.hasher.Reset()
	g.hasher.Write(g.pk[:])
	g.hasher.Write(g.label[:])
	for _, parent := range parents {
		g.hasher.Write(parent)
	}
	// The sum is appended in place since the node slice is empty with
	// exactly enough capacity.
	g.hasher.Sum(g.node(id)[:0])
	return g.recordProgress()
}

// recordProgress accounts for a written node, periodically checking for
// cancellation and logging progress.
func (g *graph) recordProgress() error {
	g.written++
	if g.written%cancelCheckInterval != 0 {
		return nil
	}
	if err := g.ctx.Err(); err != nil {
		return err
	}
	g.progress.LogRatioProgress(uint64(g.written), uint64(g.total), false)
	return nil
}

// butterfly appends a butterfly graph with the provided index whose first
// level is the most recently written level.
func (g *graph) butterfly(index int64, count *int64) error {
	if index == 0 {
		index = 1
	}

	numLevel := 2 * index
	perLevel := int64(1) << uint64(index)
	begin := *count - perLevel
	for level := int64(1); level < numLevel; level++ {
		for i := int64(0); i < perLevel; i++ {
			shift := index - level
			if level > numLevel/2 {
				shift = level - numLevel/2
			}
			var prev int64
			if (i>>uint64(shift))&1 == 0 {
				prev = i + int64(1)<<uint64(shift)
			} else {
				prev = i - int64(1)<<uint64(shift)
			}

			parent0 := g.node(begin + (level-1)*perLevel + prev)
			parent1 := g.node(*count - perLevel)
			if err := g.hashNode(*count, parent0, parent1); err != nil {
				return err
			}
			*count++
		}
	}
	return nil
}

// subgraph identifies one of the five pieces a graph is recursively built
// from.
type subgraph struct {
	index int64
	kind  int
}

// pushSubgraphs appends the five pieces of a graph with the provided index to
// the stack so the first piece is popped first.
func pushSubgraphs(stack []subgraph, index int64) []subgraph {
	for kind := 4; kind >= 0; kind-- {
		stack = append(stack, subgraph{index: index, kind: kind})
	}
	return stack
}

// build writes every node of the graph with the provided index.
func (g *graph) build(index int64) error {
	count := g.pow2

	// Source nodes only depend on the key and their id.
	for i := int64(0); i < int64(1)<<uint64(index); i++ {
		if err := g.hashNode(count); err != nil {
			return err
		}
		count++
	}

	if index == 1 {
		return g.butterfly(index, &count)
	}

	stack := pushSubgraphs(nil, index)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		index := top.index // Shadows the index of the whole graph.

		pow2Index := int64(1) << uint64(index)
		half := int64(1) << uint64(index-1)
		switch top.kind {
		case 0:
			sources := count - pow2Index
			for i := int64(0); i < half; i++ {
				err := g.hashNode(count, g.node(sources+i),
					g.node(sources+i+half))
				if err != nil {
					return err
				}
				count++
			}

		case 1, 2, 3:
			first := count
			for i := int64(0); i < half; i++ {
				err := g.hashNode(first+i, g.node(first-half+i))
				if err != nil {
					return err
				}
				count++
			}

		default:
			sinks := count
			sources := sinks + pow2Index - numXi(index)
			for i := int64(0); i < half; i++ {
				parent0 := g.node(sinks - half + i)
				err := g.hashNode(sinks+i, parent0, g.node(sources+i))
				if err != nil {
					return err
				}
				err = g.hashNode(sinks+i+half, parent0,
					g.node(sources+i+half))
				if err != nil {
					return err
				}
				count += 2
			}
		}

		switch {
		case top.kind == 0 || top.kind == 3 ||
			((top.kind == 1 || top.kind == 2) && index == 2):
			if err := g.butterfly(index-1, &count); err != nil {
				return err
			}

		case top.kind == 1 || top.kind == 2:
			stack = pushSubgraphs(stack, index-1)
		}
	}

	if written := count - g.pow2; written != g.total {
		panicf("generated %d nodes instead of %d", written, g.total)
	}
	return nil
}

// GenerateOptions houses the settings used when generating a data file.
type GenerateOptions struct {
	// GraphIndex is the index of the generated graph.  It defaults to
	// DatFileGraphIndex when zero.  Other values produce data files that
	// are only useful for testing.
	GraphIndex int64
}

// CreateDatFile generates the data file at the provided path unless it already
// exists.  Generation is written to a temporary file that is renamed into place
// once complete, so an interrupted generation never leaves a partial data file
// behind.
//
// Only one generation of a path may run at a time.  A request made while
// another generation of the same path holds the lock, whether in this process
// or another, is skipped with an informational log and returns nil.
func CreateDatFile(ctx context.Context, path string, opts *GenerateOptions) error {
	index := int64(DatFileGraphIndex)
	if opts != nil && opts.GraphIndex != 0 {
		index = opts.GraphIndex
	}
	if index < 1 || index > MaxGraphIndex {
		str := fmt.Sprintf("graph index %d is not in the range [1, %d]", index,
			MaxGraphIndex)
		return makeError(ErrInvalidGraphIndex, str)
	}

	lockPath := path
	if absPath, err := filepath.Abs(path); err == nil {
		lockPath = absPath
	}
	if !tryLockPath(lockPath) {
		log.Infof("Skipping verthash data file generation because %s is "+
			"already being generated", path)
		return nil
	}
	defer unlockPath(lockPath)

	fileLock := flock.New(path + ".lock")
	locked, err := fileLock.TryLock()
	if err != nil {
		return fmt.Errorf("unable to lock verthash data file: %w", err)
	}
	if !locked {
		log.Infof("Skipping verthash data file generation because another "+
			"process holds %s", fileLock.Path())
		return nil
	}
	defer func() {
		fileLock.Unlock()
		os.Remove(fileLock.Path())
	}()

	if _, err := os.Stat(path); err == nil {
		log.Debugf("Verthash data file %s already exists", path)
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	start := time.Now()
	log.Infof("Starting proof-of-space data file generation at %s", path)
	tmpPath := path + ".tmp"
	if err := generateFile(ctx, tmpPath, index); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	log.Infof("Finished proof-of-space data file generation in %v",
		time.Since(start).Round(time.Second))
	return nil
}

// generateFile writes the graph with the provided index to a new file at the
// provided path.
func generateFile(ctx context.Context, path string, index int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	size := DatFileSize(index)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		return err
	}

	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("unable to map verthash data file: %w", err)
	}

	g := &graph{
		ctx:      ctx,
		data:     m,
		pow2:     int64(1) << uint64(log2(numXi(index))+1),
		pk:       sha3.Sum256([]byte(datFileSeed)),
		hasher:   sha3.New256(),
		total:    numXi(index),
		progress: progresslog.New("Generating verthash data file", log),
	}
	if err := g.build(index); err != nil {
		m.Unmap()
		return err
	}
	if err := m.Flush(); err != nil {
		m.Unmap()
		return err
	}
	if err := m.Unmap(); err != nil {
		return err
	}
	return f.Sync()
}

// panicf is a convenience function that formats according to the given format
// specifier and arguments and panics with it.
func panicf(format string, args ...interface{}) {
	str := fmt.Sprintf(format, args...)
	panic(str)
}

// Package lsm implements LSMIndex, a tiered log-structured merge index over
// fixed-width uint64 keys. Writes land in an in-memory sorted memtable;
// once the memtable fills it is merged into level0 on disk, and each level
// is cascaded into the next whenever it grows past its size threshold.
//
// Every public LSMIndex method holds the embedded mutex, so calls from
// multiple goroutines within one process are serialized. The on-disk files
// themselves are not safe for concurrent processes sharing the same
// directory.
package lsm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kurenai-dev/lsmidx/internal/psa"
)

const (
	// RecordSize is the width, in bytes, of one key on disk.
	RecordSize = psa.RecordSize
	// MemoryBudget bounds the memtable's resident size.
	MemoryBudget = 2 * 1024 * 1024
	// CacheCapacity is the number of keys the memtable holds before a flush
	// is forced.
	CacheCapacity = MemoryBudget / RecordSize
)

// LSMIndex owns a directory of on-disk levels plus an in-memory memtable.
type LSMIndex struct {
	mu       sync.Mutex
	dir      string
	memtable []uint64 // sorted ascending, strictly: no duplicates
	capacity int
}

// New creates (or reopens) an LSMIndex rooted at dir, creating the directory
// if it does not already exist. Levels are not preloaded: their existence is
// discovered lazily, by filename, on each operation.
func New(dir string) (*LSMIndex, error) {
	return newWithCapacity(dir, CacheCapacity)
}

// newWithCapacity is the internal constructor used by tests to exercise
// cascade behavior without needing to drive CacheCapacity worth of inserts
// per level. It is not exported: the public constructor takes no
// configuration.
func newWithCapacity(dir string, capacity int) (*LSMIndex, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("lsm: create directory %s: %w", dir, err)
	}
	return &LSMIndex{
		dir:      dir,
		memtable: make([]uint64, 0, capacity),
		capacity: capacity,
	}, nil
}

// Insert adds key to the index. If it is already present in the memtable,
// Insert is a no-op. A full memtable is flushed first.
func (l *LSMIndex) Insert(key uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.memtable) == l.capacity {
		if err := l.flushLocked(); err != nil {
			return err
		}
	}

	idx := sort.Search(len(l.memtable), func(i int) bool { return l.memtable[i] >= key })
	if idx < len(l.memtable) && l.memtable[idx] == key {
		return nil
	}

	l.memtable = append(l.memtable, 0)
	copy(l.memtable[idx+1:], l.memtable[idx:])
	l.memtable[idx] = key
	return nil
}

// Remove deletes key from every layer it appears in: the memtable and every
// existing on-disk level. A key absent everywhere is a silent no-op.
func (l *LSMIndex) Remove(key uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := sort.Search(len(l.memtable), func(i int) bool { return l.memtable[i] >= key })
	if idx < len(l.memtable) && l.memtable[idx] == key {
		l.memtable = append(l.memtable[:idx], l.memtable[idx+1:]...)
	}

	for level := 0; ; level++ {
		exists, err := l.levelExists(level)
		if err != nil {
			return err
		}
		if !exists {
			break
		}

		p, err := l.openLevel(level)
		if err != nil {
			return err
		}

		found, ferr := removeFromLevel(p, key)
		cerr := p.Close()
		if ferr != nil {
			return ferr
		}
		if cerr != nil {
			return cerr
		}
		_ = found
	}

	return nil
}

func removeFromLevel(p *psa.PSA, key uint64) (bool, error) {
	idx, found, err := psa.Search(p, key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := p.Erase(idx); err != nil {
		return false, err
	}
	return true, nil
}

// Find reports whether key is present in the memtable or any on-disk level.
func (l *LSMIndex) Find(key uint64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := sort.Search(len(l.memtable), func(i int) bool { return l.memtable[i] >= key })
	if idx < len(l.memtable) && l.memtable[idx] == key {
		return true, nil
	}

	for level := 0; ; level++ {
		exists, err := l.levelExists(level)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, nil
		}

		found, err := findInLevel(l, level, key)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
}

func findInLevel(l *LSMIndex, level int, key uint64) (bool, error) {
	p, err := l.openLevel(level)
	if err != nil {
		return false, err
	}
	defer p.Close()

	_, found, err := psa.Search(p, key)
	return found, err
}

// Flush drains the memtable into level0, then cascades levels upward as far
// as their size thresholds require.
func (l *LSMIndex) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushLocked()
}

// flushLocked assumes l.mu is already held.
func (l *LSMIndex) flushLocked() error {
	level0, err := l.openLevel(0)
	if err != nil {
		return fmt.Errorf("lsm: flush: open level0: %w", err)
	}
	mergeErr := mergeInto(memSeq(l.memtable), level0)
	closeErr := level0.Close()
	if mergeErr != nil {
		return fmt.Errorf("lsm: flush: merge memtable into level0: %w", mergeErr)
	}
	if closeErr != nil {
		return closeErr
	}
	l.memtable = l.memtable[:0]

	for level := 0; ; level++ {
		exists, err := l.levelExists(level)
		if err != nil {
			return err
		}
		if !exists {
			return nil
		}

		cascaded, err := l.cascadeLevel(level)
		if err != nil {
			return err
		}
		if !cascaded {
			return nil
		}
	}
}

// cascadeLevel merges level into level+1 if level's size exceeds its
// threshold, returning whether a cascade happened.
func (l *LSMIndex) cascadeLevel(level int) (bool, error) {
	src, err := l.openLevel(level)
	if err != nil {
		return false, err
	}
	defer src.Close()

	n, err := src.Len()
	if err != nil {
		return false, err
	}
	if n <= l.threshold(level) {
		return false, nil
	}

	dst, err := l.openLevel(level + 1)
	if err != nil {
		return false, err
	}
	defer dst.Close()

	if err := mergeInto(src, dst); err != nil {
		return false, fmt.Errorf("lsm: cascade level %d into %d: %w", level, level+1, err)
	}
	if err := src.Clear(); err != nil {
		return false, fmt.Errorf("lsm: cascade level %d: clear source: %w", level, err)
	}

	return true, nil
}

// Threshold returns the maximum size a level of an index created by New may
// reach before it is cascaded into the next one.
func Threshold(level int) uint64 {
	return 10 * uint64(CacheCapacity) * uint64(level+1)
}

// threshold is Threshold computed from this index's own memtable capacity.
func (l *LSMIndex) threshold(level int) uint64 {
	return 10 * uint64(l.capacity) * uint64(level+1)
}

// Close flushes any buffered inserts before the LSMIndex is discarded. It is
// the caller's responsibility to invoke Close (there is no finalizer):
// orderly shutdown requires it to avoid losing memtable contents.
func (l *LSMIndex) Close() error {
	return l.Flush()
}

func (l *LSMIndex) levelPath(level int) string {
	return filepath.Join(l.dir, fmt.Sprintf("level%d", level))
}

func (l *LSMIndex) levelExists(level int) (bool, error) {
	_, err := os.Stat(l.levelPath(level))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("lsm: stat level%d: %w", level, err)
}

func (l *LSMIndex) openLevel(level int) (*psa.PSA, error) {
	return psa.Open(l.levelPath(level))
}

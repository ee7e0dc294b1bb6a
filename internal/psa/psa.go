// Package psa implements PersistentSortedArray, a file-backed, length-prefixed
// sequence of fixed-width uint64 records. It is the on-disk building block
// each LSM level is stored as: a durable length header followed by that many
// little-endian uint64 records.
//
// A PSA is not safe for concurrent use by multiple goroutines, and not safe
// for concurrent use by multiple processes against the same file. Callers
// (internal/lsm) are expected to hold at most one writable handle per level
// path at a time.
package psa

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	// RecordSize is the on-disk width of a single key, in bytes.
	RecordSize = 8
	// HeaderSize is the on-disk width of the length prefix, in bytes.
	HeaderSize = 8
)

// PSA is an open handle onto a level file.
type PSA struct {
	f    *os.File
	path string
}

// Open opens the PSA at path, creating it (with a zero length header) if it
// does not already exist.
func Open(path string) (*PSA, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("psa: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("psa: stat %s: %w", path, err)
	}

	if info.Size() == 0 {
		var header [HeaderSize]byte
		if _, err := f.WriteAt(header[:], 0); err != nil {
			f.Close()
			return nil, fmt.Errorf("psa: write initial header %s: %w", path, err)
		}
	}

	return &PSA{f: f, path: path}, nil
}

// Close releases the underlying file descriptor.
func (p *PSA) Close() error {
	if err := p.f.Close(); err != nil {
		return fmt.Errorf("psa: close %s: %w", p.path, err)
	}
	return nil
}

// Path returns the file path backing this PSA.
func (p *PSA) Path() string {
	return p.path
}

// Len reads the durable length prefix from offset 0.
func (p *PSA) Len() (uint64, error) {
	var buf [HeaderSize]byte
	if _, err := p.f.ReadAt(buf[:], 0); err != nil {
		return 0, fmt.Errorf("psa: read header %s: %w", p.path, err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func recordOffset(i uint64) int64 {
	return HeaderSize + int64(i)*RecordSize
}

// Get reads the record at index i. i must be less than the current length;
// out-of-range access indicates a caller bug and panics rather than
// returning an error.
func (p *PSA) Get(i uint64) (uint64, error) {
	n, err := p.Len()
	if err != nil {
		return 0, err
	}
	if i >= n {
		panic(fmt.Sprintf("psa: Get index %d out of range (len=%d) in %s", i, n, p.path))
	}

	var buf [RecordSize]byte
	if _, err := p.f.ReadAt(buf[:], recordOffset(i)); err != nil {
		return 0, fmt.Errorf("psa: read record %d %s: %w", i, p.path, err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Set overwrites the record at index i in place. It does not modify the
// length prefix.
func (p *PSA) Set(i uint64, key uint64) error {
	var buf [RecordSize]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	if _, err := p.f.WriteAt(buf[:], recordOffset(i)); err != nil {
		return fmt.Errorf("psa: write record %d %s: %w", i, p.path, err)
	}
	return nil
}

// Push appends key at the current length, then durably extends the length
// by one. The record write happens before the header update so a process
// killed mid-push can at worst leave a trailing, unreferenced record.
func (p *PSA) Push(key uint64) error {
	n, err := p.Len()
	if err != nil {
		return err
	}

	var buf [RecordSize]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	if _, err := p.f.WriteAt(buf[:], recordOffset(n)); err != nil {
		return fmt.Errorf("psa: append record %s: %w", p.path, err)
	}

	return p.writeLen(n + 1)
}

// Resize overwrites the length prefix with n. It does not zero or truncate
// the tail of the file: bytes beyond HeaderSize + n*RecordSize may still
// hold stale records and readers must ignore them.
func (p *PSA) Resize(n uint64) error {
	return p.writeLen(n)
}

// Clear is equivalent to Resize(0).
func (p *PSA) Clear() error {
	return p.Resize(0)
}

// Erase removes the record at index i, shifting every following record down
// by one position, then shrinking the length by one. It is O(n - i).
func (p *PSA) Erase(i uint64) error {
	n, err := p.Len()
	if err != nil {
		return err
	}
	if i >= n {
		panic(fmt.Sprintf("psa: Erase index %d out of range (len=%d) in %s", i, n, p.path))
	}

	for j := i; j+1 < n; j++ {
		v, err := p.Get(j + 1)
		if err != nil {
			return err
		}
		if err := p.Set(j, v); err != nil {
			return err
		}
	}

	return p.writeLen(n - 1)
}

func (p *PSA) writeLen(n uint64) error {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	if _, err := p.f.WriteAt(buf[:], 0); err != nil {
		return fmt.Errorf("psa: write header %s: %w", p.path, err)
	}
	return nil
}

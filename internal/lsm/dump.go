package lsm

import (
	"fmt"
	"strings"
)

// LevelDump is the textual-dump representation of a single on-disk level.
type LevelDump struct {
	Level int      `json:"level"`
	Size  uint64   `json:"size"`
	Keys  []uint64 `json:"keys"`
}

// Dump renders memtable size and contents, then each existing level's size
// and contents, in ascending level order. It is not on the correctness
// path — callers must not rely on its formatting, only on Snapshot for
// structured data.
func (l *LSMIndex) Dump() (string, error) {
	snap, err := l.Snapshot()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Memtable: %d\n", len(snap.Memtable))
	writeKeys(&b, snap.Memtable)

	for _, lvl := range snap.Levels {
		fmt.Fprintf(&b, "Level%d: %d\n", lvl.Level, lvl.Size)
		writeKeys(&b, lvl.Keys)
	}

	return b.String(), nil
}

func writeKeys(b *strings.Builder, keys []uint64) {
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(b, "%d", k)
	}
	b.WriteByte('\n')
}

// Snapshot is a structured form of Dump, intended for internal/debugapi to
// serve as JSON. Like Dump, it is a point-in-time, non-authoritative view.
type Snapshot struct {
	Memtable []uint64    `json:"memtable"`
	Levels   []LevelDump `json:"levels"`
}

func (l *LSMIndex) Snapshot() (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := Snapshot{
		Memtable: append([]uint64(nil), l.memtable...),
	}

	for level := 0; ; level++ {
		exists, err := l.levelExists(level)
		if err != nil {
			return Snapshot{}, err
		}
		if !exists {
			break
		}

		p, err := l.openLevel(level)
		if err != nil {
			return Snapshot{}, err
		}

		n, err := p.Len()
		if err != nil {
			p.Close()
			return Snapshot{}, err
		}

		keys := make([]uint64, n)
		for i := range keys {
			v, err := p.Get(uint64(i))
			if err != nil {
				p.Close()
				return Snapshot{}, err
			}
			keys[i] = v
		}

		if err := p.Close(); err != nil {
			return Snapshot{}, err
		}

		snap.Levels = append(snap.Levels, LevelDump{Level: level, Size: n, Keys: keys})
	}

	return snap, nil
}

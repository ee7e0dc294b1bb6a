package lsm

import (
	"path/filepath"
	"testing"

	"github.com/kurenai-dev/lsmidx/internal/psa"
)

func newMergeDest(t *testing.T, keys []uint64) *psa.PSA {
	t.Helper()
	p, err := psa.Open(filepath.Join(t.TempDir(), "dst"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	for _, k := range keys {
		if err := p.Push(k); err != nil {
			t.Fatalf("Push(%d) failed: %v", k, err)
		}
	}
	return p
}

func readAll(t *testing.T, p *psa.PSA) []uint64 {
	t.Helper()
	n, err := p.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	out := make([]uint64, n)
	for i := range out {
		v, err := p.Get(uint64(i))
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		out[i] = v
	}
	return out
}

func equalKeys(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMergeInto_MemtableIntoEmptyLevel(t *testing.T) {
	dst := newMergeDest(t, nil)

	if err := mergeInto(memSeq{1, 3, 5}, dst); err != nil {
		t.Fatalf("mergeInto failed: %v", err)
	}

	got := readAll(t, dst)
	want := []uint64{1, 3, 5}
	if !equalKeys(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMergeInto_CollapsesDuplicatesAcrossRuns(t *testing.T) {
	// Overlapping-but-distinct runs: memtable {1,3,5} merged into level0 {2,3,4}
	// must collapse the shared key 3 into a single entry.
	dst := newMergeDest(t, []uint64{2, 3, 4})

	if err := mergeInto(memSeq{1, 3, 5}, dst); err != nil {
		t.Fatalf("mergeInto failed: %v", err)
	}

	got := readAll(t, dst)
	want := []uint64{1, 2, 3, 4, 5}
	if !equalKeys(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	n, err := dst.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 5 {
		t.Errorf("Len() = %d, want 5", n)
	}
}

func TestMergeInto_DisjointRuns(t *testing.T) {
	dst := newMergeDest(t, []uint64{10, 30, 50})

	if err := mergeInto(memSeq{20, 40}, dst); err != nil {
		t.Fatalf("mergeInto failed: %v", err)
	}

	got := readAll(t, dst)
	want := []uint64{10, 20, 30, 40, 50}
	if !equalKeys(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMergeInto_SourceEntirelyBelowDestination(t *testing.T) {
	dst := newMergeDest(t, []uint64{100, 200})

	if err := mergeInto(memSeq{1, 2, 3}, dst); err != nil {
		t.Fatalf("mergeInto failed: %v", err)
	}

	got := readAll(t, dst)
	want := []uint64{1, 2, 3, 100, 200}
	if !equalKeys(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMergeInto_SourceEntirelyAboveDestination(t *testing.T) {
	dst := newMergeDest(t, []uint64{1, 2})

	if err := mergeInto(memSeq{100, 200, 300}, dst); err != nil {
		t.Fatalf("mergeInto failed: %v", err)
	}

	got := readAll(t, dst)
	want := []uint64{1, 2, 100, 200, 300}
	if !equalKeys(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMergeInto_EmptySourceLeavesDestinationUnchanged(t *testing.T) {
	dst := newMergeDest(t, []uint64{1, 2, 3})

	if err := mergeInto(memSeq(nil), dst); err != nil {
		t.Fatalf("mergeInto failed: %v", err)
	}

	got := readAll(t, dst)
	want := []uint64{1, 2, 3}
	if !equalKeys(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMergeInto_PSAIntoPSA(t *testing.T) {
	// Exercises the other merge path the spec calls out: a PSA as both
	// source and destination type (cascading level i into level i+1).
	srcPSA := newMergeDest(t, []uint64{4, 5, 6})
	dst := newMergeDest(t, []uint64{1, 2, 3})

	if err := mergeInto(srcPSA, dst); err != nil {
		t.Fatalf("mergeInto failed: %v", err)
	}

	got := readAll(t, dst)
	want := []uint64{1, 2, 3, 4, 5, 6}
	if !equalKeys(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

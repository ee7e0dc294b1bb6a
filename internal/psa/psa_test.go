package psa

import (
	"path/filepath"
	"testing"
)

func newTestPSA(t *testing.T) *PSA {
	t.Helper()
	p, err := Open(filepath.Join(t.TempDir(), "level0"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestOpen_CreatesZeroLengthFile(t *testing.T) {
	p := newTestPSA(t)

	n, err := p.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected length 0 on fresh file, got %d", n)
	}
}

func TestOpen_ReopenPreservesContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "level0")

	p, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for _, k := range []uint64{1, 2, 3} {
		if err := p.Push(k); err != nil {
			t.Fatalf("Push(%d) failed: %v", k, err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	n, err := reopened.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected length 3 after reopen, got %d", n)
	}
	for i, want := range []uint64{1, 2, 3} {
		got, err := reopened.Get(uint64(i))
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if got != want {
			t.Errorf("Get(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestPush_AppendsAndGrowsLength(t *testing.T) {
	p := newTestPSA(t)

	for i, k := range []uint64{10, 20, 30} {
		if err := p.Push(k); err != nil {
			t.Fatalf("Push(%d) failed: %v", k, err)
		}
		n, err := p.Len()
		if err != nil {
			t.Fatalf("Len failed: %v", err)
		}
		if n != uint64(i+1) {
			t.Errorf("after %d pushes, Len() = %d, want %d", i+1, n, i+1)
		}
	}
}

func TestSet_OverwritesWithoutChangingLength(t *testing.T) {
	p := newTestPSA(t)
	for _, k := range []uint64{1, 2, 3} {
		if err := p.Push(k); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}

	if err := p.Set(1, 99); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	n, err := p.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Set changed length: got %d, want 3", n)
	}

	got, err := p.Get(1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 99 {
		t.Errorf("Get(1) = %d, want 99", got)
	}
}

func TestResize_DoesNotErrorOnGrowAndIgnoresStaleTail(t *testing.T) {
	p := newTestPSA(t)
	for _, k := range []uint64{1, 2, 3} {
		if err := p.Push(k); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}

	if err := p.Resize(1); err != nil {
		t.Fatalf("Resize(1) failed: %v", err)
	}
	n, err := p.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Resize(1): Len() = %d, want 1", n)
	}

	if err := p.Resize(3); err != nil {
		t.Fatalf("Resize(3) failed: %v", err)
	}
	// index 1 and 2 still hold the stale values written before the shrink.
	got, err := p.Get(1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 2 {
		t.Errorf("stale tail after regrow: Get(1) = %d, want 2", got)
	}
}

func TestClear_IsResizeZero(t *testing.T) {
	p := newTestPSA(t)
	for _, k := range []uint64{1, 2, 3} {
		if err := p.Push(k); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}

	if err := p.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	n, err := p.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Clear: Len() = %d, want 0", n)
	}
}

func TestErase_ShiftsFollowingRecordsDown(t *testing.T) {
	p := newTestPSA(t)
	for _, k := range []uint64{10, 20, 30, 40} {
		if err := p.Push(k); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}

	if err := p.Erase(1); err != nil { // erase 20
		t.Fatalf("Erase failed: %v", err)
	}

	n, err := p.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("Len() after erase = %d, want 3", n)
	}

	want := []uint64{10, 30, 40}
	for i, w := range want {
		got, err := p.Get(uint64(i))
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if got != w {
			t.Errorf("Get(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestGet_OutOfRangePanics(t *testing.T) {
	p := newTestPSA(t)
	if err := p.Push(1); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected Get out of range to panic")
		}
	}()
	_, _ = p.Get(5)
}

func TestSearch_FindsPresentAndAbsentKeys(t *testing.T) {
	p := newTestPSA(t)
	for _, k := range []uint64{10, 20, 30, 40} {
		if err := p.Push(k); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}

	tests := []struct {
		key       uint64
		wantFound bool
		wantIdx   uint64
	}{
		{10, true, 0},
		{30, true, 2},
		{40, true, 3},
		{5, false, 0},
		{25, false, 2},
		{100, false, 4},
	}

	for _, tt := range tests {
		idx, found, err := Search(p, tt.key)
		if err != nil {
			t.Fatalf("Search(%d) failed: %v", tt.key, err)
		}
		if found != tt.wantFound || idx != tt.wantIdx {
			t.Errorf("Search(%d) = (%d, %v), want (%d, %v)", tt.key, idx, found, tt.wantIdx, tt.wantFound)
		}
	}
}

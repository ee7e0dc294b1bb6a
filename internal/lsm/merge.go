package lsm

import "fmt"

// mergeDest is the destination side of a merge: a mutable, resizable,
// strictly-sorted sequence. *psa.PSA satisfies this structurally.
type mergeDest interface {
	sortedSequence
	Set(i uint64, key uint64) error
	Resize(n uint64) error
}

// mergeInto merges src into dst, producing the sorted union of both
// multisets with duplicates (a key present in both) collapsed to one
// occurrence. dst ends up holding the merged result.
//
// The merge happens from the tail: the final length is computed first (by a
// forward pass that counts duplicates), dst is resized to that length, and
// then keys are written from the highest index down to the lowest. This
// order is required because dst is read from and written to at once — a
// head-first merge would overwrite source data in dst before it had been
// read. All cursor arithmetic uses signed counters so that -1 can signal
// "this side is exhausted".
func mergeInto(src sortedSequence, dst mergeDest) error {
	m, err := src.Len()
	if err != nil {
		return fmt.Errorf("lsm: merge: read source length: %w", err)
	}
	n, err := dst.Len()
	if err != nil {
		return fmt.Errorf("lsm: merge: read destination length: %w", err)
	}

	dup, err := countDuplicates(src, m, dst, n)
	if err != nil {
		return err
	}

	total := m + n - dup
	if err := dst.Resize(total); err != nil {
		return fmt.Errorf("lsm: merge: resize destination to %d: %w", total, err)
	}

	l := int64(m) - 1
	r := int64(n) - 1
	w := int64(total) - 1

	for l >= 0 && r >= 0 {
		a, err := src.Get(uint64(l))
		if err != nil {
			return fmt.Errorf("lsm: merge: read source[%d]: %w", l, err)
		}
		b, err := dst.Get(uint64(r))
		if err != nil {
			return fmt.Errorf("lsm: merge: read destination[%d]: %w", r, err)
		}

		switch {
		case a == b:
			if err := dst.Set(uint64(w), b); err != nil {
				return fmt.Errorf("lsm: merge: write[%d]: %w", w, err)
			}
			l--
			r--
		case a > b:
			if err := dst.Set(uint64(w), a); err != nil {
				return fmt.Errorf("lsm: merge: write[%d]: %w", w, err)
			}
			l--
		default: // a < b
			if err := dst.Set(uint64(w), b); err != nil {
				return fmt.Errorf("lsm: merge: write[%d]: %w", w, err)
			}
			r--
		}
		w--
	}

	// r >= 0 here means the remaining destination prefix is already final:
	// the write cursor descended in lockstep with r and never touched it.
	for l >= 0 {
		a, err := src.Get(uint64(l))
		if err != nil {
			return fmt.Errorf("lsm: merge: read source[%d]: %w", l, err)
		}
		if err := dst.Set(uint64(w), a); err != nil {
			return fmt.Errorf("lsm: merge: write[%d]: %w", w, err)
		}
		l--
		w--
	}

	return nil
}

// countDuplicates does a single forward two-pointer pass counting positions
// where src and dst hold equal keys, used to size the merged result without
// allocating a scratch buffer.
func countDuplicates(src sortedSequence, m uint64, dst sortedSequence, n uint64) (uint64, error) {
	var dup uint64
	var i, j uint64
	for i < m && j < n {
		a, err := src.Get(i)
		if err != nil {
			return 0, fmt.Errorf("lsm: merge: read source[%d]: %w", i, err)
		}
		b, err := dst.Get(j)
		if err != nil {
			return 0, fmt.Errorf("lsm: merge: read destination[%d]: %w", j, err)
		}

		switch {
		case a == b:
			dup++
			i++
			j++
		case a < b:
			i++
		default:
			j++
		}
	}
	return dup, nil
}

package psa

// Search performs a binary search for key over p, which must be strictly
// sorted ascending. It returns the index of key and true if found; otherwise
// it returns the index key would need to be inserted at to preserve order,
// and false. This mirrors sort.Search's semantics but reads through the
// PSA's Get method instead of an in-memory slice.
func Search(p *PSA, key uint64) (uint64, bool, error) {
	n, err := p.Len()
	if err != nil {
		return 0, false, err
	}

	lo, hi := uint64(0), n
	for lo < hi {
		mid := lo + (hi-lo)/2
		v, err := p.Get(mid)
		if err != nil {
			return 0, false, err
		}
		switch {
		case v == key:
			return mid, true, nil
		case v < key:
			lo = mid + 1
		default:
			hi = mid
		}
	}

	return lo, false, nil
}

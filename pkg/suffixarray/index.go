// Package suffixarray builds, persists, and searches the suffix array of a
// byte buffer: the index structure the diff generator binary-searches to
// find where a run of "new" bytes already occurs in "old".
package suffixarray

// Index is a suffix array over some byte buffer old, plus the machinery to
// binary-search it. It holds no reference to old itself: every method that
// needs the original bytes takes them as an argument, so one Index can be
// reused across calls as long as the caller passes the same old each time.
type Index struct {
	// sa has len(old)+1 entries: sa[0] is always len(old) itself (the
	// empty suffix, lexicographically smallest under the shorter-is-
	// smaller tie rule, so it always sorts first). sa[1:] is the real
	// suffix array: a permutation of 0..len(old)-1.
	sa []int
	n  int
}

// Build constructs the suffix array of old via qsufsort.
func Build(old []byte) *Index {
	n := len(old)
	iii := make([]int, n+1)
	vvv := make([]int, n+1)
	qsufsort(iii, vvv, old)
	return &Index{sa: iii, n: n}
}

// Len returns the length of the buffer this index was built over.
func (idx *Index) Len() int { return idx.n }

// SA returns the real suffix array: n entries, a permutation of 0..n-1,
// such that old[SA[i]:] <= old[SA[i+1]:] for all i (unsigned byte order,
// shorter-is-smaller on a tied common prefix).
func (idx *Index) SA() []int {
	return idx.sa[1:]
}

// fromSA rebuilds the internal sentinel-prefixed array from a plain suffix
// array (as produced by SA, or loaded from an index file).
func fromSA(sa []int, n int) *Index {
	full := make([]int, n+1)
	full[0] = n
	copy(full[1:], sa)
	return &Index{sa: full, n: n}
}

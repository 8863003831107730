package position

// fenwick is a binary indexed tree over item heights. tree is 1-based.
type fenwick struct {
	tree []float64
	// mask is the highest power of two <= len(tree)-1.
	mask int
}

func newFenwick(values []float64) *fenwick {
	f := &fenwick{}
	f.build(values)
	return f
}

// build rebuilds the tree from values in O(n).
func (f *fenwick) build(values []float64) {
	n := len(values)
	f.tree = make([]float64, n+1)
	copy(f.tree[1:], values)
	for i := 1; i <= n; i++ {
		if j := i + (i & -i); j <= n {
			f.tree[j] += f.tree[i]
		}
	}
	f.mask = 1
	for f.mask<<1 <= n {
		f.mask <<= 1
	}
}

func (f *fenwick) len() int {
	return len(f.tree) - 1
}

// add adds delta to the value at index i (0-based).
func (f *fenwick) add(i int, delta float64) {
	for j := i + 1; j < len(f.tree); j += j & -j {
		f.tree[j] += delta
	}
}

// prefix returns the sum of the first i values.
func (f *fenwick) prefix(i int) float64 {
	i = min(i, f.len())
	var sum float64
	for ; i > 0; i -= i & -i {
		sum += f.tree[i]
	}
	return sum
}

// countAtMost returns the largest k such that prefix(k) <= limit.
// Values must be non-negative.
func (f *fenwick) countAtMost(limit float64) int {
	return f.search(limit, func(v, rem float64) bool { return v <= rem })
}

// countBelow returns the largest k such that prefix(k) < limit.
// Values must be non-negative.
func (f *fenwick) countBelow(limit float64) int {
	if limit <= 0 {
		return 0
	}
	return f.search(limit, func(v, rem float64) bool { return v < rem })
}

func (f *fenwick) search(limit float64, take func(v, rem float64) bool) int {
	n := f.len()
	if n == 0 {
		return 0
	}
	pos := 0
	rem := limit
	for step := f.mask; step > 0; step >>= 1 {
		next := pos + step
		if next <= n && take(f.tree[next], rem) {
			pos = next
			rem -= f.tree[next]
		}
	}
	// The descent subtracts nodes in a different order than prefix adds
	// them, so with fractional values the two can round apart. Settle on
	// the answer prefix agrees with.
	for pos > 0 && !take(f.prefix(pos), limit) {
		pos--
	}
	for pos < n && take(f.prefix(pos+1), limit) {
		pos++
	}
	return pos
}

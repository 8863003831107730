package position

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFenwickPrefix(t *testing.T) {
	t.Parallel()

	f := newFenwick([]float64{3, 1, 4, 1, 5, 9, 2})
	want := []float64{0, 3, 4, 8, 9, 14, 23, 25}
	for i, w := range want {
		require.Equal(t, w, f.prefix(i), "prefix(%d)", i)
	}
	require.Equal(t, 25.0, f.prefix(100))

	f.add(2, -4)
	require.Equal(t, 4.0, f.prefix(3))
	require.Equal(t, 21.0, f.prefix(7))
}

func TestFenwickSearch(t *testing.T) {
	t.Parallel()

	f := newFenwick([]float64{10, 10, 0, 10})
	// prefixes: 0 10 20 20 30
	require.Equal(t, 0, f.countAtMost(9))
	require.Equal(t, 1, f.countAtMost(10))
	require.Equal(t, 3, f.countAtMost(20))
	require.Equal(t, 4, f.countAtMost(1000))

	require.Equal(t, 0, f.countBelow(0))
	require.Equal(t, 0, f.countBelow(10))
	require.Equal(t, 1, f.countBelow(11))
	require.Equal(t, 1, f.countBelow(20))
	require.Equal(t, 3, f.countBelow(21))
	require.Equal(t, 4, f.countBelow(31))
}

func TestFenwickSearchAgreesWithPrefix(t *testing.T) {
	t.Parallel()

	values := make([]float64, 1001)
	for i := range values {
		values[i] = 0.1
	}
	f := newFenwick(values)
	for k := 1; k <= len(values); k++ {
		p := f.prefix(k)
		require.Equal(t, k, f.countAtMost(p), "countAtMost(prefix(%d)=%v)", k, p)
		require.Equal(t, k-1, f.countBelow(p), "countBelow(prefix(%d)=%v)", k, p)
	}
}

func TestFenwickEmpty(t *testing.T) {
	t.Parallel()

	f := newFenwick(nil)
	require.Equal(t, 0, f.len())
	require.Equal(t, 0.0, f.prefix(3))
	require.Equal(t, 0, f.countAtMost(10))
	require.Equal(t, 0, f.countBelow(10))
}

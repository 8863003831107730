package cmd

import (
	"bytes"
	"math"
	"testing"

	"github.com/charmbracelet/x/exp/golden"
	"github.com/stretchr/testify/require"
)

func TestComputeWindow(t *testing.T) {
	t.Parallel()

	base := windowOptions{items: 1000, estimate: 50, extent: 500, offset: 1200}

	t.Run("estimates only", func(t *testing.T) {
		t.Parallel()
		res, err := computeWindow(base)
		require.NoError(t, err)
		require.Equal(t, 24, res.top)
		require.Equal(t, 10, res.length)
		require.Equal(t, 50000.0, res.total)
		require.Len(t, res.items, 10)
		require.Equal(t, windowItem{index: 24, offset: 1200, height: 50}, res.items[0])
	})

	t.Run("threshold extends the window upwards", func(t *testing.T) {
		t.Parallel()
		opts := base
		opts.threshold = 100
		res, err := computeWindow(opts)
		require.NoError(t, err)
		require.Equal(t, 22, res.top)
		require.Equal(t, 12, res.length)
	})

	t.Run("overscan widens both sides", func(t *testing.T) {
		t.Parallel()
		opts := base
		opts.overscan = 2
		res, err := computeWindow(opts)
		require.NoError(t, err)
		require.Equal(t, 22, res.top)
		require.Equal(t, 14, res.length)
	})

	t.Run("measured heights", func(t *testing.T) {
		t.Parallel()
		opts := base
		opts.offset = 0
		opts.heights = map[int]float64{0: 120, 1: 80}
		res, err := computeWindow(opts)
		require.NoError(t, err)
		require.Equal(t, 0, res.top)
		require.Equal(t, 8, res.length)
		require.Equal(t, 50100.0, res.total)
		require.Equal(t, windowItem{index: 0, offset: 0, height: 120, measured: true}, res.items[0])
		require.Equal(t, windowItem{index: 2, offset: 200, height: 50}, res.items[2])
	})

	t.Run("empty list", func(t *testing.T) {
		t.Parallel()
		res, err := computeWindow(windowOptions{estimate: 50, extent: 500})
		require.NoError(t, err)
		require.Zero(t, res.length)
		require.Empty(t, res.items)
	})

	t.Run("fractional heights are order independent", func(t *testing.T) {
		t.Parallel()
		opts := windowOptions{items: 200, estimate: 0.7, extent: 3.3, offset: 41.9}
		opts.heights = make(map[int]float64)
		for i := range 150 {
			opts.heights[i] = 0.1 + float64(i%7)*0.3
		}
		first, err := computeWindow(opts)
		require.NoError(t, err)
		for range 20 {
			res, err := computeWindow(opts)
			require.NoError(t, err)
			require.Equal(t, first, res)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		for name, opts := range map[string]windowOptions{
			"zero estimate":      {items: 1},
			"negative estimate":  {items: 1, estimate: -5},
			"NaN estimate":       {items: 1, estimate: math.NaN()},
			"negative items":     {items: -1, estimate: 50},
			"negative threshold": {items: 1, estimate: 50, threshold: -1},
			"negative overscan":  {items: 1, estimate: 50, overscan: -1},
			"height out of range": {
				items:    2,
				estimate: 50,
				heights:  map[int]float64{2: 10},
			},
		} {
			_, err := computeWindow(opts)
			require.Error(t, err, name)
		}

		_, err := computeWindow(windowOptions{items: 1})
		require.ErrorContains(t, err, "--estimate must be positive")
	})
}

func TestParseHeights(t *testing.T) {
	t.Parallel()

	heights, err := parseHeights([]string{"0=120", " 3 = 7.5 ", "0=90"})
	require.NoError(t, err)
	require.Equal(t, map[int]float64{0: 90, 3: 7.5}, heights)

	_, err = parseHeights([]string{"3", "x=1", "-1=2", "1=-5", "2=tall"})
	require.Error(t, err)
	require.ErrorContains(t, err, `"3"`)
	require.ErrorContains(t, err, `"x=1"`)
	require.ErrorContains(t, err, `"-1=2"`)
	require.ErrorContains(t, err, `"1=-5"`)
	require.ErrorContains(t, err, `"2=tall"`)
}

func TestWindowCommandPlainOutput(t *testing.T) {
	var b bytes.Buffer
	windowCmd.SetOut(&b)
	windowCmd.SetErr(&b)
	require.NoError(t, windowCmd.Flags().Set("items", "10"))
	require.NoError(t, windowCmd.Flags().Set("estimate", "10"))
	require.NoError(t, windowCmd.Flags().Set("extent", "30"))
	require.NoError(t, windowCmd.Flags().Set("height", "1=15"))

	require.NoError(t, windowCmd.RunE(windowCmd, nil))
	golden.RequireEqual(t, b.Bytes())
}

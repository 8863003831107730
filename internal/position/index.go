// Package position implements the position index: an incrementally updated
// table of item heights and cumulative offsets, and the visible window
// derived from it.
package position

import (
	"math"

	"github.com/charmbracelet/winlist/internal/measure"
)

// DefaultEstimatedHeight is the height used for items that have not been
// measured yet.
const DefaultEstimatedHeight = 50

// Observer is a per-item resize observation handle.
type Observer interface {
	Disconnect()
}

type slot struct {
	height   float64
	measured bool

	dims    measure.Dimensions
	hasDims bool

	observer Observer
}

// Index owns the height table of a sequence of items and the visible
// window computed from it. It is not safe for concurrent use.
type Index struct {
	slots   []slot
	offsets *fenwick

	estimate float64
	extent   float64
	overscan int

	scroll float64

	top    int
	length int
}

// Option configures an Index.
type Option func(*Index)

// WithEstimatedHeight sets the fallback height for unmeasured items.
func WithEstimatedHeight(h float64) Option {
	return func(i *Index) {
		if validHeight(h) && h > 0 {
			i.estimate = h
		}
	}
}

// WithViewportExtent sets the height of the visible area.
func WithViewportExtent(px float64) Option {
	return func(i *Index) {
		i.extent = sanitize(px)
	}
}

// WithOverscan sets how many extra items are kept on each side of the
// window.
func WithOverscan(items int) Option {
	return func(i *Index) {
		i.overscan = max(0, items)
	}
}

// New creates an index for n unmeasured items.
func New(n int, opts ...Option) *Index {
	idx := &Index{estimate: DefaultEstimatedHeight}
	for _, opt := range opts {
		opt(idx)
	}
	idx.Reset(n)
	return idx
}

// Len returns the number of items in the sequence.
func (i *Index) Len() int {
	return len(i.slots)
}

// EstimatedHeight returns the fallback height for unmeasured items.
func (i *Index) EstimatedHeight() float64 {
	return i.estimate
}

// Reset replaces the sequence with n unmeasured items. Any attached
// observers are disconnected.
func (i *Index) Reset(n int) {
	i.ReleaseObservers()
	n = max(0, n)
	i.slots = make([]slot, n)
	for k := range i.slots {
		i.slots[k].height = i.estimate
	}
	i.rebuild()
}

// Resize changes the length of the sequence, keeping the measurements of
// the items that remain.
func (i *Index) Resize(n int) {
	n = max(0, n)
	switch {
	case n == len(i.slots):
		return
	case n < len(i.slots):
		for k := n; k < len(i.slots); k++ {
			if o := i.slots[k].observer; o != nil {
				o.Disconnect()
			}
		}
		i.slots = i.slots[:n:n]
	default:
		old := len(i.slots)
		i.slots = append(i.slots, make([]slot, n-old)...)
		for k := old; k < n; k++ {
			i.slots[k].height = i.estimate
		}
	}
	i.rebuild()
}

func (i *Index) rebuild() {
	heights := make([]float64, len(i.slots))
	for k, s := range i.slots {
		heights[k] = s.height
	}
	i.offsets = newFenwick(heights)
	i.recompute()
}

// UpdateHeightAtIndex records the measured height of the item at index and
// recomputes the window. Out of range indices and non-finite heights are
// ignored; negative heights count as zero.
func (i *Index) UpdateHeightAtIndex(index int, height float64) {
	if !i.inRange(index) || !validHeight(height) {
		return
	}
	height = max(0, height)
	s := &i.slots[index]
	delta := height - s.height
	s.height = height
	s.measured = true
	if delta != 0 {
		i.offsets.add(index, delta)
	}
	i.recompute()
}

// UpdateScrollPosition recomputes the window for the given scroll offset.
// Negative and non-finite offsets count as zero.
func (i *Index) UpdateScrollPosition(offset float64) {
	i.scroll = sanitize(offset)
	i.recompute()
}

// ScrollPosition returns the last offset passed to UpdateScrollPosition.
func (i *Index) ScrollPosition() float64 {
	return i.scroll
}

// SetViewportExtent changes the height of the visible area and recomputes
// the window.
func (i *Index) SetViewportExtent(px float64) {
	px = sanitize(px)
	if px == i.extent {
		return
	}
	i.extent = px
	i.recompute()
}

// ViewportExtent returns the height of the visible area.
func (i *Index) ViewportExtent() float64 {
	return i.extent
}

// SetOverscan changes the number of extra items kept on each side of the
// window.
func (i *Index) SetOverscan(items int) {
	items = max(0, items)
	if items == i.overscan {
		return
	}
	i.overscan = items
	i.recompute()
}

// Overscan returns the number of extra items kept on each side of the
// window.
func (i *Index) Overscan() int {
	return i.overscan
}

// recompute derives the window from the scroll offset, the extent and the
// offset table:
//
//	K   = max{ k : Offset(k) <= scroll }
//	top = min{ k : Offset(k) = Offset(K) }, clamped to n-1
//	end = 1 + max{ k : Offset(k) < scroll+extent }, clamped to [top, n]
//
// and then widens [top, end) by the overscan on both sides. Zero-height
// items sitting on the top edge stay in the window so they get measured
// again.
func (i *Index) recompute() {
	n := len(i.slots)
	if n == 0 {
		i.top, i.length = 0, 0
		return
	}
	top := 0
	if edge := i.offsets.prefix(i.offsets.countAtMost(i.scroll)); edge > 0 {
		top = i.offsets.countBelow(edge) + 1
	}
	top = min(top, n-1)
	end := 0
	if limit := i.scroll + i.extent; limit > 0 {
		end = i.offsets.countBelow(limit) + 1
	}
	end = min(max(end, top), n)

	top = max(0, top-i.overscan)
	end = min(n, end+i.overscan)
	i.top, i.length = top, end-top
}

// VisibleIndexTop returns the first index of the current window.
func (i *Index) VisibleIndexTop() int {
	return i.top
}

// VisibleLength returns the number of items in the current window.
func (i *Index) VisibleLength() int {
	return i.length
}

// Contains reports whether index lies inside the current window. It is
// false for any index outside the sequence.
func (i *Index) Contains(index int) bool {
	return i.inRange(index) && index >= i.top && index < i.top+i.length
}

// Offset returns the cumulative height of the items before index. Index
// is clamped to [0, Len()], so Offset(Len()) is the total height.
func (i *Index) Offset(index int) float64 {
	if index <= 0 {
		return 0
	}
	return i.offsets.prefix(min(index, len(i.slots)))
}

// TotalHeight returns the height of the whole sequence.
func (i *Index) TotalHeight() float64 {
	return i.Offset(len(i.slots))
}

// Height returns the effective height of the item at index and whether it
// has been measured.
func (i *Index) Height(index int) (float64, bool) {
	if !i.inRange(index) {
		return 0, false
	}
	s := i.slots[index]
	return s.height, s.measured
}

// SetDimensions stores the last measurement of the item at index. ok
// false marks the dimensions absent; the height used by the offset table
// is not affected.
func (i *Index) SetDimensions(index int, d measure.Dimensions, ok bool) {
	if !i.inRange(index) {
		return
	}
	s := &i.slots[index]
	s.dims, s.hasDims = d, ok
}

// Dimensions returns the last successful measurement of the item at index.
func (i *Index) Dimensions(index int) (measure.Dimensions, bool) {
	if !i.inRange(index) {
		return measure.Dimensions{}, false
	}
	s := i.slots[index]
	return s.dims, s.hasDims
}

// SetObserver attaches a resize observer to the item at index,
// disconnecting the previous one.
func (i *Index) SetObserver(index int, o Observer) {
	if !i.inRange(index) {
		if o != nil {
			o.Disconnect()
		}
		return
	}
	s := &i.slots[index]
	if s.observer != nil && s.observer != o {
		s.observer.Disconnect()
	}
	s.observer = o
}

// ReleaseObservers disconnects every attached observer.
func (i *Index) ReleaseObservers() {
	for k := range i.slots {
		if o := i.slots[k].observer; o != nil {
			o.Disconnect()
			i.slots[k].observer = nil
		}
	}
}

func (i *Index) inRange(index int) bool {
	return index >= 0 && index < len(i.slots)
}

func validHeight(h float64) bool {
	return !math.IsNaN(h) && !math.IsInf(h, 0)
}

func sanitize(v float64) float64 {
	if !validHeight(v) || v < 0 {
		return 0
	}
	return v
}

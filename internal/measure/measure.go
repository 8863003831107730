// Package measure defines the measurement provider used by the windowing
// engine and the margin-aware height measurement built on top of it.
package measure

import (
	"math"
	"strconv"
	"strings"
)

// Node is an element of the host's retained tree.
type Node interface {
	// Parent returns the node's parent, or nil at the top of the tree.
	Parent() Node
}

// Anchor is the element whose scroll offset drives visibility. A zero
// Anchor is the top-level viewport.
type Anchor struct {
	Node Node
}

// Viewport returns the anchor that denotes the top-level viewport.
func Viewport() Anchor {
	return Anchor{}
}

// IsViewport reports whether the anchor is the top-level viewport.
func (a Anchor) IsViewport() bool {
	return a.Node == nil
}

// Overflow is a node's computed vertical overflow.
type Overflow int

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowAuto
	OverflowScroll
)

// Scrolls reports whether a node with this overflow is a scroll container.
func (o Overflow) Scrolls() bool {
	return o == OverflowAuto || o == OverflowScroll
}

func (o Overflow) String() string {
	switch o {
	case OverflowHidden:
		return "hidden"
	case OverflowAuto:
		return "auto"
	case OverflowScroll:
		return "scroll"
	default:
		return "visible"
	}
}

// Rect is a node's client rectangle, relative to the viewport.
type Rect struct {
	Top    float64
	Height float64
}

// Dimensions is the measured geometry of one item. Height includes the
// item's vertical margins. Top is informational only.
type Dimensions struct {
	Top    float64
	Height float64
}

// Provider abstracts the host environment's layout queries.
type Provider interface {
	// ComputedOverflow returns the node's vertical overflow.
	ComputedOverflow(n Node) Overflow
	// ClientRect returns the node's first client rectangle. It returns false
	// when the node is not laid out or detached.
	ClientRect(n Node) (Rect, bool)
	// Margins returns the node's computed top and bottom margins as raw
	// style values.
	Margins(n Node) (top, bottom string)
	// ScrollOffset returns the anchor's vertical scroll position.
	ScrollOffset(a Anchor) float64
	// ViewportExtent returns the visible height of the anchor.
	ViewportExtent(a Anchor) float64
	// OnScroll subscribes fn to the anchor's scroll events. Calling cancel
	// removes the subscription.
	OnScroll(a Anchor, fn func()) (cancel func())
}

// Measure reads the node's client rect and margins. It returns false when
// the node has no client rect.
func Measure(p Provider, n Node) (Dimensions, bool) {
	if p == nil || n == nil {
		return Dimensions{}, false
	}
	rect, ok := p.ClientRect(n)
	if !ok {
		return Dimensions{}, false
	}
	mt, mb := p.Margins(n)
	height := finite(rect.Height) + ParseLength(mt) + ParseLength(mb)
	return Dimensions{
		Top:    finite(rect.Top),
		Height: height,
	}, true
}

// ParseLength parses a computed style length such as "12", "12px" or
// "1.5". Anything that does not parse to a finite number yields 0.
func ParseLength(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "px")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(v)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

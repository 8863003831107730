package window

import (
	"slices"

	"github.com/charmbracelet/winlist/internal/measure"
)

type fakeNode struct {
	name     string
	parent   *fakeNode
	overflow measure.Overflow

	rect     measure.Rect
	laidOut  bool
	margins  [2]string
	scrollY  float64
	viewport float64
}

func (n *fakeNode) Parent() measure.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

type listener struct {
	anchor measure.Anchor
	fn     func()
}

type fakeProvider struct {
	windowScroll float64
	windowHeight float64

	listeners     []*listener
	overflowCalls int
}

func (p *fakeProvider) ComputedOverflow(n measure.Node) measure.Overflow {
	p.overflowCalls++
	return n.(*fakeNode).overflow
}

func (p *fakeProvider) ClientRect(n measure.Node) (measure.Rect, bool) {
	fn := n.(*fakeNode)
	return fn.rect, fn.laidOut
}

func (p *fakeProvider) Margins(n measure.Node) (string, string) {
	fn := n.(*fakeNode)
	return fn.margins[0], fn.margins[1]
}

func (p *fakeProvider) ScrollOffset(a measure.Anchor) float64 {
	if a.IsViewport() {
		return p.windowScroll
	}
	return a.Node.(*fakeNode).scrollY
}

func (p *fakeProvider) ViewportExtent(a measure.Anchor) float64 {
	if a.IsViewport() {
		return p.windowHeight
	}
	return a.Node.(*fakeNode).viewport
}

func (p *fakeProvider) OnScroll(a measure.Anchor, fn func()) func() {
	l := &listener{anchor: a, fn: fn}
	p.listeners = append(p.listeners, l)
	return func() {
		p.listeners = slices.DeleteFunc(p.listeners, func(x *listener) bool { return x == l })
	}
}

// scroll sets the anchor's offset and dispatches a scroll event.
func (p *fakeProvider) scroll(a measure.Anchor, y float64) {
	if a.IsViewport() {
		p.windowScroll = y
	} else {
		a.Node.(*fakeNode).scrollY = y
	}
	for _, l := range slices.Clone(p.listeners) {
		if l.anchor == a {
			l.fn()
		}
	}
}

func item(parent *fakeNode, height float64) *fakeNode {
	return &fakeNode{
		parent:  parent,
		rect:    measure.Rect{Height: height},
		laidOut: true,
	}
}

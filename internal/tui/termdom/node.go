// Package termdom is a small retained node tree for terminal layouts. It
// lays children out vertically, in cells, and answers the layout queries
// the windowing engine needs through Document, which implements
// measure.Provider.
package termdom

import (
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/winlist/internal/measure"
	"github.com/charmbracelet/x/exp/ordered"
)

// Node is an element of a Document.
type Node struct {
	doc      *Document
	parent   *Node
	children []*Node

	style    lipgloss.Style
	overflow measure.Overflow
	content  string
	fixed    int // fixed content height, -1 when derived
	hidden   bool

	// Scroll container state.
	extent  int
	scrollY int

	// Layout results.
	top          int // document-space top edge of the content box
	height       int // content box height
	scrollHeight int // height of the laid out children
	laidOut      bool
}

// NewNode creates a detached node rendering content.
func NewNode(content string) *Node {
	return &Node{content: content, fixed: -1}
}

// NewSpacer creates a detached, empty node of the given height.
func NewSpacer(height int) *Node {
	return &Node{fixed: max(0, height)}
}

// NewScroller creates a detached scroll container showing extent rows.
func NewScroller(extent int) *Node {
	return &Node{overflow: measure.OverflowAuto, extent: max(0, extent), fixed: -1}
}

// Parent implements measure.Node.
func (n *Node) Parent() measure.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Children returns the node's children.
func (n *Node) Children() []*Node {
	return n.children
}

// Attached reports whether the node is part of a document.
func (n *Node) Attached() bool {
	return n.doc != nil
}

// SetStyle sets the node's style. Only the vertical margins take part in
// layout.
func (n *Node) SetStyle(s lipgloss.Style) *Node {
	n.style = s
	n.invalidate()
	return n
}

// Content returns the node's content.
func (n *Node) Content() string {
	return n.content
}

// SetContent replaces the node's content.
func (n *Node) SetContent(s string) {
	if s == n.content {
		return
	}
	n.content = s
	n.invalidate()
}

// SetHeight fixes the node's content height. A negative height derives it
// from the content again.
func (n *Node) SetHeight(h int) {
	if h < 0 {
		h = -1
	}
	if h == n.fixed {
		return
	}
	n.fixed = h
	n.invalidate()
}

// SetHidden removes the node from layout without detaching it.
func (n *Node) SetHidden(hidden bool) {
	if hidden == n.hidden {
		return
	}
	n.hidden = hidden
	n.invalidate()
}

// Extent returns the number of rows a scroll container shows.
func (n *Node) Extent() int {
	return n.extent
}

// SetExtent changes the number of rows a scroll container shows and clamps
// its scroll offset.
func (n *Node) SetExtent(rows int) {
	n.extent = max(0, rows)
	n.invalidate()
}

// ScrollY returns the node's scroll offset.
func (n *Node) ScrollY() int {
	return n.scrollY
}

// AppendChild attaches child as the node's last child.
func (n *Node) AppendChild(child *Node) {
	n.InsertBefore(child, nil)
}

// InsertBefore attaches child before ref, or last when ref is nil or not a
// child of n.
func (n *Node) InsertBefore(child, ref *Node) {
	if child == nil || child == n {
		return
	}
	child.Remove()
	child.parent = n
	pos := len(n.children)
	for i, c := range n.children {
		if c == ref {
			pos = i
			break
		}
	}
	n.children = append(n.children, nil)
	copy(n.children[pos+1:], n.children[pos:])
	n.children[pos] = child
	child.setDoc(n.doc)
	n.invalidate()
}

// Remove detaches the node from its parent.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
	p.invalidate()
	n.setDoc(nil)
}

func (n *Node) setDoc(d *Document) {
	n.doc = d
	n.laidOut = false
	for _, c := range n.children {
		c.setDoc(d)
	}
}

func (n *Node) invalidate() {
	if n.doc != nil {
		n.doc.dirty = true
	}
}

// outerHeight is the laid out height including vertical margins.
func (n *Node) outerHeight() int {
	if n.hidden {
		return 0
	}
	return n.style.GetMarginTop() + n.height + n.style.GetMarginBottom()
}

// layout positions n's content box at top and lays out its children.
// Nodes inside a hidden subtree have no layout.
func (n *Node) layout(top int, visible bool) {
	visible = visible && !n.hidden
	n.top = top
	n.laidOut = visible
	cursor := top
	for _, c := range n.children {
		c.layout(cursor+c.style.GetMarginTop(), visible)
		cursor += c.outerHeight()
	}
	n.scrollHeight = cursor - top

	switch {
	case n.fixed >= 0:
		n.height = n.fixed
	case n.overflow.Scrolls() || n.overflow == measure.OverflowHidden:
		n.height = n.extent
	case len(n.children) > 0:
		n.height = n.scrollHeight
	case n.content == "":
		n.height = 0
	default:
		n.height = lipgloss.Height(n.content)
	}
	n.scrollY = n.clampScroll(n.scrollY)
}

// maxScroll is the largest scroll offset of a scroll container.
func (n *Node) maxScroll() int {
	return max(0, n.scrollHeight-n.height)
}

func (n *Node) clampScroll(y int) int {
	if !n.overflow.Scrolls() {
		return 0
	}
	return ordered.Clamp(y, 0, n.maxScroll())
}

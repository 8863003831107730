package termdom

import (
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/winlist/internal/measure"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/ordered"
)

var _ measure.Provider = (*Document)(nil)

type listener struct {
	anchor *Node // nil for the viewport
	fn     func()
}

// Document is the top-level viewport of a node tree.
type Document struct {
	root *Node

	width, height int
	scrollY       int

	dirty     bool
	listeners []*listener
	observers []*ResizeObserver
}

// NewDocument creates an empty document with a viewport of the given size.
func NewDocument(width, height int) *Document {
	d := &Document{
		width:  max(0, width),
		height: max(0, height),
		dirty:  true,
	}
	d.root = &Node{doc: d, fixed: -1}
	return d
}

// Root returns the document's root node.
func (d *Document) Root() *Node {
	return d.root
}

// Size returns the viewport size.
func (d *Document) Size() (width, height int) {
	return d.width, d.height
}

// SetSize resizes the viewport.
func (d *Document) SetSize(width, height int) {
	d.width, d.height = max(0, width), max(0, height)
	d.dirty = true
}

// Layout lays out the whole tree if anything changed since the last
// layout.
func (d *Document) Layout() {
	if !d.dirty {
		return
	}
	d.dirty = false
	d.root.layout(0, true)
	d.scrollY = ordered.Clamp(d.scrollY, 0, max(0, d.root.height-d.height))
}

func (d *Document) node(n measure.Node) *Node {
	dn, ok := n.(*Node)
	if !ok || dn == nil || dn.doc != d {
		return nil
	}
	return dn
}

// ComputedOverflow implements measure.Provider.
func (d *Document) ComputedOverflow(n measure.Node) measure.Overflow {
	if dn, ok := n.(*Node); ok && dn != nil {
		return dn.overflow
	}
	return measure.OverflowVisible
}

// ClientRect implements measure.Provider. Detached and hidden nodes have no
// client rect.
func (d *Document) ClientRect(n measure.Node) (measure.Rect, bool) {
	dn := d.node(n)
	if dn == nil {
		return measure.Rect{}, false
	}
	d.Layout()
	if !dn.laidOut {
		return measure.Rect{}, false
	}
	top := dn.top - d.scrollY
	for p := dn.parent; p != nil; p = p.parent {
		top -= p.scrollY
	}
	return measure.Rect{Top: float64(top), Height: float64(dn.height)}, true
}

// Margins implements measure.Provider.
func (d *Document) Margins(n measure.Node) (string, string) {
	dn, ok := n.(*Node)
	if !ok || dn == nil {
		return "", ""
	}
	return strconv.Itoa(dn.style.GetMarginTop()), strconv.Itoa(dn.style.GetMarginBottom())
}

// ScrollOffset implements measure.Provider.
func (d *Document) ScrollOffset(a measure.Anchor) float64 {
	d.Layout()
	if a.IsViewport() {
		return float64(d.scrollY)
	}
	if dn := d.node(a.Node); dn != nil {
		return float64(dn.scrollY)
	}
	return 0
}

// ViewportExtent implements measure.Provider.
func (d *Document) ViewportExtent(a measure.Anchor) float64 {
	d.Layout()
	if a.IsViewport() {
		return float64(d.height)
	}
	if dn := d.node(a.Node); dn != nil {
		return float64(dn.height)
	}
	return 0
}

// ScrollHeight returns the full content height behind the anchor.
func (d *Document) ScrollHeight(a measure.Anchor) int {
	d.Layout()
	if a.IsViewport() {
		return d.root.height
	}
	if dn := d.node(a.Node); dn != nil {
		return dn.scrollHeight
	}
	return 0
}

// OnScroll implements measure.Provider. Listeners run synchronously, in
// subscription order.
func (d *Document) OnScroll(a measure.Anchor, fn func()) func() {
	l := &listener{fn: fn}
	if !a.IsViewport() {
		l.anchor = d.node(a.Node)
		if l.anchor == nil {
			return func() {}
		}
	}
	d.listeners = append(d.listeners, l)
	return func() {
		d.listeners = slices.DeleteFunc(d.listeners, func(x *listener) bool { return x == l })
	}
}

// ScrollTo scrolls the anchor to y, clamped to its scrollable range, and
// dispatches a scroll event when the offset changed.
func (d *Document) ScrollTo(a measure.Anchor, y int) {
	d.Layout()
	var target *Node
	if !a.IsViewport() {
		if target = d.node(a.Node); target == nil || !target.overflow.Scrolls() {
			return
		}
	}
	if target == nil {
		y = ordered.Clamp(y, 0, max(0, d.root.height-d.height))
		if y == d.scrollY {
			return
		}
		d.scrollY = y
	} else {
		y = target.clampScroll(y)
		if y == target.scrollY {
			return
		}
		target.scrollY = y
	}
	d.dispatch(target)
}

// ScrollBy scrolls the anchor by dy rows.
func (d *Document) ScrollBy(a measure.Anchor, dy int) {
	d.ScrollTo(a, int(d.ScrollOffset(a))+dy)
}

func (d *Document) dispatch(target *Node) {
	for _, l := range slices.Clone(d.listeners) {
		if l.anchor == target {
			l.fn()
		}
	}
}

// ResizeObserver watches the height of one node. Callbacks are delivered
// by Document.DeliverResizes.
type ResizeObserver struct {
	doc  *Document
	node *Node
	last int
	fn   func()
}

// Disconnect stops the observation.
func (o *ResizeObserver) Disconnect() {
	if o.doc == nil {
		return
	}
	o.doc.observers = slices.DeleteFunc(o.doc.observers, func(x *ResizeObserver) bool { return x == o })
	o.doc = nil
}

// ObserveResize calls fn whenever the laid out height of n changes.
func (d *Document) ObserveResize(n *Node, fn func()) *ResizeObserver {
	d.Layout()
	o := &ResizeObserver{doc: d, node: n, last: n.height, fn: fn}
	d.observers = append(d.observers, o)
	return o
}

// DeliverResizes lays the document out and notifies the observers of
// every node whose height changed since the last delivery. It returns the
// number of notifications.
func (d *Document) DeliverResizes() int {
	d.Layout()
	var changed []*ResizeObserver
	for _, o := range d.observers {
		if o.node.height != o.last {
			o.last = o.node.height
			changed = append(changed, o)
		}
	}
	for _, o := range changed {
		if o.doc != nil {
			o.fn()
		}
	}
	return len(changed)
}

// View renders the rows of the viewport.
func (d *Document) View() string {
	d.Layout()
	rows := d.rows(d.root, d.scrollY, d.scrollY+d.height, nil)
	return d.join(pad(rows, d.height))
}

func (d *Document) join(rows []string) string {
	for i, r := range rows {
		rows[i] = ansi.Truncate(r, d.width, "")
	}
	return strings.Join(rows, "\n")
}

// rows appends the rows [from, to) of n's content box to out. Scroll
// containers are offset by their scroll position.
func (d *Document) rows(n *Node, from, to int, out []string) []string {
	from, to = max(from, 0), min(to, n.height)
	if from >= to {
		return out
	}
	want := len(out) + to - from

	if len(n.children) == 0 {
		if n.fixed < 0 && n.content != "" {
			lines := strings.Split(n.content, "\n")
			for r := from; r < min(to, len(lines)); r++ {
				out = append(out, lines[r])
			}
		}
		return pad(out, want)
	}

	lo, hi := from+n.scrollY, to+n.scrollY
	pos := 0
	for _, c := range n.children {
		if c.hidden {
			continue
		}
		start := pos + c.style.GetMarginTop()
		end := start + c.height
		outerEnd := end + c.style.GetMarginBottom()
		if pos >= hi {
			break
		}
		if outerEnd > lo {
			out = pad(out, len(out)+max(0, min(start, hi)-max(pos, lo)))
			out = d.rows(c, max(lo, start)-start, min(hi, end)-start, out)
			out = pad(out, len(out)+max(0, min(outerEnd, hi)-max(end, lo)))
		}
		pos = outerEnd
	}
	return pad(out, want)
}

func pad(out []string, n int) []string {
	for len(out) < n {
		out = append(out, "")
	}
	return out
}

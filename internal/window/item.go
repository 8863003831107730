package window

import "github.com/charmbracelet/winlist/internal/measure"

// Item binds the lifecycle of one index to a controller's capabilities.
// It knows nothing about the content it wraps.
type Item struct {
	index int
	caps  Capabilities
	node  measure.Node
}

// NewItem creates the adapter for index.
func NewItem(index int, caps Capabilities) *Item {
	return &Item{index: index, caps: caps}
}

// Index returns the adapter's index.
func (i *Item) Index() int {
	return i.index
}

// ShouldRender reports whether real content should be produced instead of
// a placeholder.
func (i *Item) ShouldRender() bool {
	return i.caps.ShouldItemRender != nil && i.caps.ShouldItemRender(i.index)
}

// Mounted reports whether a node is currently attached.
func (i *Item) Mounted() bool {
	return i.node != nil
}

// Mount attaches node and reports it for measurement.
func (i *Item) Mount(node measure.Node) {
	i.node = node
	i.report(node)
}

// Rendered reports the attached node again after a re-render.
func (i *Item) Rendered() {
	if i.node != nil {
		i.report(i.node)
	}
}

// Unmount detaches the node and reports nil. Stored dimensions are kept.
func (i *Item) Unmount() {
	i.node = nil
	i.report(nil)
}

// PlaceholderHeight returns the last measured height, or fallback when the
// item was never measured.
func (i *Item) PlaceholderHeight(fallback float64) float64 {
	if i.caps.ItemDimensions == nil {
		return fallback
	}
	if d, ok := i.caps.ItemDimensions(i.index); ok {
		return d.Height
	}
	return fallback
}

func (i *Item) report(node measure.Node) {
	if i.caps.OnItemRender != nil {
		i.caps.OnItemRender(i.index, node)
	}
}

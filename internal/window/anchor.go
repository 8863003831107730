package window

import "github.com/charmbracelet/winlist/internal/measure"

// DiscoverAnchor walks up from parent and returns the first ancestor whose
// vertical overflow scrolls. When there is none it returns the viewport.
func DiscoverAnchor(p measure.Provider, parent measure.Node) measure.Anchor {
	for n := parent; n != nil; n = n.Parent() {
		if p.ComputedOverflow(n).Scrolls() {
			return measure.Anchor{Node: n}
		}
	}
	return measure.Viewport()
}

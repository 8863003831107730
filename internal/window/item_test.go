package window

import (
	"testing"

	"github.com/charmbracelet/winlist/internal/measure"
	"github.com/stretchr/testify/require"
)

func TestItemLifecycle(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{windowHeight: 100}
	c := New(p, newIndex(50))
	container := &fakeNode{}

	items := make([]*Item, 50)
	for i := range items {
		items[i] = NewItem(i, c.Capabilities())
	}

	// Before anything is measured the window is still computed from estimates.
	require.False(t, items[0].ShouldRender())
	n := item(container, 30)
	items[0].Mount(n)
	require.True(t, items[0].Mounted())
	require.Equal(t, 30.0, items[0].PlaceholderHeight(50))
	require.True(t, items[0].ShouldRender())
	require.True(t, items[2].ShouldRender())
	require.False(t, items[3].ShouldRender())

	n.rect.Height = 45
	items[0].Rendered()
	require.Equal(t, 45.0, items[0].PlaceholderHeight(50))

	items[0].Unmount()
	require.False(t, items[0].Mounted())
	require.Equal(t, 45.0, items[0].PlaceholderHeight(50), "unmounting keeps dimensions")

	items[0].Rendered()
	require.Equal(t, 50.0, items[7].PlaceholderHeight(50))
	require.Equal(t, 7, items[7].Index())
}

func TestItemWithoutCapabilities(t *testing.T) {
	t.Parallel()

	it := NewItem(0, Capabilities{})
	require.False(t, it.ShouldRender())
	require.Equal(t, 3.0, it.PlaceholderHeight(3))
	require.NotPanics(t, func() {
		it.Mount(&fakeNode{})
		it.Unmount()
	})
}

func TestItemsFollowScroll(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{windowHeight: 100}
	c := New(p, newIndex(100))
	container := &fakeNode{}
	items := make([]*Item, 100)
	for i := range items {
		items[i] = NewItem(i, c.Capabilities())
	}
	items[0].Mount(item(container, 50))

	p.scroll(measure.Viewport(), 1000)
	var visible []int
	for _, it := range items {
		if it.ShouldRender() {
			visible = append(visible, it.Index())
		}
	}
	require.Equal(t, []int{20, 21}, visible)
}

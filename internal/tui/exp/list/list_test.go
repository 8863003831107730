package list

import (
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/winlist/internal/metrics"
	"github.com/charmbracelet/x/exp/golden"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(from, to int) []Item {
	items := make([]Item, 0, to-from)
	for i := from; i < to; i++ {
		items = append(items, NewTextItem(fmt.Sprint(i), fmt.Sprintf("item %d", i)))
	}
	return items
}

func lines(view string) []string {
	return strings.Split(view, "\n")
}

func TestListMountsOnlyTheWindow(t *testing.T) {
	t.Parallel()

	m := metrics.NewMetrics()
	l := New(numbered(0, 100), WithSize(10, 5), WithMetrics(m))

	require.Equal(t, "item 0\nitem 1\nitem 2\nitem 3\nitem 4", l.View())
	st := l.Stats()
	assert.Equal(t, 0, st.Top)
	assert.Equal(t, 5, st.Length)
	assert.Equal(t, 5, st.Mounted)
	assert.Equal(t, 100, st.Items)
	assert.Equal(t, 5+95*DefaultEstimatedHeight, st.TotalHeight)
	assert.Equal(t, int64(5), m.GetSnapshot()["mounts"])
}

func TestListScrollMovesTheWindow(t *testing.T) {
	t.Parallel()

	l := New(numbered(0, 100), WithSize(10, 5))
	l.MoveDown(10)

	require.Equal(t, "item 8\nitem 9\nitem 10\nitem 11\nitem 12", l.View())
	st := l.Stats()
	assert.Equal(t, 8, st.Top)
	assert.Equal(t, 5, st.Length)
	assert.Equal(t, 5, st.Mounted)
	assert.Equal(t, 10, st.Offset)

	l.GoToTop()
	require.Equal(t, "item 0\nitem 1\nitem 2\nitem 3\nitem 4", l.View())
	assert.Equal(t, 0, l.Stats().Offset)
}

func TestListGoToBottom(t *testing.T) {
	t.Parallel()

	l := New(numbered(0, 100), WithSize(10, 5))
	l.GoToBottom()

	got := lines(l.View())
	require.Equal(t, []string{"item 95", "item 96", "item 97", "item 98", "item 99"}, got)
	require.True(t, l.AtBottom())
	st := l.Stats()
	assert.Equal(t, 100, st.Top+st.Length)
}

func TestListFollowsAppends(t *testing.T) {
	t.Parallel()

	l := New(numbered(0, 3), WithSize(10, 5))
	require.Equal(t, "item 0\nitem 1\nitem 2\n\n", l.View())

	l.GoToBottom()
	l.AppendItems(numbered(3, 13)...)
	got := lines(l.View())
	require.Equal(t, "item 12", got[len(got)-1])
	require.True(t, l.AtBottom())
	require.Len(t, l.Items(), 13)

	// Scrolling up stops following.
	l.MoveUp(2)
	l.AppendItems(numbered(13, 20)...)
	require.False(t, l.AtBottom())
	require.Equal(t, 20, l.Stats().Items)
}

func TestListKeysAndMouse(t *testing.T) {
	t.Parallel()

	l := New(numbered(0, 100), WithSize(10, 5))
	l.Update(tea.KeyPressMsg{Code: tea.KeyPgDown})
	require.Equal(t, 5, l.Stats().Offset)
	l.Update(tea.KeyPressMsg{Code: 'k', Text: "k"})
	require.Equal(t, 4, l.Stats().Offset)
	l.Update(tea.KeyPressMsg{Code: tea.KeyHome})
	require.Equal(t, 0, l.Stats().Offset)

	// The wheel is ignored unless enabled.
	l.Update(tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	require.Equal(t, 0, l.Stats().Offset)

	wheel := New(numbered(0, 100), WithSize(10, 5), WithEnableMouse())
	wheel.Update(tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	require.Equal(t, ViewportDefaultScrollSize, wheel.Stats().Offset)
	wheel.Update(tea.MouseWheelMsg{Button: tea.MouseWheelUp})
	require.Equal(t, 0, wheel.Stats().Offset)

	blurred := New(numbered(0, 100), WithSize(10, 5), WithFocus(false))
	blurred.Update(tea.KeyPressMsg{Code: tea.KeyPgDown})
	require.Equal(t, 0, blurred.Stats().Offset)
}

func TestListSetItemsReplacesSequence(t *testing.T) {
	t.Parallel()

	l := New(numbered(0, 100), WithSize(10, 5))
	l.MoveDown(10)
	l.SetItems(numbered(0, 2))

	require.Equal(t, "item 0\nitem 1\n\n\n", l.View())
	st := l.Stats()
	assert.Equal(t, 2, st.Items)
	assert.Equal(t, 2, st.Mounted)
	assert.Equal(t, 0, st.Offset)

	l.SetItems(nil)
	require.Equal(t, Stats{}, l.Stats())
}

func TestListWrapAndTruncate(t *testing.T) {
	t.Parallel()

	items := []Item{NewTextItem("a", "abcdefgh")}

	wrapped := New(items, WithSize(4, 5), WithWrap(true))
	require.Equal(t, 2, wrapped.Stats().TotalHeight)

	truncated := New(items, WithSize(4, 5))
	require.Equal(t, 1, truncated.Stats().TotalHeight)
	require.Equal(t, "abc…", lines(truncated.View())[0])

	// Widening re-renders mounted items.
	truncated.SetSize(8, 5)
	require.Equal(t, "abcdefgh", lines(truncated.View())[0])
}

func TestListSetWrap(t *testing.T) {
	t.Parallel()

	l := New([]Item{NewTextItem("a", "abcdefgh"), NewTextItem("b", "b")}, WithSize(4, 5))
	require.Equal(t, 2, l.Stats().TotalHeight)

	l.SetWrap(true)
	require.Equal(t, 3, l.Stats().TotalHeight)
	require.Equal(t, "b", strings.TrimRight(lines(l.View())[2], " "))

	l.SetWrap(false)
	require.Equal(t, 2, l.Stats().TotalHeight)
	require.Equal(t, "abc…", lines(l.View())[0])
}

func TestListEmptyItemsTakeARow(t *testing.T) {
	t.Parallel()

	l := New(Lines("a\n\nb\n", 0), WithSize(5, 3))
	require.Equal(t, "a\n \nb", l.View())
	require.Equal(t, 3, l.Stats().TotalHeight)
}

func TestLineItemsKeepBlankLines(t *testing.T) {
	t.Parallel()

	items := LineItems([]string{"x\r", "", ""}, 7)
	require.Len(t, items, 3)
	require.Equal(t, "7", items[0].ID())
	require.Equal(t, "x", items[0].Render(10))
	require.Equal(t, "9", items[2].ID())
	require.Equal(t, "", items[2].Render(10))

	require.Nil(t, Lines("", 0))
	require.Empty(t, LineItems(nil, 0))
}

func TestListUpdateItemRemeasures(t *testing.T) {
	t.Parallel()

	for name, opts := range map[string][]ListOption{
		"on render": nil,
		"on resize": {WithResizeObserver()},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			opts := append([]ListOption{WithSize(10, 10)}, opts...)
			l := New(numbered(0, 3), opts...)
			require.Equal(t, 3, l.Stats().TotalHeight)

			l.UpdateItem(NewTextItem("1", "one\ntwo\nthree"))
			require.Equal(t, 5, l.Stats().TotalHeight)
			require.Equal(t, "item 0\none\ntwo\nthree\nitem 2", strings.TrimRight(l.View(), "\n"))

			// Unknown items are ignored.
			l.UpdateItem(NewTextItem("missing", "x"))
			require.Equal(t, 5, l.Stats().TotalHeight)
		})
	}
}

func TestListGapCountsTowardsHeight(t *testing.T) {
	t.Parallel()

	l := New(numbered(0, 3), WithSize(10, 10), WithGap(1))
	require.Equal(t, 6, l.Stats().TotalHeight)
	require.Equal(t, "item 0\n\nitem 1\n\nitem 2", strings.TrimRight(l.View(), "\n"))
}

func TestListThresholdAndOverscan(t *testing.T) {
	t.Parallel()

	l := New(numbered(0, 100), WithSize(10, 5))
	l.MoveDown(10)
	require.Equal(t, 8, l.Stats().Top)

	l.SetThreshold(2)
	st := l.Stats()
	assert.Equal(t, 6, st.Top)
	assert.Equal(t, 7, st.Length)
	require.Equal(t, "item 8", lines(l.View())[0])

	l.SetThreshold(0)
	l.SetOverscan(1)
	st = l.Stats()
	assert.Equal(t, 7, st.Top)
	assert.Equal(t, 7, st.Length)
	require.Equal(t, "item 8", lines(l.View())[0])
}

func TestListCloseStopsTracking(t *testing.T) {
	t.Parallel()

	l := New(numbered(0, 100), WithSize(10, 5))
	l.Close()
	l.MoveDown(10)
	require.Equal(t, 0, l.Stats().Top)
}

func TestListGoldenViews(t *testing.T) {
	t.Parallel()

	t.Run("gap and truncation", func(t *testing.T) {
		t.Parallel()
		items := []Item{
			NewTextItem("a", "first item is long"),
			NewTextItem("b", "second"),
			NewTextItem("c", "third"),
		}
		l := New(items, WithSize(10, 8), WithGap(1))
		golden.RequireEqual(t, []byte(l.View()))
	})

	t.Run("scrolled to the middle", func(t *testing.T) {
		t.Parallel()
		l := New(numbered(0, 1000), WithSize(12, 4))
		l.MoveDown(500)
		golden.RequireEqual(t, []byte(l.View()))
	})
}

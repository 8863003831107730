package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/winlist/internal/config"
	"github.com/charmbracelet/winlist/internal/tui/exp/list"
	"github.com/charmbracelet/winlist/internal/tui/styles"
	"github.com/charmbracelet/winlist/internal/tui/util"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func testConfig(overscan int) *config.Config {
	return &config.Config{
		Options: &config.Options{},
		List: &config.ListOptions{
			EstimatedHeight: 1,
			Overscan:        &overscan,
		},
	}
}

func numberedLines(n int) []list.Item {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	return list.LineItems(lines, 0)
}

// screen returns the rendered rows without styling or trailing blanks.
func screen(m *appModel) []string {
	rows := strings.Split(ansi.Strip(m.View().Content), "\n")
	for i, r := range rows {
		rows[i] = strings.TrimRight(r, " ")
	}
	return rows
}

func TestViewShowsListAndStatus(t *testing.T) {
	t.Parallel()

	m := New(testConfig(0), numberedLines(50), Options{Title: "app.log"})
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 6})

	rows := screen(m)
	require.Len(t, rows, 6)
	require.Equal(t, []string{"line 0", "line 1", "line 2", "line 3", "line 4"}, rows[:5])
	require.Contains(t, rows[5], "app.log")
	require.Contains(t, rows[5], "items 1-5/50")
	require.Contains(t, rows[5], "row 0/50")
	require.NotContains(t, rows[5], styles.FollowIcon)
}

func TestViewTooSmall(t *testing.T) {
	t.Parallel()

	m := New(testConfig(0), numberedLines(5), Options{})
	m.Update(tea.WindowSizeMsg{Width: 19, Height: 10})
	require.Contains(t, ansi.Strip(m.View().Content), "Window too small!")
}

func TestFollowAppendedLines(t *testing.T) {
	t.Parallel()

	m := New(testConfig(0), numberedLines(3), Options{Follow: true})
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 6})

	lines := make([]string, 10)
	for i := range lines {
		lines[i] = fmt.Sprintf("new %d", i)
	}
	m.Update(AppendLinesMsg{Lines: lines})

	rows := screen(m)
	require.Equal(t, "new 9", rows[4])
	require.Contains(t, rows[5], "/13")
	require.Contains(t, rows[5], styles.FollowIcon)
	require.Len(t, m.list.Items(), 13)
	require.Equal(t, "12", m.list.Items()[12].ID())

	_, cmd := m.Update(AppendLinesMsg{})
	require.Nil(t, cmd)
}

func TestFollowKeepsBlankLines(t *testing.T) {
	t.Parallel()

	m := New(testConfig(0), numberedLines(3), Options{Follow: true})
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 6})

	m.Update(AppendLinesMsg{Lines: []string{"x", ""}})
	require.Len(t, m.list.Items(), 5)
	m.Update(AppendLinesMsg{Lines: []string{""}})
	require.Len(t, m.list.Items(), 6)

	ids := make([]string, 0, 6)
	for _, it := range m.list.Items() {
		ids = append(ids, it.ID())
	}
	require.Equal(t, []string{"0", "1", "2", "3", "4", "5"}, ids)
	require.Contains(t, screen(m)[5], "/6")
}

func TestKeysReachTheList(t *testing.T) {
	t.Parallel()

	m := New(testConfig(0), numberedLines(50), Options{})
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 6})

	m.Update(tea.KeyPressMsg{Code: tea.KeyPgDown})
	require.Equal(t, 5, m.list.Stats().Offset)
	require.Equal(t, "line 5", screen(m)[0])

	m.Update(tea.KeyPressMsg{Code: 'F', Text: "F"})
	require.True(t, m.list.AtBottom())

	_, cmd := m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestConfigReloadAppliesListOptions(t *testing.T) {
	t.Parallel()

	m := New(testConfig(0), numberedLines(100), Options{})
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 6})
	m.Update(tea.KeyPressMsg{Code: tea.KeyPgDown})
	require.Equal(t, 5, m.list.Stats().Top)

	cfg := testConfig(0)
	cfg.List.ThresholdTop = 2
	_, cmd := m.Update(ConfigReloadedMsg{Config: cfg})
	require.NotNil(t, cmd)
	require.Equal(t, util.InfoMsg{Type: util.InfoTypeInfo, Msg: "Configuration reloaded"}, cmd())

	st := m.list.Stats()
	require.Equal(t, 3, st.Top)
	require.Equal(t, 7, st.Length)
	require.Equal(t, "line 5", screen(m)[0])

	_, cmd = m.Update(ConfigReloadedMsg{})
	require.Nil(t, cmd)
}

func TestInfoMessagesExpire(t *testing.T) {
	t.Parallel()

	m := New(testConfig(0), numberedLines(5), Options{Title: "title"})
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 6})

	_, cmd := m.Update(util.InfoMsg{Type: util.InfoTypeWarn, Msg: "careful"})
	require.NotNil(t, cmd)
	status := screen(m)[5]
	require.Contains(t, status, "careful")
	require.NotContains(t, status, "title")

	m.Update(util.ClearStatusMsg{})
	status = screen(m)[5]
	require.NotContains(t, status, "careful")
	require.Contains(t, status, "title")
}

func TestWrapTogglePersists(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("WINLIST_GLOBAL_CONFIG", "")
	t.Setenv("WINLIST_GLOBAL_DATA", "")
	t.Setenv("WINLIST_THRESHOLD_TOP", "")
	t.Setenv("WINLIST_OVERSCAN", "")

	wd := t.TempDir()
	cfg, err := config.Load(wd, "", false)
	require.NoError(t, err)

	m := New(cfg, []list.Item{list.NewTextItem("0", strings.Repeat("x", 60))}, Options{})
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 6})
	require.Equal(t, 1, m.list.Stats().TotalHeight)

	_, cmd := m.Update(tea.KeyPressMsg{Code: 'w', Text: "w"})
	require.NotNil(t, cmd)
	require.Equal(t, util.InfoMsg{Type: util.InfoTypeInfo, Msg: "Wrapping long lines"}, cmd())
	require.Equal(t, 2, m.list.Stats().TotalHeight)

	reloaded, err := config.Load(wd, "", false)
	require.NoError(t, err)
	require.True(t, reloaded.List.Wrap)
}

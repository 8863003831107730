// Package tui is the interactive viewer: a virtualized list of lines with
// a status line below it.
package tui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/winlist/internal/config"
	"github.com/charmbracelet/winlist/internal/metrics"
	"github.com/charmbracelet/winlist/internal/tui/exp/list"
	"github.com/charmbracelet/winlist/internal/tui/styles"
	"github.com/charmbracelet/winlist/internal/tui/util"
	"github.com/charmbracelet/x/ansi"
)

const (
	statusHeight     = 1
	defaultStatusTTL = 5 * time.Second

	minWidth  = 20
	minHeight = 3
)

// AppendLinesMsg appends lines to the list, typically read from a followed
// file.
type AppendLinesMsg struct {
	Lines []string
}

// ConfigReloadedMsg carries a configuration loaded by the hot reloader.
type ConfigReloadedMsg struct {
	Config *config.Config
}

var lastMouseEvent time.Time

// MouseEventFilter drops wheel and motion events arriving faster than the
// list can use them.
func MouseEventFilter(m tea.Model, msg tea.Msg) tea.Msg {
	switch msg.(type) {
	case tea.MouseWheelMsg, tea.MouseMotionMsg:
		now := time.Now()
		// trackpad is sending too many requests
		if now.Sub(lastMouseEvent) < 15*time.Millisecond {
			return nil
		}
		lastMouseEvent = now
	}
	return msg
}

// Options configures the viewer.
type Options struct {
	Title   string
	Follow  bool
	Metrics *metrics.Metrics
}

// appModel is the top-level model: the list and the status line.
type appModel struct {
	wWidth, wHeight int // Window dimensions
	keyMap          KeyMap

	cfg   *config.Config
	title string
	list  list.List
	next  int // line number of the next appended line

	info util.InfoMsg
}

// New creates the viewer over items.
func New(cfg *config.Config, items []list.Item, opts Options) *appModel {
	model := &appModel{
		keyMap: DefaultKeyMap(),
		cfg:    cfg,
		title:  opts.Title,
		list:   list.New(items, listOptions(cfg, opts.Metrics)...),
		next:   len(items),
	}
	if opts.Follow {
		model.list.GoToBottom()
	}
	return model
}

func listOptions(cfg *config.Config, m *metrics.Metrics) []list.ListOption {
	lo := cfg.List
	opts := []list.ListOption{
		list.WithEstimatedHeight(lo.EstimatedHeight),
		list.WithOverscan(lo.OverscanOr()),
		list.WithThreshold(lo.ThresholdTop),
		list.WithGap(lo.Gap),
		list.WithWrap(lo.Wrap),
		list.WithMetrics(m),
	}
	if !lo.DisableMouse {
		opts = append(opts, list.WithEnableMouse())
	}
	if lo.ObserveResize {
		opts = append(opts, list.WithResizeObserver())
	}
	return opts
}

// Init implements tea.Model.
func (a *appModel) Init() tea.Cmd {
	return a.list.Init()
}

// Update implements tea.Model.
func (a *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.wWidth, a.wHeight = msg.Width, msg.Height
		return a, a.list.SetSize(msg.Width, max(0, msg.Height-statusHeight))

	case tea.KeyPressMsg:
		switch {
		case key.Matches(msg, a.keyMap.Quit):
			a.list.Close()
			return a, tea.Quit
		case key.Matches(msg, a.keyMap.Suspend):
			return a, tea.Suspend
		case key.Matches(msg, a.keyMap.Wrap):
			return a, a.toggleWrap()
		case key.Matches(msg, a.keyMap.Follow):
			return a, a.list.GoToBottom()
		}
		_, cmd := a.list.Update(msg)
		return a, cmd

	case tea.MouseWheelMsg:
		_, cmd := a.list.Update(msg)
		return a, cmd

	case AppendLinesMsg:
		if len(msg.Lines) == 0 {
			return a, nil
		}
		items := list.LineItems(msg.Lines, a.next)
		a.next += len(items)
		return a, a.list.AppendItems(items...)

	case ConfigReloadedMsg:
		return a, a.applyConfig(msg.Config)

	case util.InfoMsg:
		a.info = msg
		ttl := msg.TTL
		if ttl == 0 {
			ttl = defaultStatusTTL
		}
		return a, tea.Tick(ttl, func(time.Time) tea.Msg {
			return util.ClearStatusMsg{}
		})

	case util.ClearStatusMsg:
		a.info = util.InfoMsg{}
		return a, nil
	}
	return a, nil
}

func (a *appModel) toggleWrap() tea.Cmd {
	wrap := !a.cfg.List.Wrap
	a.list.SetWrap(wrap)
	if err := a.cfg.SetWrap(wrap); err != nil {
		return util.ReportError(fmt.Errorf("failed to save wrap setting: %w", err))
	}
	if wrap {
		return util.ReportInfo("Wrapping long lines")
	}
	return util.ReportInfo("Truncating long lines")
}

func (a *appModel) applyConfig(cfg *config.Config) tea.Cmd {
	if cfg == nil || cfg.List == nil {
		return nil
	}
	a.cfg = cfg
	a.list.SetThreshold(cfg.List.ThresholdTop)
	a.list.SetOverscan(cfg.List.OverscanOr())
	a.list.SetWrap(cfg.List.Wrap)
	return util.ReportInfo("Configuration reloaded")
}

// View implements tea.Model.
func (a *appModel) View() tea.View {
	var view tea.View
	t := styles.CurrentTheme()
	view.AltScreen = true
	if !a.cfg.List.DisableMouse {
		view.MouseMode = tea.MouseModeCellMotion
	}
	view.BackgroundColor = t.BgBase
	if a.wWidth < minWidth || a.wHeight < minHeight {
		view.SetContent(
			t.S().Base.Width(a.wWidth).Height(a.wHeight).
				Align(lipgloss.Center, lipgloss.Center).
				Render(t.S().Warning.Render("Window too small!")),
		)
		return view
	}

	canvas := lipgloss.NewCanvas(
		lipgloss.NewLayer(lipgloss.JoinVertical(lipgloss.Left, a.list.View(), a.statusView())),
	)
	view.Content = canvas.Render()
	return view
}

// statusView renders the title or the current info message on the left and
// the window position on the right.
func (a *appModel) statusView() string {
	t := styles.CurrentTheme()
	s := t.S()
	st := a.list.Stats()

	window := "0/0"
	if st.Items > 0 {
		window = fmt.Sprintf("%d-%d/%d", st.Top+1, st.Top+st.Length, st.Items)
	}
	right := s.StatusKey.Render("items ") + s.StatusValue.Render(window) +
		s.StatusKey.Render("  row ") + s.StatusValue.Render(fmt.Sprintf("%d/%d", st.Offset, st.TotalHeight))
	if st.Items > 0 && a.list.AtBottom() {
		right += s.StatusValue.Render(" " + styles.FollowIcon)
	}

	left := s.Title.Render(a.title)
	if a.info.Msg != "" {
		left = a.infoView()
	}

	inner := max(0, a.wWidth-s.StatusBar.GetHorizontalFrameSize())
	left = ansi.Truncate(left, max(0, inner-lipgloss.Width(right)-1), "…")
	gap := max(0, inner-lipgloss.Width(left)-lipgloss.Width(right))
	return s.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}

func (a *appModel) infoView() string {
	s := styles.CurrentTheme().S()
	switch a.info.Type {
	case util.InfoTypeError:
		return s.Error.Render(styles.ErrorIcon + " " + a.info.Msg)
	case util.InfoTypeWarn:
		return s.Warning.Render(styles.WarningIcon + " " + a.info.Msg)
	case util.InfoTypeSuccess:
		return s.Success.Render(styles.CheckIcon + " " + a.info.Msg)
	default:
		return s.Info.Render(styles.InfoIcon + " " + a.info.Msg)
	}
}

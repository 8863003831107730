// Package list is a virtualized bubbletea list. Only the items inside the
// window computed by the windowing controller are mounted; spacers above
// and below them stand in for everything else, so the list scrolls as if
// every item were present.
package list

import (
	"log/slog"
	"math"
	"slices"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/winlist/internal/csync"
	"github.com/charmbracelet/winlist/internal/measure"
	"github.com/charmbracelet/winlist/internal/metrics"
	"github.com/charmbracelet/winlist/internal/position"
	"github.com/charmbracelet/winlist/internal/tui/termdom"
	"github.com/charmbracelet/winlist/internal/tui/util"
	"github.com/charmbracelet/winlist/internal/window"
	"github.com/charmbracelet/x/ansi"
)

const (
	ViewportDefaultScrollSize = 3
	DefaultEstimatedHeight    = 3

	// Mounting one item can pull the next into the window, so a sync may
	// need several passes to settle. The bound grows with the viewport.
	minSyncPasses = 8
)

type List interface {
	util.Model

	SetSize(width, height int) tea.Cmd
	GetSize() (int, int)
	Focus()
	Blur()

	MoveUp(int) tea.Cmd
	MoveDown(int) tea.Cmd
	GoToTop() tea.Cmd
	GoToBottom() tea.Cmd
	AtBottom() bool

	SetItems([]Item) tea.Cmd
	AppendItems(...Item) tea.Cmd
	UpdateItem(Item) tea.Cmd
	Items() []Item

	SetWrap(bool)
	SetThreshold(rows int)
	SetOverscan(items int)
	Stats() Stats
	Close()
}

// Stats describes the list's current window.
type Stats struct {
	Top         int // first mounted index
	Length      int // number of items in the window
	Mounted     int
	Items       int
	Offset      int // scroll offset, in rows
	TotalHeight int // estimated height of every item, in rows
}

type confOptions struct {
	width, height int
	gap           int
	wrap          bool
	keyMap        KeyMap
	focused       bool
	enableMouse   bool

	estimate      int
	overscan      int
	threshold     int
	observeResize bool

	metrics *metrics.Metrics
	logger  *slog.Logger
}

type list struct {
	*confOptions

	doc          *termdom.Document
	scroller     *termdom.Node
	topSpacer    *termdom.Node
	bottomSpacer *termdom.Node

	items    []Item
	indexMap map[string]int
	adapters []*window.Item
	nodes    map[int]*termdom.Node
	stale    map[int]struct{}
	rendered *csync.Map[string, string]

	ctrl *window.Controller

	follow  bool
	syncing bool
	pending bool
}

type ListOption func(*confOptions)

// WithSize sets the size of the list.
func WithSize(width, height int) ListOption {
	return func(l *confOptions) {
		l.width = width
		l.height = height
	}
}

// WithGap sets the gap between items in the list.
func WithGap(gap int) ListOption {
	return func(l *confOptions) {
		l.gap = max(0, gap)
	}
}

func WithKeyMap(keyMap KeyMap) ListOption {
	return func(l *confOptions) {
		l.keyMap = keyMap
	}
}

// WithWrap wraps long items instead of truncating them.
func WithWrap(wrap bool) ListOption {
	return func(l *confOptions) {
		l.wrap = wrap
	}
}

func WithFocus(focus bool) ListOption {
	return func(l *confOptions) {
		l.focused = focus
	}
}

func WithEnableMouse() ListOption {
	return func(l *confOptions) {
		l.enableMouse = true
	}
}

// WithEstimatedHeight sets the height, in rows, assumed for items that were
// never mounted.
func WithEstimatedHeight(rows int) ListOption {
	return func(l *confOptions) {
		if rows > 0 {
			l.estimate = rows
		}
	}
}

// WithOverscan keeps extra items mounted on each side of the window.
func WithOverscan(items int) ListOption {
	return func(l *confOptions) {
		l.overscan = max(0, items)
	}
}

// WithThreshold keeps items within rows above the viewport mounted.
func WithThreshold(rows int) ListOption {
	return func(l *confOptions) {
		l.threshold = max(0, rows)
	}
}

// WithResizeObserver re-measures mounted items whenever their height
// changes, instead of when they are re-rendered.
func WithResizeObserver() ListOption {
	return func(l *confOptions) {
		l.observeResize = true
	}
}

func WithMetrics(m *metrics.Metrics) ListOption {
	return func(l *confOptions) {
		l.metrics = m
	}
}

func WithLogger(logger *slog.Logger) ListOption {
	return func(l *confOptions) {
		l.logger = logger
	}
}

func New(items []Item, opts ...ListOption) List {
	l := &list{
		confOptions: &confOptions{
			keyMap:   DefaultKeyMap(),
			focused:  true,
			estimate: DefaultEstimatedHeight,
			logger:   slog.Default(),
		},
		rendered: csync.NewMap[string, string](),
	}
	for _, opt := range opts {
		opt(l.confOptions)
	}

	l.doc = termdom.NewDocument(l.width, l.height)
	l.scroller = termdom.NewScroller(l.height)
	l.topSpacer = termdom.NewSpacer(0)
	l.bottomSpacer = termdom.NewSpacer(0)
	l.scroller.AppendChild(l.topSpacer)
	l.scroller.AppendChild(l.bottomSpacer)
	l.doc.Root().AppendChild(l.scroller)

	l.reset(items)
	return l
}

// Init implements List.
func (l *list) Init() tea.Cmd {
	return nil
}

// Update implements List.
func (l *list) Update(msg tea.Msg) (util.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseWheelMsg:
		if l.enableMouse {
			return l.handleMouseWheel(msg)
		}
		return l, nil
	case tea.KeyPressMsg:
		if l.focused {
			switch {
			case key.Matches(msg, l.keyMap.Down):
				return l, l.MoveDown(1)
			case key.Matches(msg, l.keyMap.Up):
				return l, l.MoveUp(1)
			case key.Matches(msg, l.keyMap.HalfPageDown):
				return l, l.MoveDown(l.height / 2)
			case key.Matches(msg, l.keyMap.HalfPageUp):
				return l, l.MoveUp(l.height / 2)
			case key.Matches(msg, l.keyMap.PageDown):
				return l, l.MoveDown(l.height)
			case key.Matches(msg, l.keyMap.PageUp):
				return l, l.MoveUp(l.height)
			case key.Matches(msg, l.keyMap.End):
				return l, l.GoToBottom()
			case key.Matches(msg, l.keyMap.Home):
				return l, l.GoToTop()
			}
		}
	}
	return l, nil
}

func (l *list) handleMouseWheel(msg tea.MouseWheelMsg) (util.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.Button {
	case tea.MouseWheelDown:
		cmd = l.MoveDown(ViewportDefaultScrollSize)
	case tea.MouseWheelUp:
		cmd = l.MoveUp(ViewportDefaultScrollSize)
	}
	return l, cmd
}

// View implements List.
func (l *list) View() string {
	if l.height <= 0 || l.width <= 0 {
		return ""
	}
	return l.doc.View()
}

// SetSize implements List.
func (l *list) SetSize(width, height int) tea.Cmd {
	width, height = max(0, width), max(0, height)
	if width == l.width && height == l.height {
		return nil
	}
	widthChanged := width != l.width
	l.width, l.height = width, height
	l.doc.SetSize(width, height)
	l.scroller.SetExtent(height)

	if widthChanged {
		l.rerender()
	}
	l.resync()
	return nil
}

// rerender drops every cached render and refreshes the mounted items.
func (l *list) rerender() {
	l.rendered.Reset()
	for i, n := range l.nodes {
		n.SetContent(l.render(i))
		l.stale[i] = struct{}{}
	}
}

// GetSize implements List.
func (l *list) GetSize() (int, int) {
	return l.width, l.height
}

// Focus implements List.
func (l *list) Focus() {
	l.focused = true
}

// Blur implements List.
func (l *list) Blur() {
	l.focused = false
}

// MoveDown implements List.
func (l *list) MoveDown(rows int) tea.Cmd {
	l.doc.ScrollBy(l.anchor(), rows)
	l.sync()
	return nil
}

// MoveUp implements List.
func (l *list) MoveUp(rows int) tea.Cmd {
	if rows > 0 {
		l.follow = false
	}
	l.doc.ScrollBy(l.anchor(), -rows)
	l.sync()
	return nil
}

// GoToTop implements List.
func (l *list) GoToTop() tea.Cmd {
	l.follow = false
	l.doc.ScrollTo(l.anchor(), 0)
	l.sync()
	return nil
}

// GoToBottom implements List. The list keeps following the bottom, also
// across appends, until it is scrolled up again.
func (l *list) GoToBottom() tea.Cmd {
	l.follow = true
	l.scrollToBottom()
	l.sync()
	return nil
}

// AtBottom implements List.
func (l *list) AtBottom() bool {
	a := l.anchor()
	return int(l.doc.ScrollOffset(a)) >= l.doc.ScrollHeight(a)-l.scroller.Extent()
}

// SetItems implements List.
func (l *list) SetItems(items []Item) tea.Cmd {
	l.reset(items)
	return nil
}

// AppendItems implements List.
func (l *list) AppendItems(items ...Item) tea.Cmd {
	if len(items) == 0 {
		return nil
	}
	caps := l.ctrl.Capabilities()
	for _, it := range items {
		l.indexMap[it.ID()] = len(l.items)
		l.adapters = append(l.adapters, window.NewItem(len(l.items), caps))
		l.items = append(l.items, it)
	}
	l.ctrl.Index().Resize(len(l.items))
	if l.follow {
		l.scrollToBottom()
	}
	l.sync()
	return nil
}

// UpdateItem implements List.
func (l *list) UpdateItem(item Item) tea.Cmd {
	i, ok := l.indexMap[item.ID()]
	if !ok {
		return nil
	}
	l.items[i] = item
	l.rendered.Del(item.ID())
	if n, ok := l.nodes[i]; ok {
		n.SetContent(l.render(i))
		l.stale[i] = struct{}{}
	}
	l.sync()
	return nil
}

// Items implements List.
func (l *list) Items() []Item {
	return l.items
}

// SetWrap implements List.
func (l *list) SetWrap(wrap bool) {
	if wrap == l.wrap {
		return
	}
	l.wrap = wrap
	l.rerender()
	l.sync()
}

// SetThreshold implements List.
func (l *list) SetThreshold(rows int) {
	l.threshold = max(0, rows)
	l.ctrl.SetThresholdTop(float64(l.threshold))
	l.resync()
}

// SetOverscan implements List.
func (l *list) SetOverscan(items int) {
	l.overscan = max(0, items)
	l.ctrl.Index().SetOverscan(l.overscan)
	l.sync()
}

// Stats implements List.
func (l *list) Stats() Stats {
	idx := l.ctrl.Index()
	a := l.anchor()
	return Stats{
		Top:         idx.VisibleIndexTop(),
		Length:      idx.VisibleLength(),
		Mounted:     len(l.nodes),
		Items:       len(l.items),
		Offset:      int(l.doc.ScrollOffset(a)),
		TotalHeight: rows(idx.TotalHeight()),
	}
}

// Close implements List.
func (l *list) Close() {
	l.ctrl.Close()
}

func (l *list) anchor() measure.Anchor {
	return measure.Anchor{Node: l.scroller}
}

func (l *list) scrollToBottom() {
	a := l.anchor()
	l.doc.ScrollTo(a, l.doc.ScrollHeight(a))
}

// reset replaces the items, the position index and the controller.
func (l *list) reset(items []Item) {
	if l.ctrl != nil {
		l.ctrl.Close()
	}
	for i, n := range l.nodes {
		n.Remove()
		l.adapters[i].Unmount()
		l.metrics.RecordUnmount()
	}
	l.items = slices.Clone(items)
	l.indexMap = make(map[string]int, len(items))
	l.nodes = make(map[int]*termdom.Node)
	l.stale = make(map[int]struct{})
	l.rendered.Reset()
	l.follow = false

	idx := position.New(len(l.items),
		position.WithEstimatedHeight(float64(l.estimate)),
		position.WithViewportExtent(float64(l.height+l.threshold)),
		position.WithOverscan(l.overscan),
	)
	l.ctrl = window.New(l.doc, idx, l.controllerOptions()...)

	caps := l.ctrl.Capabilities()
	l.adapters = make([]*window.Item, len(l.items))
	for i, it := range l.items {
		l.indexMap[it.ID()] = i
		l.adapters[i] = window.NewItem(i, caps)
	}

	l.doc.ScrollTo(l.anchor(), 0)
	l.sync()
}

func (l *list) controllerOptions() []window.Option {
	opts := []window.Option{
		window.WithThresholdTop(float64(l.threshold)),
		window.WithOnChange(l.sync),
		window.WithMetrics(l.metrics),
		window.WithLogger(l.logger),
	}
	if l.observeResize {
		opts = append(opts, window.WithResizeObserver(l.observe))
	}
	return opts
}

func (l *list) observe(n measure.Node, onResize func()) position.Observer {
	dn, ok := n.(*termdom.Node)
	if !ok {
		return nil
	}
	return l.doc.ObserveResize(dn, onResize)
}

// resync re-reads the scroll anchor after a geometry change. Before the
// anchor is known the index extent is set directly.
func (l *list) resync() {
	if _, ok := l.ctrl.Anchor(); ok {
		l.ctrl.HandleScroll()
	} else {
		l.ctrl.Index().SetViewportExtent(float64(l.height + l.threshold))
	}
	l.sync()
}

// sync mounts the items of the current window and unmounts the rest until
// the window stops moving. Calls made while a sync is running are folded
// into another pass.
func (l *list) sync() {
	if l.syncing {
		l.pending = true
		return
	}
	l.syncing = true
	defer func() { l.syncing = false }()

	passes := minSyncPasses + l.height
	for range passes {
		l.pending = false
		l.reconcile()
		if !l.pending {
			break
		}
	}
	if l.pending {
		l.logger.Debug("List window did not settle", "passes", passes)
	}
	idx := l.ctrl.Index()
	l.metrics.RecordWindow(idx.VisibleIndexTop(), idx.VisibleLength())
}

func (l *list) reconcile() {
	idx := l.ctrl.Index()
	top, length := idx.VisibleIndexTop(), idx.VisibleLength()

	for i, n := range l.nodes {
		if l.adapters[i].ShouldRender() {
			continue
		}
		n.Remove()
		delete(l.nodes, i)
		delete(l.stale, i)
		l.adapters[i].Unmount()
		l.metrics.RecordUnmount()
	}

	var mounted []int
	for i := top; i < top+length; i++ {
		if _, ok := l.nodes[i]; ok {
			continue
		}
		l.nodes[i] = termdom.NewNode(l.render(i)).SetStyle(l.itemStyle())
		mounted = append(mounted, i)
		l.metrics.RecordMount()
	}
	l.arrange(top, length)
	l.placeSpacers(top, length)

	for _, i := range mounted {
		l.adapters[i].Mount(l.nodes[i])
	}
	if l.observeResize {
		l.doc.DeliverResizes()
	} else {
		for i := range l.stale {
			l.adapters[i].Rendered()
		}
	}
	clear(l.stale)
	l.placeSpacers(top, length)

	if l.follow {
		l.scrollToBottom()
	}
	// Layout may have clamped the scroll offset without a scroll event.
	if _, ok := l.ctrl.Anchor(); ok {
		raw := l.doc.ScrollOffset(l.anchor())
		if l.ctrl.EffectiveOffset(raw) != idx.ScrollPosition() {
			l.ctrl.HandleScroll()
		}
	}
	if idx.VisibleIndexTop() != top || idx.VisibleLength() != length {
		l.pending = true
	}
}

// arrange orders the scroller's children as top spacer, mounted items,
// bottom spacer.
func (l *list) arrange(top, length int) {
	children := make([]*termdom.Node, 0, length+2)
	children = append(children, l.topSpacer)
	for i := top; i < top+length; i++ {
		children = append(children, l.nodes[i])
	}
	children = append(children, l.bottomSpacer)

	current := l.scroller.Children()
	if slices.Equal(current, children) {
		return
	}
	for _, c := range slices.Clone(current) {
		c.Remove()
	}
	for _, c := range children {
		l.scroller.AppendChild(c)
	}
}

func (l *list) placeSpacers(top, length int) {
	idx := l.ctrl.Index()
	l.topSpacer.SetHeight(rows(idx.Offset(top)))
	l.bottomSpacer.SetHeight(rows(idx.TotalHeight() - idx.Offset(top+length)))
}

func (l *list) itemStyle() lipgloss.Style {
	s := lipgloss.NewStyle()
	if l.gap > 0 {
		s = s.MarginBottom(l.gap)
	}
	return s
}

// render returns the wrapped or truncated content of item i, caching it by
// item ID. Empty items still take one row.
func (l *list) render(i int) string {
	it := l.items[i]
	if s, ok := l.rendered.Get(it.ID()); ok {
		return s
	}
	s := it.Render(l.width)
	if l.wrap && l.width > 0 {
		s = lipgloss.NewStyle().Width(l.width).Render(s)
	} else {
		lines := strings.Split(s, "\n")
		for k, line := range lines {
			lines[k] = ansi.Truncate(line, l.width, "…")
		}
		s = strings.Join(lines, "\n")
	}
	if s == "" {
		s = " "
	}
	l.rendered.Set(it.ID(), s)
	return s
}

func rows(px float64) int {
	return max(0, int(math.Round(px)))
}

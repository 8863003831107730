// Package window implements the windowing controller: it connects a scroll
// container to a position index and hands items the callbacks they need to
// decide whether to mount and to report their measured height.
package window

import (
	"log/slog"

	"github.com/charmbracelet/winlist/internal/measure"
	"github.com/charmbracelet/winlist/internal/metrics"
	"github.com/charmbracelet/winlist/internal/position"
)

// ObserveFunc starts observing node for size changes, calling onResize
// whenever it resizes. The returned observer stops the observation.
type ObserveFunc func(node measure.Node, onResize func()) position.Observer

// Capabilities is the bundle handed to item content.
type Capabilities struct {
	OnItemRender     func(index int, node measure.Node)
	ShouldItemRender func(index int) bool
	ItemDimensions   func(index int) (measure.Dimensions, bool)
}

type confOptions struct {
	thresholdTop float64
	onChange     func()
	observe      ObserveFunc
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// Option configures a Controller.
type Option func(*confOptions)

// WithThresholdTop keeps items within px above the viewport mounted.
// Negative values count as zero.
func WithThresholdTop(px float64) Option {
	return func(o *confOptions) {
		o.thresholdTop = max(0, px)
	}
}

// WithOnChange sets the function called after every scroll-driven window
// recomputation, typically to request a re-render.
func WithOnChange(fn func()) Option {
	return func(o *confOptions) {
		o.onChange = fn
	}
}

// WithResizeObserver enables re-measuring items when they resize.
func WithResizeObserver(fn ObserveFunc) Option {
	return func(o *confOptions) {
		o.observe = fn
	}
}

// WithMetrics records engine activity into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *confOptions) {
		o.metrics = m
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *confOptions) {
		o.logger = l
	}
}

// Controller drives a position index from a scroll container. It is not
// safe for concurrent use; all calls are expected on the host's event loop.
type Controller struct {
	*confOptions

	provider measure.Provider
	index    *position.Index

	anchor   measure.Anchor
	anchored bool

	cleanups []func()
	closed   bool
}

// New creates a controller feeding idx with measurements taken through p.
func New(p measure.Provider, idx *position.Index, opts ...Option) *Controller {
	c := &Controller{
		confOptions: &confOptions{
			logger: slog.Default(),
		},
		provider: p,
		index:    idx,
	}
	for _, opt := range opts {
		opt(c.confOptions)
	}
	return c
}

// Index returns the position index the controller drives.
func (c *Controller) Index() *position.Index {
	return c.index
}

// Anchor returns the scroll anchor and whether it has been discovered.
func (c *Controller) Anchor() (measure.Anchor, bool) {
	return c.anchor, c.anchored
}

// ThresholdTop returns the look-ahead band kept above the viewport.
func (c *Controller) ThresholdTop() float64 {
	return c.thresholdTop
}

// SetThresholdTop changes the look-ahead band and re-syncs the window.
func (c *Controller) SetThresholdTop(px float64) {
	c.thresholdTop = max(0, px)
	if c.anchored {
		c.HandleScroll()
	}
}

// Capabilities returns the per-item capability bundle.
func (c *Controller) Capabilities() Capabilities {
	return Capabilities{
		OnItemRender:     c.OnItemRender,
		ShouldItemRender: c.ShouldItemRender,
		ItemDimensions:   c.ItemDimensions,
	}
}

// ShouldItemRender reports whether index lies in the current window.
func (c *Controller) ShouldItemRender(index int) bool {
	return c.index.Contains(index)
}

// ItemDimensions returns the last stored measurement of index.
func (c *Controller) ItemDimensions(index int) (measure.Dimensions, bool) {
	return c.index.Dimensions(index)
}

// OnItemRender measures node and records its height for index. A nil node
// is ignored and keeps the stored dimensions. The first successful
// measurement discovers the scroll anchor and starts listening to it.
func (c *Controller) OnItemRender(index int, node measure.Node) {
	if c.closed || node == nil {
		return
	}
	if !c.record(index, node) {
		return
	}
	c.watchResize(index, node)

	if !c.anchored {
		c.attach(node.Parent())
	}
}

// record measures node and stores the result. The height only reaches the
// position index when the measurement succeeded.
func (c *Controller) record(index int, node measure.Node) bool {
	d, ok := measure.Measure(c.provider, node)
	c.metrics.RecordMeasurement(ok)
	c.index.SetDimensions(index, d, ok)
	if !ok {
		c.logger.Debug("Item has no client rect", "index", index)
		return false
	}
	c.index.UpdateHeightAtIndex(index, d.Height)
	return true
}

func (c *Controller) attach(parent measure.Node) {
	c.anchor = DiscoverAnchor(c.provider, parent)
	c.anchored = true
	c.logger.Debug("Scroll anchor discovered", "viewport", c.anchor.IsViewport())

	cancel := c.provider.OnScroll(c.anchor, c.HandleScroll)
	c.AddCleanup(cancel)
	c.AddCleanup(c.index.ReleaseObservers)

	c.HandleScroll()
}

func (c *Controller) watchResize(index int, node measure.Node) {
	if c.observe == nil {
		return
	}
	o := c.observe(node, func() {
		if c.closed {
			return
		}
		c.metrics.IncrementCustomMetric("resize_events")
		if c.record(index, node) && c.onChange != nil {
			c.onChange()
		}
	})
	c.index.SetObserver(index, o)
}

// EffectiveOffset converts a raw scroll offset into the offset fed to the
// position index.
func (c *Controller) EffectiveOffset(raw float64) float64 {
	return max(0, raw-c.thresholdTop)
}

// HandleScroll reads the anchor's scroll offset and recomputes the window.
func (c *Controller) HandleScroll() {
	if c.closed || !c.anchored {
		return
	}
	raw := c.provider.ScrollOffset(c.anchor)
	extent := c.provider.ViewportExtent(c.anchor)
	c.index.SetViewportExtent(extent + c.thresholdTop)
	c.index.UpdateScrollPosition(c.EffectiveOffset(raw))
	c.metrics.RecordScroll(c.index.VisibleIndexTop(), c.index.VisibleLength())
	if c.onChange != nil {
		c.onChange()
	}
}

// AddCleanup registers fn to run when the controller closes. Cleanups run
// in registration order.
func (c *Controller) AddCleanup(fn func()) {
	if fn == nil {
		return
	}
	if c.closed {
		fn()
		return
	}
	c.cleanups = append(c.cleanups, fn)
}

// Close detaches the scroll listener and runs every registered cleanup
// exactly once. The controller is inert afterwards.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	cleanups := c.cleanups
	c.cleanups = nil
	for _, fn := range cleanups {
		fn()
	}
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	return c.closed
}

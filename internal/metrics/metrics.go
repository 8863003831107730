package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/winlist/internal/csync"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects counters about the windowing engine.
type Metrics struct {
	// Scroll metrics
	ScrollEvents     atomic.Int64
	WindowRecomputes atomic.Int64

	// Measurement metrics
	Measurements        atomic.Int64
	MeasurementFailures atomic.Int64
	HeightUpdates       atomic.Int64

	// Item lifecycle metrics
	Mounts   atomic.Int64
	Unmounts atomic.Int64

	// Last observed window
	VisibleTop    atomic.Int64
	VisibleLength atomic.Int64

	// Custom metrics
	customMetrics *csync.Map[string, *atomic.Int64]

	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		customMetrics: csync.NewMap[string, *atomic.Int64](),
		startTime:     time.Now(),
	}
}

// RecordScroll records a scroll event and the window it produced.
func (m *Metrics) RecordScroll(top, length int) {
	if m == nil {
		return
	}
	m.ScrollEvents.Add(1)
	m.RecordWindow(top, length)
}

// RecordWindow records a recomputed window.
func (m *Metrics) RecordWindow(top, length int) {
	if m == nil {
		return
	}
	m.WindowRecomputes.Add(1)
	m.VisibleTop.Store(int64(top))
	m.VisibleLength.Store(int64(length))
}

// RecordMeasurement records an item measurement.
func (m *Metrics) RecordMeasurement(success bool) {
	if m == nil {
		return
	}
	m.Measurements.Add(1)
	if success {
		m.HeightUpdates.Add(1)
	} else {
		m.MeasurementFailures.Add(1)
	}
}

// RecordMount records an item being mounted.
func (m *Metrics) RecordMount() {
	if m == nil {
		return
	}
	m.Mounts.Add(1)
}

// RecordUnmount records an item being unmounted.
func (m *Metrics) RecordUnmount() {
	if m == nil {
		return
	}
	m.Unmounts.Add(1)
}

// IncrementCustomMetric increments a custom metric
func (m *Metrics) IncrementCustomMetric(name string) {
	if m == nil {
		return
	}
	m.customMetrics.GetOrSet(name, func() *atomic.Int64 {
		return &atomic.Int64{}
	}).Add(1)
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() map[string]any {
	uptime := time.Since(m.startTime)

	snapshot := map[string]any{
		"uptime_seconds":       uptime.Seconds(),
		"scroll_events":        m.ScrollEvents.Load(),
		"window_recomputes":    m.WindowRecomputes.Load(),
		"measurements":         m.Measurements.Load(),
		"measurement_failures": m.MeasurementFailures.Load(),
		"height_updates":       m.HeightUpdates.Load(),
		"mounts":               m.Mounts.Load(),
		"unmounts":             m.Unmounts.Load(),
		"visible_top":          m.VisibleTop.Load(),
		"visible_length":       m.VisibleLength.Load(),
	}

	if total := m.Measurements.Load(); total > 0 {
		snapshot["measurement_failure_rate"] = float64(m.MeasurementFailures.Load()) / float64(total)
	}

	for key, counter := range m.customMetrics.Seq2() {
		snapshot[key] = counter.Load()
	}

	return snapshot
}

// PrometheusCollector exports Metrics through a Prometheus registry.
type PrometheusCollector struct {
	namespace string
	subsystem string
	registry  *prometheus.Registry
}

// NewPrometheusCollector creates a new Prometheus collector
func NewPrometheusCollector(namespace, subsystem string) *PrometheusCollector {
	return &PrometheusCollector{
		namespace: namespace,
		subsystem: subsystem,
		registry:  prometheus.NewRegistry(),
	}
}

// Registry returns the registry the collector registers into.
func (p *PrometheusCollector) Registry() *prometheus.Registry {
	return p.registry
}

// Collect registers functions reading the metrics' counters, so it must be
// called once per Metrics. Custom metrics are exported as one counter
// labelled by name.
func (p *PrometheusCollector) Collect(ctx context.Context, m *Metrics) error {
	counters := []struct {
		name, help string
		v          *atomic.Int64
	}{
		{"scroll_events_total", "Scroll events handled.", &m.ScrollEvents},
		{"window_recomputes_total", "Visible window recomputations.", &m.WindowRecomputes},
		{"measurements_total", "Item measurements attempted.", &m.Measurements},
		{"measurement_failures_total", "Item measurements without a client rect.", &m.MeasurementFailures},
		{"height_updates_total", "Heights pushed into the position index.", &m.HeightUpdates},
		{"mounts_total", "Items mounted.", &m.Mounts},
		{"unmounts_total", "Items unmounted.", &m.Unmounts},
	}
	var errs []error
	for _, c := range counters {
		v := c.v
		errs = append(errs, p.registry.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: p.subsystem,
			Name:      c.name,
			Help:      c.help,
		}, func() float64 { return float64(v.Load()) })))
	}
	gauges := []struct {
		name, help string
		v          *atomic.Int64
	}{
		{"visible_top", "First index of the visible window.", &m.VisibleTop},
		{"visible_length", "Number of items in the visible window.", &m.VisibleLength},
	}
	for _, g := range gauges {
		v := g.v
		errs = append(errs, p.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: p.subsystem,
			Name:      g.name,
			Help:      g.help,
		}, func() float64 { return float64(v.Load()) })))
	}
	errs = append(errs, p.registry.Register(&customCollector{
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(p.namespace, p.subsystem, "custom_events_total"),
			"Custom events by name.",
			[]string{"name"}, nil,
		),
		metrics: m,
	}))
	return errors.Join(errs...)
}

// customCollector reads the custom metrics on every scrape, since their
// names are only known once they are first incremented.
type customCollector struct {
	desc    *prometheus.Desc
	metrics *Metrics
}

func (c *customCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *customCollector) Collect(ch chan<- prometheus.Metric) {
	for name, counter := range c.metrics.customMetrics.Seq2() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.CounterValue, float64(counter.Load()), name)
	}
}

// Serve exposes the registry on addr until ctx is done.
func (p *PrometheusCollector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	slog.Info("Serving metrics", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

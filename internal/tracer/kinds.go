package tracer

import (
	"time"

	"github.com/tinytelemetry/pulse/internal/metric"
)

// Counter records signed deltas into a running sum.
type Counter struct {
	Tracer[metric.CounterState, metric.CounterEvent]
}

// NewCounter creates a counter stream. A pullInterval > 0 selects pull
// mode.
func NewCounter(link Link, path metric.Path, pullInterval time.Duration) Counter {
	return Counter{New(link, metric.CounterMetric{}, metric.NewCounterState(), path, pullInterval)}
}

// Inc adds delta to the counter. A zero at means "now".
func (c *Counter) Inc(delta float64, at time.Time) {
	c.Record(metric.CounterEvent{Delta: delta}, at)
}

// Gauge records an instantaneous value.
type Gauge struct {
	Tracer[metric.GaugeState, metric.GaugeEvent]
}

// NewGauge creates a gauge stream. A pullInterval > 0 selects pull mode.
func NewGauge(link Link, path metric.Path, pullInterval time.Duration) Gauge {
	return Gauge{New(link, metric.GaugeMetric{}, metric.NewGaugeState(), path, pullInterval)}
}

// Set replaces the gauge value.
func (g *Gauge) Set(value float64, at time.Time) {
	g.Record(metric.GaugeEvent{Op: metric.GaugeSet, Value: value}, at)
}

// Inc raises the gauge value by delta.
func (g *Gauge) Inc(delta float64, at time.Time) {
	g.Record(metric.GaugeEvent{Op: metric.GaugeInc, Value: delta}, at)
}

// Dec lowers the gauge value by delta.
func (g *Gauge) Dec(delta float64, at time.Time) {
	g.Record(metric.GaugeEvent{Op: metric.GaugeDec, Value: delta}, at)
}

// Histogram records observations into ordered buckets.
type Histogram struct {
	Tracer[metric.HistogramState, metric.HistogramEvent]
}

// NewHistogram creates a histogram stream with the given bucket levels; an
// overflow bucket is always present. A pullInterval > 0 selects pull mode.
func NewHistogram(link Link, path metric.Path, levels []float64, pullInterval time.Duration) Histogram {
	return Histogram{New(link, metric.HistogramMetric{}, metric.NewHistogramState(levels...), path, pullInterval)}
}

// Observe records one value.
func (h *Histogram) Observe(value float64, at time.Time) {
	h.Record(metric.HistogramEvent{Value: value}, at)
}

// Log records text messages into a bounded frame of the most recent ones.
type Log struct {
	Tracer[metric.LogState, metric.LogEvent]
}

// NewLog creates a log stream keeping at most frame messages
// (metric.DefaultLogFrame when frame <= 0). A pullInterval > 0 selects
// pull mode.
func NewLog(link Link, path metric.Path, frame int, pullInterval time.Duration) Log {
	return Log{New(link, metric.LogMetric{}, metric.NewLogState(frame), path, pullInterval)}
}

// Log appends one message. A zero at means "now".
func (l *Log) Log(message string, at time.Time) {
	l.Record(metric.LogEvent{Message: message}, at)
}

package otlp

import (
	"testing"
	"time"

	"github.com/tinytelemetry/pulse/internal/engine"
	"github.com/tinytelemetry/pulse/internal/metric"
	metricpb "go.opentelemetry.io/proto/otlp/metrics/v1"
)

func counterSnapshot(total float64) engine.Snapshot {
	return engine.Snapshot{
		Path:       "app.requests",
		Info:       "app.requests - pulse.counter.v0",
		StreamType: metric.CounterStreamType,
		CapturedAt: time.Now(),
		State:      metric.CounterState{Total: total},
	}
}

func TestSnapshotToMetric_Counter(t *testing.T) {
	t.Parallel()

	m, ok := snapshotToMetric(counterSnapshot(2), 1)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if m.Name != "app.requests" {
		t.Errorf("Name = %q, want app.requests", m.Name)
	}

	sum := m.GetSum()
	if sum == nil {
		t.Fatal("GetSum() = nil, want sum data")
	}
	if sum.IsMonotonic {
		t.Error("IsMonotonic = true, want false (deltas may be negative)")
	}
	if sum.AggregationTemporality != metricpb.AggregationTemporality_AGGREGATION_TEMPORALITY_CUMULATIVE {
		t.Errorf("temporality = %v, want cumulative", sum.AggregationTemporality)
	}
	if len(sum.DataPoints) != 1 {
		t.Fatalf("data points = %d, want 1", len(sum.DataPoints))
	}
	if got := sum.DataPoints[0].GetAsDouble(); got != 2 {
		t.Errorf("value = %v, want 2", got)
	}
}

func TestSnapshotToMetric_Gauge(t *testing.T) {
	t.Parallel()

	snap := engine.Snapshot{
		Path:       "app.queue.depth",
		StreamType: metric.GaugeStreamType,
		CapturedAt: time.Now(),
		State:      metric.GaugeState{Value: 7, Min: 1, Max: 9, Count: 4},
	}
	m, ok := snapshotToMetric(snap, 1)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	gauge := m.GetGauge()
	if gauge == nil {
		t.Fatal("GetGauge() = nil, want gauge data")
	}
	if got := gauge.DataPoints[0].GetAsDouble(); got != 7 {
		t.Errorf("value = %v, want 7", got)
	}
}

func TestSnapshotToMetric_Histogram(t *testing.T) {
	t.Parallel()

	def := metric.HistogramMetric{}
	state := metric.NewHistogramState(1.0, 5.0)
	for i, v := range []float64{0.5, 3.0, 100.0} {
		def.Apply(&state, metric.TimedEvent[metric.HistogramEvent]{
			Timestamp: metric.Timestamp(i + 1),
			Event:     metric.HistogramEvent{Value: v},
		})
	}
	snap := engine.Snapshot{
		Path:       "app.latency",
		StreamType: metric.HistogramStreamType,
		CapturedAt: time.Now(),
		State:      state,
	}

	m, ok := snapshotToMetric(snap, 1)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	hist := m.GetHistogram()
	if hist == nil {
		t.Fatal("GetHistogram() = nil, want histogram data")
	}
	dp := hist.DataPoints[0]

	// Finite levels become explicit bounds; the +Inf bucket is the
	// trailing count.
	if len(dp.ExplicitBounds) != 2 || dp.ExplicitBounds[0] != 1.0 || dp.ExplicitBounds[1] != 5.0 {
		t.Errorf("bounds = %v, want [1 5]", dp.ExplicitBounds)
	}
	if len(dp.BucketCounts) != 3 {
		t.Fatalf("bucket counts = %v, want 3 entries", dp.BucketCounts)
	}
	for i, want := range []uint64{1, 1, 1} {
		if dp.BucketCounts[i] != want {
			t.Errorf("bucket count %d = %d, want %d", i, dp.BucketCounts[i], want)
		}
	}
	if dp.Count != 3 {
		t.Errorf("Count = %d, want 3", dp.Count)
	}
	if dp.Sum == nil || *dp.Sum != 103.5 {
		t.Errorf("Sum = %v, want 103.5", dp.Sum)
	}
}

func TestSnapshotToMetric_LogIsNotAMetric(t *testing.T) {
	t.Parallel()

	snap := engine.Snapshot{
		Path:       "app.events",
		StreamType: metric.LogStreamType,
		CapturedAt: time.Now(),
		State:      metric.NewLogState(5),
	}
	if _, ok := snapshotToMetric(snap, 1); ok {
		t.Error("ok = true for log snapshot, want false")
	}
}

func TestSnapshotToLogRecords_Watermark(t *testing.T) {
	t.Parallel()

	def := metric.LogMetric{}
	state := metric.NewLogState(10)
	for i := 1; i <= 4; i++ {
		def.Apply(&state, metric.TimedEvent[metric.LogEvent]{
			Timestamp: metric.Timestamp(i * 1000),
			Event:     metric.LogEvent{Message: "msg"},
		})
	}
	snap := engine.Snapshot{
		Path:       "app.events",
		StreamType: metric.LogStreamType,
		CapturedAt: time.Now(),
		State:      state,
	}

	all := snapshotToLogRecords(snap, 0)
	if len(all) != 4 {
		t.Fatalf("records = %d, want 4", len(all))
	}
	if all[0].Body.GetStringValue() != "msg" {
		t.Errorf("body = %q, want msg", all[0].Body.GetStringValue())
	}

	newer := snapshotToLogRecords(snap, 2000)
	if len(newer) != 2 {
		t.Errorf("records after watermark = %d, want 2", len(newer))
	}
}

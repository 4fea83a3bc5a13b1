package metric

import (
	"testing"
	"time"
)

func TestParsePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		wantErr bool
	}{
		{"app", false},
		{"app.request.latency", false},
		{"", true},
		{".app", true},
		{"app..latency", true},
		{"app.", true},
	}

	for _, tt := range tests {
		p, err := ParsePath(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePath(%q) error = nil, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePath(%q) error = %v, want nil", tt.in, err)
			continue
		}
		if p.String() != tt.in {
			t.Errorf("ParsePath(%q).String() = %q, want %q", tt.in, p.String(), tt.in)
		}
	}
}

func TestPathSegments(t *testing.T) {
	t.Parallel()

	p, err := ParsePath("app.request.latency")
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	segs := p.Segments()
	want := []string{"app", "request", "latency"}
	if len(segs) != len(want) {
		t.Fatalf("Segments() len = %d, want %d", len(segs), len(want))
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Errorf("Segments()[%d] = %q, want %q", i, segs[i], want[i])
		}
	}
}

func TestTimestampFromTime(t *testing.T) {
	t.Parallel()

	now := time.Now()
	ts, err := TimestampFromTime(now)
	if err != nil {
		t.Fatalf("TimestampFromTime(now): %v", err)
	}
	if got := ts.Time().UnixMilli(); got != now.UnixMilli() {
		t.Errorf("round trip = %d, want %d", got, now.UnixMilli())
	}

	if _, err := TimestampFromTime(time.Time{}); err == nil {
		t.Error("TimestampFromTime(zero) error = nil, want error")
	}
	preEpoch := time.Unix(-10, 0)
	if _, err := TimestampFromTime(preEpoch); err == nil {
		t.Error("TimestampFromTime(pre-epoch) error = nil, want error")
	}
}

func TestPctFromDiv(t *testing.T) {
	t.Parallel()

	if got := PctFromDiv(1, 4); got != 0.25 {
		t.Errorf("PctFromDiv(1, 4) = %v, want 0.25", got)
	}
	if got := PctFromDiv(3, 0); got != 0 {
		t.Errorf("PctFromDiv(3, 0) = %v, want 0", got)
	}
}

// Replay determinism: folding events one at a time must match folding the
// same ordered sequence as a drained batch.
func TestApplyReplayDeterminism(t *testing.T) {
	t.Parallel()

	def := HistogramMetric{}
	events := []TimedEvent[HistogramEvent]{
		{Timestamp: 1, Event: HistogramEvent{Value: 0.3}},
		{Timestamp: 2, Event: HistogramEvent{Value: 4.2}},
		{Timestamp: 3, Event: HistogramEvent{Value: 1.0}},
		{Timestamp: 4, Event: HistogramEvent{Value: 250}},
		{Timestamp: 5, Event: HistogramEvent{Value: 0.9}},
	}

	incremental := NewHistogramState(1.0, 5.0)
	for _, ev := range events {
		def.Apply(&incremental, ev)
	}

	batch := NewHistogramState(1.0, 5.0)
	drained := append([]TimedEvent[HistogramEvent](nil), events...)
	for _, ev := range drained {
		def.Apply(&batch, ev)
	}

	if incremental.Total != batch.Total {
		t.Errorf("total mismatch: incremental %+v, batch %+v", incremental.Total, batch.Total)
	}
	for i := range incremental.Buckets {
		if incremental.Buckets[i] != batch.Buckets[i] {
			t.Errorf("bucket %d mismatch: incremental %+v, batch %+v",
				i, incremental.Buckets[i], batch.Buckets[i])
		}
	}
}

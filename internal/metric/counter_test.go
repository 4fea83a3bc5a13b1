package metric

import "testing"

func TestCounterApply(t *testing.T) {
	t.Parallel()

	def := CounterMetric{}
	state := NewCounterState()

	deltas := []float64{1, 3, -2}
	for i, d := range deltas {
		def.Apply(&state, TimedEvent[CounterEvent]{
			Timestamp: Timestamp(i + 1),
			Event:     CounterEvent{Delta: d},
		})
	}

	if state.Total != 2 {
		t.Errorf("Total = %v, want 2", state.Total)
	}
}

func TestCounterCloneStateIsIndependent(t *testing.T) {
	t.Parallel()

	def := CounterMetric{}
	state := NewCounterState()
	def.Apply(&state, TimedEvent[CounterEvent]{Timestamp: 1, Event: CounterEvent{Delta: 5}})

	clone := def.CloneState(&state)
	def.Apply(&state, TimedEvent[CounterEvent]{Timestamp: 2, Event: CounterEvent{Delta: 7}})

	if clone.Total != 5 {
		t.Errorf("clone Total = %v, want 5", clone.Total)
	}
	if state.Total != 12 {
		t.Errorf("state Total = %v, want 12", state.Total)
	}
}

func TestGaugeApply(t *testing.T) {
	t.Parallel()

	def := GaugeMetric{}
	state := NewGaugeState()

	events := []GaugeEvent{
		{Op: GaugeSet, Value: 10},
		{Op: GaugeInc, Value: 5},
		{Op: GaugeDec, Value: 12},
	}
	for i, ev := range events {
		def.Apply(&state, TimedEvent[GaugeEvent]{Timestamp: Timestamp(i + 1), Event: ev})
	}

	if state.Value != 3 {
		t.Errorf("Value = %v, want 3", state.Value)
	}
	if state.Min != 3 {
		t.Errorf("Min = %v, want 3", state.Min)
	}
	if state.Max != 15 {
		t.Errorf("Max = %v, want 15", state.Max)
	}
	if state.Count != 3 {
		t.Errorf("Count = %d, want 3", state.Count)
	}
}

func TestGaugeApply_UnknownOpIsNoOp(t *testing.T) {
	t.Parallel()

	def := GaugeMetric{}
	state := NewGaugeState()
	def.Apply(&state, TimedEvent[GaugeEvent]{Timestamp: 1, Event: GaugeEvent{Op: "bogus", Value: 99}})

	if state.Count != 0 || state.Value != 0 {
		t.Errorf("state = %+v, want untouched zero state", state)
	}
}

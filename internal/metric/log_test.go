package metric

import (
	"fmt"
	"testing"
)

func TestLogApply_KeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	def := LogMetric{}
	state := NewLogState(5)

	for i := 0; i < 3; i++ {
		def.Apply(&state, TimedEvent[LogEvent]{
			Timestamp: Timestamp(i + 1),
			Event:     LogEvent{Message: fmt.Sprintf("msg-%d", i)},
		})
	}

	if len(state.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(state.Records))
	}
	for i, rec := range state.Records {
		want := fmt.Sprintf("msg-%d", i)
		if rec.Message != want {
			t.Errorf("record %d = %q, want %q", i, rec.Message, want)
		}
	}
}

func TestLogApply_EvictsOldestWhenFull(t *testing.T) {
	t.Parallel()

	def := LogMetric{}
	state := NewLogState(20)

	for i := 0; i < 25; i++ {
		def.Apply(&state, TimedEvent[LogEvent]{
			Timestamp: Timestamp(i + 1),
			Event:     LogEvent{Message: fmt.Sprintf("msg-%d", i)},
		})
	}

	if len(state.Records) != 20 {
		t.Fatalf("records = %d, want 20", len(state.Records))
	}
	// The 20 most recent, oldest first.
	for i, rec := range state.Records {
		want := fmt.Sprintf("msg-%d", i+5)
		if rec.Message != want {
			t.Errorf("record %d = %q, want %q", i, rec.Message, want)
		}
	}
}

func TestNewLogState_DefaultFrame(t *testing.T) {
	t.Parallel()

	state := NewLogState(0)
	if state.Frame != DefaultLogFrame {
		t.Errorf("Frame = %d, want %d", state.Frame, DefaultLogFrame)
	}
}

func TestLogCloneStateIsIndependent(t *testing.T) {
	t.Parallel()

	def := LogMetric{}
	state := NewLogState(5)
	def.Apply(&state, TimedEvent[LogEvent]{Timestamp: 1, Event: LogEvent{Message: "first"}})

	clone := def.CloneState(&state)
	def.Apply(&state, TimedEvent[LogEvent]{Timestamp: 2, Event: LogEvent{Message: "second"}})

	if len(clone.Records) != 1 {
		t.Errorf("clone records = %d, want 1", len(clone.Records))
	}
	if len(state.Records) != 2 {
		t.Errorf("state records = %d, want 2", len(state.Records))
	}
}

package control

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/tinytelemetry/pulse/internal/engine"
	"github.com/tinytelemetry/pulse/internal/metric"
)

type fakeCollector struct {
	streams  []engine.StreamInfo
	snaps    map[metric.Path]engine.Snapshot
	switched map[metric.Path]bool
}

func newFakeCollector() *fakeCollector {
	counterState := metric.CounterState{Total: 2}
	return &fakeCollector{
		streams: []engine.StreamInfo{
			{Path: "app.requests", StreamType: metric.CounterStreamType, Mode: "push", Active: true},
		},
		snaps: map[metric.Path]engine.Snapshot{
			"app.requests": {
				Path:       "app.requests",
				StreamType: metric.CounterStreamType,
				CapturedAt: time.Now(),
				State:      counterState,
			},
		},
		switched: make(map[metric.Path]bool),
	}
}

func (f *fakeCollector) Streams() []engine.StreamInfo { return f.streams }

func (f *fakeCollector) Snapshot(path metric.Path) (engine.Snapshot, bool) {
	snap, ok := f.snaps[path]
	return snap, ok
}

func (f *fakeCollector) Snapshots() []engine.Snapshot {
	snaps := make([]engine.Snapshot, 0, len(f.snaps))
	for _, snap := range f.snaps {
		snaps = append(snaps, snap)
	}
	return snaps
}

func (f *fakeCollector) SwitchStream(path metric.Path, on bool) error {
	if _, ok := f.snaps[path]; !ok {
		return fmt.Errorf("unknown stream %q", path)
	}
	f.switched[path] = on
	return nil
}

func makeRequest(t *testing.T, method string, params any) Request {
	t.Helper()
	data, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return Request{JSONRPC: "2.0", ID: 1, Method: method, Params: data}
}

func TestDispatch_ListStreams(t *testing.T) {
	t.Parallel()

	s := NewServer("", newFakeCollector(), "test")
	resp := s.dispatch(makeRequest(t, "ListStreams", nil))
	if resp.Error != nil {
		t.Fatalf("error = %v, want nil", resp.Error)
	}

	var infos []engine.StreamInfo
	if err := json.Unmarshal(resp.Result, &infos); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(infos) != 1 || infos[0].Path != "app.requests" {
		t.Errorf("infos = %+v, want one app.requests entry", infos)
	}
}

func TestDispatch_GetSnapshot(t *testing.T) {
	t.Parallel()

	s := NewServer("", newFakeCollector(), "test")
	resp := s.dispatch(makeRequest(t, "GetSnapshot", map[string]any{"Path": "app.requests"}))
	if resp.Error != nil {
		t.Fatalf("error = %v, want nil", resp.Error)
	}

	var snap StreamSnapshot
	if err := json.Unmarshal(resp.Result, &snap); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	state, err := snap.DecodeState()
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if got := state.(metric.CounterState).Total; got != 2 {
		t.Errorf("Total = %v, want 2", got)
	}
}

func TestDispatch_GetSnapshot_UnknownStream(t *testing.T) {
	t.Parallel()

	s := NewServer("", newFakeCollector(), "test")
	resp := s.dispatch(makeRequest(t, "GetSnapshot", map[string]any{"Path": "no.such"}))
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("error = %v, want code -32000", resp.Error)
	}
}

func TestDispatch_SwitchStream(t *testing.T) {
	t.Parallel()

	collector := newFakeCollector()
	s := NewServer("", collector, "test")

	resp := s.dispatch(makeRequest(t, "SwitchStream", map[string]any{"Path": "app.requests", "On": false}))
	if resp.Error != nil {
		t.Fatalf("error = %v, want nil", resp.Error)
	}
	if on, ok := collector.switched["app.requests"]; !ok || on {
		t.Errorf("switched = %v/%v, want recorded off", on, ok)
	}
}

func TestDispatch_MethodNotFound(t *testing.T) {
	t.Parallel()

	s := NewServer("", newFakeCollector(), "test")
	resp := s.dispatch(makeRequest(t, "NoSuchMethod", nil))
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Errorf("error = %v, want code -32601", resp.Error)
	}
}

func TestDispatch_InvalidParams(t *testing.T) {
	t.Parallel()

	s := NewServer("", newFakeCollector(), "test")
	req := Request{JSONRPC: "2.0", ID: 1, Method: "GetSnapshot", Params: json.RawMessage(`"not an object"`)}
	resp := s.dispatch(req)
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("error = %v, want code -32602", resp.Error)
	}
}

func TestDecodeState_Histogram(t *testing.T) {
	t.Parallel()

	def := metric.HistogramMetric{}
	state := metric.NewHistogramState(1.0, 5.0)
	def.Apply(&state, metric.TimedEvent[metric.HistogramEvent]{Timestamp: 1, Event: metric.HistogramEvent{Value: 3}})

	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	snap := StreamSnapshot{StreamType: metric.HistogramStreamType, State: data}

	decoded, err := snap.DecodeState()
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	hist := decoded.(metric.HistogramState)
	if hist.Total.Count != 1 || hist.Total.Sum != 3 {
		t.Errorf("total = %+v, want count 1 sum 3", hist.Total)
	}
}

func TestDecodeState_UnknownType(t *testing.T) {
	t.Parallel()

	snap := StreamSnapshot{StreamType: "bogus.v9", State: json.RawMessage(`{}`)}
	if _, err := snap.DecodeState(); err == nil {
		t.Error("DecodeState error = nil, want error")
	}
}

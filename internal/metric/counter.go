package metric

// CounterStreamType identifies the counter wire shape.
const CounterStreamType StreamType = "pulse.counter.v0"

// CounterMetric is a running sum of signed deltas.
type CounterMetric struct{}

// CounterState is the counter's aggregate: a single accumulator.
type CounterState struct {
	Total float64 `json:"total"`
}

// CounterEvent is one signed delta.
type CounterEvent struct {
	Delta float64 `json:"delta"`
}

// NewCounterState returns the counter's initial state.
func NewCounterState() CounterState { return CounterState{} }

func (CounterMetric) StreamType() StreamType { return CounterStreamType }

func (CounterMetric) Apply(state *CounterState, event TimedEvent[CounterEvent]) {
	state.Total += event.Event.Delta
}

func (CounterMetric) CloneState(state *CounterState) CounterState { return *state }

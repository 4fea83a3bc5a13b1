package metric

// GaugeStreamType identifies the gauge wire shape.
const GaugeStreamType StreamType = "pulse.gauge.v0"

// GaugeMetric tracks an instantaneous value plus the min/max envelope
// observed within the aggregation window.
type GaugeMetric struct{}

// GaugeState holds the current value and its observed envelope. Min and
// Max are meaningful only once Count > 0.
type GaugeState struct {
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count uint64  `json:"count"`
}

// GaugeOp selects how a gauge event changes the value.
type GaugeOp string

const (
	GaugeSet GaugeOp = "set"
	GaugeInc GaugeOp = "inc"
	GaugeDec GaugeOp = "dec"
)

// GaugeEvent applies one operation to the gauge value.
type GaugeEvent struct {
	Op    GaugeOp `json:"op"`
	Value float64 `json:"value"`
}

// NewGaugeState returns the gauge's initial state.
func NewGaugeState() GaugeState { return GaugeState{} }

func (GaugeMetric) StreamType() StreamType { return GaugeStreamType }

func (GaugeMetric) Apply(state *GaugeState, event TimedEvent[GaugeEvent]) {
	switch event.Event.Op {
	case GaugeSet:
		state.Value = event.Event.Value
	case GaugeInc:
		state.Value += event.Event.Value
	case GaugeDec:
		state.Value -= event.Event.Value
	default:
		// Unknown ops fold to a no-op rather than a panic.
		return
	}
	if state.Count == 0 || state.Value < state.Min {
		state.Min = state.Value
	}
	if state.Count == 0 || state.Value > state.Max {
		state.Max = state.Value
	}
	state.Count++
}

func (GaugeMetric) CloneState(state *GaugeState) GaugeState { return *state }

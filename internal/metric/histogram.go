package metric

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// HistogramStreamType identifies the histogram wire shape.
const HistogramStreamType StreamType = "pulse.histogram.v0"

// HistogramMetric buckets observations by ascending level with an implicit
// +Inf overflow bucket.
type HistogramMetric struct{}

// Bucket is one histogram level and its accumulated stat. A value lands in
// the first bucket (ascending by level) whose level is >= the value.
type Bucket struct {
	Level float64
	Stat  Stat
}

// HistogramState holds ordered buckets plus an unconditional total.
// Invariant: Buckets is sorted ascending by level and the last bucket's
// level is +Inf, so every finite value matches exactly one bucket.
type HistogramState struct {
	Buckets []Bucket `json:"buckets"`
	Total   Stat     `json:"total"`
}

// HistogramEvent is one observed value.
type HistogramEvent struct {
	Value float64 `json:"value"`
}

// NewHistogramState builds the initial state for the given bucket levels.
// Levels are sorted and deduplicated; a +Inf overflow bucket is appended
// when absent.
func NewHistogramState(levels ...float64) HistogramState {
	sorted := append([]float64(nil), levels...)
	sort.Float64s(sorted)

	buckets := make([]Bucket, 0, len(sorted)+1)
	for _, level := range sorted {
		if n := len(buckets); n > 0 && buckets[n-1].Level == level {
			continue
		}
		buckets = append(buckets, Bucket{Level: level})
	}
	if n := len(buckets); n == 0 || !math.IsInf(buckets[n-1].Level, 1) {
		buckets = append(buckets, Bucket{Level: math.Inf(1)})
	}
	return HistogramState{Buckets: buckets}
}

func (HistogramMetric) StreamType() StreamType { return HistogramStreamType }

func (HistogramMetric) Apply(state *HistogramState, event TimedEvent[HistogramEvent]) {
	value := event.Event.Value
	state.Total.Add(value)
	for i := range state.Buckets {
		if value <= state.Buckets[i].Level {
			state.Buckets[i].Stat.Add(value)
			break
		}
	}
}

func (HistogramMetric) CloneState(state *HistogramState) HistogramState {
	clone := *state
	clone.Buckets = append([]Bucket(nil), state.Buckets...)
	return clone
}

// Bar is one rendered histogram bucket: its level, observation count, and
// share of the total sum.
type Bar struct {
	Level float64 `json:"level"`
	Count uint64  `json:"count"`
	Pct   Pct     `json:"pct"`
}

// Bars renders each bucket's share of the total sum, in ascending level
// order. Every share is 0 when the total sum is 0.
func (s *HistogramState) Bars() []Bar {
	bars := make([]Bar, len(s.Buckets))
	for i, b := range s.Buckets {
		bars[i] = Bar{
			Level: b.Level,
			Count: b.Stat.Count,
			Pct:   PctFromDiv(b.Stat.Sum, s.Total.Sum),
		}
	}
	return bars
}

// bucketJSON carries a bucket on the wire. The +Inf level is not
// representable in JSON numbers and is encoded as the string "+Inf".
type bucketJSON struct {
	Level json.RawMessage `json:"level"`
	Sum   float64         `json:"sum"`
	Count uint64          `json:"count"`
}

const infLevelToken = `"+Inf"`

func (b Bucket) MarshalJSON() ([]byte, error) {
	out := bucketJSON{Sum: b.Stat.Sum, Count: b.Stat.Count}
	if math.IsInf(b.Level, 1) {
		out.Level = json.RawMessage(infLevelToken)
	} else {
		level, err := json.Marshal(b.Level)
		if err != nil {
			return nil, err
		}
		out.Level = level
	}
	return json.Marshal(out)
}

func (b *Bucket) UnmarshalJSON(data []byte) error {
	var in bucketJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if string(in.Level) == infLevelToken {
		b.Level = math.Inf(1)
	} else if err := json.Unmarshal(in.Level, &b.Level); err != nil {
		return fmt.Errorf("metric: bucket level: %w", err)
	}
	b.Stat = Stat{Sum: in.Sum, Count: in.Count}
	return nil
}

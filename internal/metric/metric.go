// Package metric defines the per-kind metric contract: an aggregate state
// shape, an event shape, and a deterministic fold that turns a stream of
// timed events into state. Definitions are pure — no I/O, no locking — so
// the same fold serves both in-place aggregation and replay from a drained
// event batch.
package metric

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StreamType is an opaque versioned identifier for a metric stream's wire
// shape. Exporters use it to pick a decoding/rendering strategy. It must
// change whenever the state or event shape changes incompatibly.
type StreamType string

// Path identifies one logical metric stream as a dot-separated hierarchy,
// for example "app.request.latency".
type Path string

// ParsePath validates a dot-separated stream path. Every segment must be
// non-empty.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return "", errors.New("metric: empty path")
	}
	for _, seg := range strings.Split(s, ".") {
		if seg == "" {
			return "", fmt.Errorf("metric: path %q has an empty segment", s)
		}
	}
	return Path(s), nil
}

func (p Path) String() string { return string(p) }

// Segments returns the path split into its hierarchy levels.
func (p Path) Segments() []string { return strings.Split(string(p), ".") }

// Timestamp is a wall-clock sample in milliseconds since the Unix epoch.
type Timestamp int64

// TimestampFromTime converts a clock reading to a Timestamp. Zero or
// pre-epoch times cannot be expressed relative to the epoch and are
// rejected; the recording path drops such events.
func TimestampFromTime(t time.Time) (Timestamp, error) {
	if t.IsZero() {
		return 0, errors.New("metric: zero time")
	}
	ms := t.UnixMilli()
	if ms < 0 {
		return 0, fmt.Errorf("metric: time %v is before the unix epoch", t)
	}
	return Timestamp(ms), nil
}

// Time converts the timestamp back to a time.Time in UTC.
func (ts Timestamp) Time() time.Time { return time.UnixMilli(int64(ts)).UTC() }

// TimedEvent pairs an immutable event with the wall-clock sample taken at
// the recording instant.
type TimedEvent[E any] struct {
	Timestamp Timestamp `json:"timestamp"`
	Event     E         `json:"event"`
}

// Description identifies one metric stream. It is immutable once created
// and shared by pointer between the tracer and the collecting engine.
type Description struct {
	Path       Path       `json:"path"`
	Info       string     `json:"info"`
	StreamType StreamType `json:"stream_type"`
}

// Metric is the per-kind contract: initial state comes from the kind's
// state constructor, Apply folds one timed event into state, and
// CloneState produces a deep copy safe to hand across goroutines.
//
// Apply must be deterministic and total: replaying the same ordered event
// sequence from the initial state always reproduces the same final state,
// and no reachable event may cause a panic.
type Metric[S, E any] interface {
	StreamType() StreamType
	Apply(state *S, event TimedEvent[E])
	CloneState(state *S) S
}

// Stat accumulates a sum and an observation count.
type Stat struct {
	Sum   float64 `json:"sum"`
	Count uint64  `json:"count"`
}

// Add folds one observation into the stat.
func (s *Stat) Add(value float64) {
	s.Sum += value
	s.Count++
}

// Pct is a ratio in [0, 1].
type Pct float64

// PctFromDiv returns value/total, or 0 when total is 0.
func PctFromDiv(value, total float64) Pct {
	if total == 0 {
		return 0
	}
	return Pct(value / total)
}

// Package tracer implements the per-instrumentation-point handle
// applications record events through. A tracer wraps one metric definition
// and runs in exactly one of two modes chosen at construction: push
// (events enqueued for the collecting engine to drain and fold) or pull
// (events applied in place to state the engine polls on an interval).
//
// The recording path never blocks, never allocates when the stream is
// inactive, and never surfaces an error to the application: every internal
// failure degrades to "this event is lost" with a log line.
package tracer

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/tinytelemetry/pulse/internal/metric"
)

// Tracer is a cheap handle onto one metric stream. Copying a Tracer yields
// a clone sharing the same channel/state and activation flag.
type Tracer[S, E any] struct {
	def    metric.Metric[S, E]
	active *atomic.Bool
	desc   *metric.Description

	// Exactly one of push/pull is set for the tracer's lifetime.
	push *eventQueue[metric.TimedEvent[E]]
	pull *pullState[S]
}

// New builds a tracer over the given definition and initial state and
// registers it with link. A pullInterval > 0 selects pull mode; otherwise
// the tracer pushes events. A nil link, or a registration error (engine
// not started yet, or already shut down), leaves the tracer fully
// functional as an inactive local sink.
func New[S, E any](link Link, def metric.Metric[S, E], initial S, path metric.Path, pullInterval time.Duration) Tracer[S, E] {
	streamType := def.StreamType()
	desc := &metric.Description{
		Path:       path,
		Info:       fmt.Sprintf("%s - %s", path, streamType),
		StreamType: streamType,
	}

	t := Tracer[S, E]{
		def:    def,
		active: &atomic.Bool{},
		desc:   desc,
	}

	var flow Flow
	if pullInterval > 0 {
		shared := &pullState[S]{state: initial}
		t.pull = shared
		flow = &pullFlow[S, E]{
			def:      def,
			desc:     desc,
			active:   t.active,
			shared:   shared,
			interval: pullInterval,
		}
	} else {
		queue := newEventQueue[metric.TimedEvent[E]]()
		t.push = queue
		flow = &pushFlow[S, E]{
			def:    def,
			desc:   desc,
			active: t.active,
			queue:  queue,
			state:  initial,
		}
	}

	if link != nil {
		if err := link.Register(desc, flow); err != nil {
			log.Printf("tracer: cannot register %s: %v", path, err)
		}
	}
	return t
}

// Record folds one event into the stream. A zero at means "now". When the
// stream is inactive this is a single atomic load; producers of expensive
// events should probe IsActive first and skip building the event entirely.
func (t *Tracer[S, E]) Record(event E, at time.Time) {
	if !t.active.Load() {
		return
	}
	if at.IsZero() {
		at = time.Now()
	}
	ts, err := metric.TimestampFromTime(at)
	if err != nil {
		log.Printf("tracer: dropping event on %s: %v", t.desc.Path, err)
		return
	}
	timed := metric.TimedEvent[E]{Timestamp: ts, Event: event}

	switch {
	case t.push != nil:
		if err := t.push.Push(timed); err != nil {
			log.Printf("tracer: dropping event on %s: %v", t.desc.Path, err)
		}
	case t.pull != nil:
		t.pull.mu.Lock()
		if !t.pull.released {
			t.def.Apply(&t.pull.state, timed)
		}
		t.pull.mu.Unlock()
	}
}

// IsActive reports whether anyone is observing the stream.
func (t *Tracer[S, E]) IsActive() bool { return t.active.Load() }

// Path returns the stream's identifying path.
func (t *Tracer[S, E]) Path() metric.Path { return t.desc.Path }

// Description returns the stream's shared description.
func (t *Tracer[S, E]) Description() *metric.Description { return t.desc }

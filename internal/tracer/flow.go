package tracer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinytelemetry/pulse/internal/metric"
)

// Link is the registration point a tracer announces itself to, exactly once
// at construction. Implementations must not block: registration either
// succeeds quickly or fails with an error the tracer logs and swallows.
type Link interface {
	Register(desc *metric.Description, flow Flow) error
}

// Flow is the type-erased handle the collecting engine holds for one
// registered stream. The engine drives activation, consumes snapshots, and
// releases the flow when it tears the stream down.
type Flow interface {
	Description() *metric.Description

	// SetActive flips the tracer's activation gate. Written only by the
	// collecting engine; read by every tracer clone on each record call.
	SetActive(on bool)
	Active() bool

	// Interval is the pull polling interval, or 0 for a push flow.
	Interval() time.Duration

	// Wake signals pending events on a push flow. Nil for pull flows.
	Wake() <-chan struct{}

	// Snapshot returns a deep copy of the stream's current aggregate.
	// Push flows drain pending events and fold them into the baseline
	// first. ok is false once the flow has been released.
	Snapshot() (state any, ok bool)

	// Release drops the engine's side of the stream. Subsequent records
	// on the tracer degrade to silent no-ops.
	Release()
}

// pullState is the state cell shared between a pull tracer and the engine.
// The released flag is the explicit stand-in for a weak reference: once the
// engine lets go, the tracer's side stops resolving.
type pullState[S any] struct {
	mu       sync.Mutex
	state    S
	released bool
}

// pushFlow owns the queue's consumer side plus the baseline state that
// drained events fold into.
type pushFlow[S, E any] struct {
	def    metric.Metric[S, E]
	desc   *metric.Description
	active *atomic.Bool
	queue  *eventQueue[metric.TimedEvent[E]]

	mu       sync.Mutex
	state    S
	released bool
}

func (f *pushFlow[S, E]) Description() *metric.Description { return f.desc }
func (f *pushFlow[S, E]) SetActive(on bool)                { f.active.Store(on) }
func (f *pushFlow[S, E]) Active() bool                     { return f.active.Load() }
func (f *pushFlow[S, E]) Interval() time.Duration          { return 0 }
func (f *pushFlow[S, E]) Wake() <-chan struct{}            { return f.queue.Wake() }

func (f *pushFlow[S, E]) Snapshot() (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return nil, false
	}
	for _, ev := range f.queue.Drain() {
		f.def.Apply(&f.state, ev)
	}
	return f.def.CloneState(&f.state), true
}

func (f *pushFlow[S, E]) Release() {
	f.mu.Lock()
	f.released = true
	f.mu.Unlock()
	f.queue.Close()
}

// pullFlow wraps the shared state cell the tracer applies events into.
type pullFlow[S, E any] struct {
	def      metric.Metric[S, E]
	desc     *metric.Description
	active   *atomic.Bool
	shared   *pullState[S]
	interval time.Duration
}

func (f *pullFlow[S, E]) Description() *metric.Description { return f.desc }
func (f *pullFlow[S, E]) SetActive(on bool)                { f.active.Store(on) }
func (f *pullFlow[S, E]) Active() bool                     { return f.active.Load() }
func (f *pullFlow[S, E]) Interval() time.Duration          { return f.interval }
func (f *pullFlow[S, E]) Wake() <-chan struct{}            { return nil }

func (f *pullFlow[S, E]) Snapshot() (any, bool) {
	f.shared.mu.Lock()
	defer f.shared.mu.Unlock()
	if f.shared.released {
		return nil, false
	}
	return f.def.CloneState(&f.shared.state), true
}

func (f *pullFlow[S, E]) Release() {
	f.shared.mu.Lock()
	f.shared.released = true
	f.shared.mu.Unlock()
}

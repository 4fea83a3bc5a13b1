// Package engine implements the collecting side of the telemetry core: it
// accepts stream registrations from tracers, drains push queues and polls
// pull state on per-stream schedules, and republishes point-in-time
// snapshots to exporters.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tinytelemetry/pulse/internal/metric"
	"github.com/tinytelemetry/pulse/internal/tracer"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrDuplicateStream rejects a second registration of the same path.
	ErrDuplicateStream = errors.New("engine: stream already registered")
	// ErrClosed rejects registrations after shutdown.
	ErrClosed = errors.New("engine: closed")
	// ErrUnknownStream reports a path with no registered stream.
	ErrUnknownStream = errors.New("engine: unknown stream")
)

// StreamInfo describes one registered stream.
type StreamInfo struct {
	Path       metric.Path       `json:"path"`
	Info       string            `json:"info"`
	StreamType metric.StreamType `json:"stream_type"`
	Mode       string            `json:"mode"`
	Active     bool              `json:"active"`
}

// Snapshot is a point-in-time copy of one stream's aggregate, sufficient on
// its own to render the metric's current value.
type Snapshot struct {
	Path       metric.Path       `json:"path"`
	Info       string            `json:"info"`
	StreamType metric.StreamType `json:"stream_type"`
	CapturedAt time.Time         `json:"captured_at"`
	State      any               `json:"state"`
}

// Engine collects registered streams. It implements tracer.Link.
type Engine struct {
	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group

	mu        sync.Mutex
	flows     map[metric.Path]tracer.Flow
	snapshots map[metric.Path]Snapshot
	subs      map[int]chan Snapshot
	nextSub   int
	started   bool
	closed    bool

	stopOnce sync.Once
}

// New creates an engine. Tracers may register before Start; their streams
// stay inactive until the engine runs.
func New() *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	return &Engine{
		ctx:       gctx,
		cancel:    cancel,
		g:         g,
		flows:     make(map[metric.Path]tracer.Flow),
		snapshots: make(map[metric.Path]Snapshot),
		subs:      make(map[int]chan Snapshot),
	}
}

// Register accepts one stream from a tracer. It never blocks beyond a map
// insert; failure is returned for the tracer to log and swallow.
func (e *Engine) Register(desc *metric.Description, flow tracer.Flow) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if _, exists := e.flows[desc.Path]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStream, desc.Path)
	}
	e.flows[desc.Path] = flow
	if e.started {
		e.spawnLocked(flow)
	}
	return nil
}

// Start activates registered streams and begins collecting. Streams
// registered later are picked up as they arrive.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.closed {
		return
	}
	e.started = true
	for _, flow := range e.flows {
		e.spawnLocked(flow)
	}
}

// Stop deactivates and releases every stream and waits for collection
// workers to drain. Tracers recording afterwards degrade to no-ops.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		e.cancel()
		e.g.Wait()

		e.mu.Lock()
		for _, flow := range e.flows {
			flow.SetActive(false)
			flow.Release()
		}
		for id, ch := range e.subs {
			close(ch)
			delete(e.subs, id)
		}
		e.mu.Unlock()
	})
}

func (e *Engine) spawnLocked(flow tracer.Flow) {
	e.g.Go(func() error {
		e.run(flow)
		return nil
	})
}

// run owns one stream: activate it, collect on its schedule, deactivate on
// the way out.
func (e *Engine) run(flow tracer.Flow) {
	flow.SetActive(true)
	defer flow.SetActive(false)

	// Baseline snapshot so the stream is visible before its first event.
	if !e.capture(flow) {
		return
	}

	if interval := flow.Interval(); interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-e.ctx.Done():
				return
			case <-ticker.C:
				if !e.capture(flow) {
					return
				}
			}
		}
	}

	for {
		select {
		case <-e.ctx.Done():
			// Final drain so shutdown does not lose folded events.
			e.capture(flow)
			return
		case <-flow.Wake():
			if !e.capture(flow) {
				return
			}
		}
	}
}

// capture takes one snapshot and republishes it. It reports false once the
// flow is gone.
func (e *Engine) capture(flow tracer.Flow) bool {
	state, ok := flow.Snapshot()
	if !ok {
		e.mu.Lock()
		delete(e.flows, flow.Description().Path)
		e.mu.Unlock()
		return false
	}
	desc := flow.Description()
	snap := Snapshot{
		Path:       desc.Path,
		Info:       desc.Info,
		StreamType: desc.StreamType,
		CapturedAt: time.Now(),
		State:      state,
	}

	e.mu.Lock()
	e.snapshots[desc.Path] = snap
	for _, ch := range e.subs {
		// Slow subscribers miss updates rather than stalling collection.
		select {
		case ch <- snap:
		default:
		}
	}
	e.mu.Unlock()
	return true
}

// SwitchStream flips one stream's activation gate.
func (e *Engine) SwitchStream(path metric.Path, on bool) error {
	e.mu.Lock()
	flow, ok := e.flows[path]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStream, path)
	}
	flow.SetActive(on)
	return nil
}

// Streams lists every registered stream.
func (e *Engine) Streams() []StreamInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	infos := make([]StreamInfo, 0, len(e.flows))
	for _, flow := range e.flows {
		desc := flow.Description()
		mode := "push"
		if flow.Interval() > 0 {
			mode = "pull"
		}
		infos = append(infos, StreamInfo{
			Path:       desc.Path,
			Info:       desc.Info,
			StreamType: desc.StreamType,
			Mode:       mode,
			Active:     flow.Active(),
		})
	}
	sortStreamInfos(infos)
	return infos
}

// Snapshot returns the latest snapshot for one stream.
func (e *Engine) Snapshot(path metric.Path) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, ok := e.snapshots[path]
	return snap, ok
}

// Snapshots returns the latest snapshot of every stream, ordered by path.
func (e *Engine) Snapshots() []Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snaps := make([]Snapshot, 0, len(e.snapshots))
	for _, snap := range e.snapshots {
		snaps = append(snaps, snap)
	}
	sortSnapshots(snaps)
	return snaps
}

// Watch subscribes to snapshot updates. The returned cancel must be called
// when done; a full buffer drops updates instead of blocking collection.
func (e *Engine) Watch(buffer int) (<-chan Snapshot, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Snapshot, buffer)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if sub, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(sub)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/tinytelemetry/pulse/internal/tracer"
)

// demoWorkload feeds a handful of streams with synthetic traffic so a fresh
// install has something to look at in pulse-top before any real
// instrumentation exists.
type demoWorkload struct {
	requests tracer.Counter
	errors   tracer.Counter
	latency  tracer.Histogram
	depth    tracer.Gauge
	events   tracer.Log
}

func newDemoWorkload(link tracer.Link, pullInterval time.Duration) *demoWorkload {
	return &demoWorkload{
		requests: tracer.NewCounter(link, "demo.http.requests", 0),
		errors:   tracer.NewCounter(link, "demo.http.errors", 0),
		latency:  tracer.NewHistogram(link, "demo.http.latency_ms", []float64{5, 10, 25, 50, 100, 250, 500}, 0),
		depth:    tracer.NewGauge(link, "demo.queue.depth", pullInterval),
		events:   tracer.NewLog(link, "demo.events", 0, 0),
	}
}

func (w *demoWorkload) run(ctx context.Context) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	queueDepth := 0.0
	w.events.Log("demo workload started", time.Time{})

	for {
		select {
		case <-ctx.Done():
			w.events.Log("demo workload stopping", time.Time{})
			return
		case <-ticker.C:
		}

		burst := 1 + rng.Intn(5)
		w.requests.Inc(float64(burst), time.Time{})

		for i := 0; i < burst; i++ {
			// Log-normal-ish latency tail.
			ms := 5 + rng.ExpFloat64()*40
			w.latency.Observe(ms, time.Time{})
			if ms > 400 {
				w.errors.Inc(1, time.Time{})
				w.events.Log(fmt.Sprintf("request timed out after %.0fms", ms), time.Time{})
			}
		}

		queueDepth += float64(burst) - rng.Float64()*6
		if queueDepth < 0 {
			queueDepth = 0
		}
		w.depth.Set(queueDepth, time.Time{})
	}
}

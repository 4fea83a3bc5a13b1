// Package otlp ships engine snapshots to an OpenTelemetry collector over
// gRPC. Counters become cumulative sums, gauges become OTLP gauges,
// histograms keep their explicit bounds with the overflow bucket last, and
// log frames are forwarded on the logs signal.
package otlp

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/pulse/internal/engine"
	"github.com/tinytelemetry/pulse/internal/metric"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	colmetricpb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	metricpb "go.opentelemetry.io/proto/otlp/metrics/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultInterval is the default export cadence.
const DefaultInterval = 10 * time.Second

// exportTimeout bounds one Export RPC.
const exportTimeout = 10 * time.Second

// SnapshotStore is the narrow engine contract the exporter reads from.
type SnapshotStore interface {
	Snapshots() []engine.Snapshot
}

// Config holds exporter parameters.
type Config struct {
	// Endpoint is the collector's gRPC address, for example
	// "127.0.0.1:4317".
	Endpoint string
	// Interval between exports. DefaultInterval when <= 0.
	Interval time.Duration
	// ServiceName is reported as the OTLP resource service.name.
	ServiceName string
}

// Exporter periodically converts snapshots to OTLP and exports them.
// Export failures are logged and retried on the next tick; they never
// affect collection.
type Exporter struct {
	conn     *grpc.ClientConn
	metrics  colmetricpb.MetricsServiceClient
	logs     collogspb.LogsServiceClient
	store    SnapshotStore
	interval time.Duration
	resource *resourcepb.Resource

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	start time.Time
	// logMarks tracks the newest exported record per log stream so a
	// frame is not re-sent wholesale every tick.
	logMarks map[metric.Path]metric.Timestamp
}

// New connects to the collector endpoint. The connection is established
// lazily by gRPC; New fails only on an unusable target.
func New(cfg Config, store SnapshotStore) (*Exporter, error) {
	conn, err := grpc.NewClient(cfg.Endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "pulse"
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Exporter{
		conn:     conn,
		metrics:  colmetricpb.NewMetricsServiceClient(conn),
		logs:     collogspb.NewLogsServiceClient(conn),
		store:    store,
		interval: interval,
		resource: &resourcepb.Resource{
			Attributes: []*commonpb.KeyValue{
				{
					Key: "service.name",
					Value: &commonpb.AnyValue{
						Value: &commonpb.AnyValue_StringValue{StringValue: serviceName},
					},
				},
			},
		},
		ctx:      ctx,
		cancel:   cancel,
		logMarks: make(map[metric.Path]metric.Timestamp),
	}, nil
}

// Start begins the export loop.
func (e *Exporter) Start() {
	e.start = time.Now()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		for {
			select {
			case <-e.ctx.Done():
				return
			case <-ticker.C:
				e.exportOnce()
			}
		}
	}()
}

// Stop halts the export loop and closes the connection.
func (e *Exporter) Stop() {
	e.cancel()
	e.wg.Wait()
	e.conn.Close()
}

func (e *Exporter) exportOnce() {
	snaps := e.store.Snapshots()
	if len(snaps) == 0 {
		return
	}

	startNanos := uint64(e.start.UnixNano())
	var metrics []*metricpb.Metric
	var logRecords []*logspb.LogRecord

	for _, snap := range snaps {
		if m, ok := snapshotToMetric(snap, startNanos); ok {
			metrics = append(metrics, m)
			continue
		}
		records := snapshotToLogRecords(snap, e.logMarks[snap.Path])
		if len(records) > 0 {
			e.logMarks[snap.Path] = metric.Timestamp(int64(records[len(records)-1].TimeUnixNano / 1e6))
			logRecords = append(logRecords, records...)
		}
	}

	ctx, cancel := context.WithTimeout(e.ctx, exportTimeout)
	defer cancel()

	if len(metrics) > 0 {
		req := &colmetricpb.ExportMetricsServiceRequest{
			ResourceMetrics: []*metricpb.ResourceMetrics{
				{
					Resource: e.resource,
					ScopeMetrics: []*metricpb.ScopeMetrics{
						{
							Scope:   &commonpb.InstrumentationScope{Name: instrumentationScope},
							Metrics: metrics,
						},
					},
				},
			},
		}
		if _, err := e.metrics.Export(ctx, req); err != nil {
			log.Printf("otlp: metrics export failed: %v", err)
		}
	}

	if len(logRecords) > 0 {
		req := &collogspb.ExportLogsServiceRequest{
			ResourceLogs: []*logspb.ResourceLogs{
				{
					Resource: e.resource,
					ScopeLogs: []*logspb.ScopeLogs{
						{
							Scope:      &commonpb.InstrumentationScope{Name: instrumentationScope},
							LogRecords: logRecords,
						},
					},
				},
			},
		}
		if _, err := e.logs.Export(ctx, req); err != nil {
			log.Printf("otlp: logs export failed: %v", err)
		}
	}
}

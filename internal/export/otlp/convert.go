package otlp

import (
	"math"

	"github.com/tinytelemetry/pulse/internal/engine"
	"github.com/tinytelemetry/pulse/internal/metric"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	metricpb "go.opentelemetry.io/proto/otlp/metrics/v1"
)

const instrumentationScope = "github.com/tinytelemetry/pulse"

// snapshotToMetric maps one numeric snapshot to an OTLP metric. Log
// snapshots are carried on the logs signal instead and return false here.
func snapshotToMetric(snap engine.Snapshot, startNanos uint64) (*metricpb.Metric, bool) {
	timeNanos := uint64(snap.CapturedAt.UnixNano())

	out := &metricpb.Metric{
		Name:        snap.Path.String(),
		Description: snap.Info,
	}

	switch state := snap.State.(type) {
	case metric.CounterState:
		// Deltas may be negative, so the cumulative sum is not monotonic.
		out.Data = &metricpb.Metric_Sum{
			Sum: &metricpb.Sum{
				AggregationTemporality: metricpb.AggregationTemporality_AGGREGATION_TEMPORALITY_CUMULATIVE,
				IsMonotonic:            false,
				DataPoints: []*metricpb.NumberDataPoint{
					numberPoint(startNanos, timeNanos, state.Total),
				},
			},
		}
		return out, true

	case metric.GaugeState:
		out.Data = &metricpb.Metric_Gauge{
			Gauge: &metricpb.Gauge{
				DataPoints: []*metricpb.NumberDataPoint{
					numberPoint(startNanos, timeNanos, state.Value),
				},
			},
		}
		return out, true

	case metric.HistogramState:
		bounds := make([]float64, 0, len(state.Buckets))
		counts := make([]uint64, 0, len(state.Buckets))
		for _, bucket := range state.Buckets {
			// The +Inf level becomes the implicit trailing overflow
			// bucket of the OTLP encoding.
			if !math.IsInf(bucket.Level, 1) {
				bounds = append(bounds, bucket.Level)
			}
			counts = append(counts, bucket.Stat.Count)
		}
		sum := state.Total.Sum
		out.Data = &metricpb.Metric_Histogram{
			Histogram: &metricpb.Histogram{
				AggregationTemporality: metricpb.AggregationTemporality_AGGREGATION_TEMPORALITY_CUMULATIVE,
				DataPoints: []*metricpb.HistogramDataPoint{
					{
						StartTimeUnixNano: startNanos,
						TimeUnixNano:      timeNanos,
						Count:             state.Total.Count,
						Sum:               &sum,
						BucketCounts:      counts,
						ExplicitBounds:    bounds,
					},
				},
			},
		}
		return out, true

	default:
		return nil, false
	}
}

func numberPoint(startNanos, timeNanos uint64, value float64) *metricpb.NumberDataPoint {
	return &metricpb.NumberDataPoint{
		StartTimeUnixNano: startNanos,
		TimeUnixNano:      timeNanos,
		Value:             &metricpb.NumberDataPoint_AsDouble{AsDouble: value},
	}
}

// snapshotToLogRecords maps a log snapshot to OTLP log records, keeping
// only records newer than the watermark.
func snapshotToLogRecords(snap engine.Snapshot, after metric.Timestamp) []*logspb.LogRecord {
	state, ok := snap.State.(metric.LogState)
	if !ok {
		return nil
	}
	var records []*logspb.LogRecord
	for _, rec := range state.Records {
		if rec.Timestamp <= after {
			continue
		}
		records = append(records, &logspb.LogRecord{
			TimeUnixNano: uint64(rec.Timestamp.Time().UnixNano()),
			Body: &commonpb.AnyValue{
				Value: &commonpb.AnyValue_StringValue{StringValue: rec.Message},
			},
			Attributes: []*commonpb.KeyValue{
				{
					Key: "pulse.stream",
					Value: &commonpb.AnyValue{
						Value: &commonpb.AnyValue_StringValue{StringValue: snap.Path.String()},
					},
				},
			},
		})
	}
	return records
}

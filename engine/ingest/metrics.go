package ingest

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce        sync.Once
	metricsInitErr     error
	ingestDurationHist metric.Float64Histogram
	chunkCounter       metric.Int64Counter
)

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("searchd.ingest")
		ingestDurationHist, metricsInitErr = meter.Float64Histogram(
			"searchd_ingest_duration_seconds",
			metric.WithDescription("Latency of file ingestion runs"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120),
		)
		if metricsInitErr != nil {
			return
		}
		chunkCounter, metricsInitErr = meter.Int64Counter(
			"searchd_ingest_chunks_total",
			metric.WithDescription("Number of chunks persisted per ingestion"),
			metric.WithUnit("1"),
		)
	})
	return metricsInitErr
}

func recordIngest(ctx context.Context, sourceType string, chunks int, d time.Duration) {
	if err := ensureMetrics(); err != nil || ingestDurationHist == nil || chunkCounter == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source_type", sourceType))
	ingestDurationHist.Record(ctx, d.Seconds(), attrs)
	if chunks > 0 {
		chunkCounter.Add(ctx, int64(chunks), attrs)
	}
}

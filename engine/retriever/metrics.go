package retriever

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce      sync.Once
	metricsInitErr   error
	queryLatencyHist metric.Float64Histogram
	queryCounter     metric.Int64Counter
	emptyCounter     metric.Int64Counter
)

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("searchd.retriever")
		queryLatencyHist, metricsInitErr = meter.Float64Histogram(
			"searchd_query_latency_seconds",
			metric.WithDescription("Latency of retrieval queries"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5),
		)
		if metricsInitErr != nil {
			return
		}
		queryCounter, metricsInitErr = meter.Int64Counter(
			"searchd_queries_total",
			metric.WithDescription("Number of retrieval queries by mode and outcome"),
			metric.WithUnit("1"),
		)
		if metricsInitErr != nil {
			return
		}
		emptyCounter, metricsInitErr = meter.Int64Counter(
			"searchd_queries_empty_total",
			metric.WithDescription("Number of retrieval queries that returned no chunks"),
			metric.WithUnit("1"),
		)
	})
	return metricsInitErr
}

func recordQuery(ctx context.Context, mode string, d time.Duration, ok bool) {
	if err := ensureMetrics(); err != nil || queryLatencyHist == nil || queryCounter == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	)
	queryLatencyHist.Record(ctx, d.Seconds(), attrs)
	queryCounter.Add(ctx, 1, attrs)
}

func recordEmpty(ctx context.Context, mode string) {
	if err := ensureMetrics(); err != nil || emptyCounter == nil {
		return
	}
	emptyCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

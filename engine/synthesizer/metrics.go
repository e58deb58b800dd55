package synthesizer

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce    sync.Once
	metricsInitErr error
	failureCounter metric.Int64Counter
)

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("searchd.synthesizer")
		failureCounter, metricsInitErr = meter.Int64Counter(
			"searchd_synthesis_failures_total",
			metric.WithDescription("Failed answer synthesis calls by kind"),
			metric.WithUnit("1"),
		)
	})
	return metricsInitErr
}

func recordFailure(ctx context.Context, kind string) {
	if err := ensureMetrics(); err != nil || failureCounter == nil {
		return
	}
	failureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

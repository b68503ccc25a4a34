package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("generation-metrics")

// GenerationMetrics provides metrics collection for deck generation and
// analysis operations
type GenerationMetrics struct {
	generationsStartedCounter   metric.Int64Counter
	generationsCompletedCounter metric.Int64Counter
	generationsFailedCounter    metric.Int64Counter
	generationDurationHistogram metric.Float64Histogram
	generationsActiveGauge      metric.Int64UpDownCounter
	analysisCacheHitsCounter    metric.Int64Counter
	analysisCacheMissesCounter  metric.Int64Counter
	remoteSaveFailuresCounter   metric.Int64Counter
}

// NewGenerationMetrics creates a new generation metrics collector
func NewGenerationMetrics() (*GenerationMetrics, error) {
	generationsStartedCounter, err := meter.Int64Counter(
		"deck_orchestrator.generations.started",
		metric.WithDescription("Total number of generation operations started"),
		metric.WithUnit("{generation}"),
	)
	if err != nil {
		return nil, err
	}

	generationsCompletedCounter, err := meter.Int64Counter(
		"deck_orchestrator.generations.completed",
		metric.WithDescription("Total number of generation operations completed successfully"),
		metric.WithUnit("{generation}"),
	)
	if err != nil {
		return nil, err
	}

	generationsFailedCounter, err := meter.Int64Counter(
		"deck_orchestrator.generations.failed",
		metric.WithDescription("Total number of generation operations that failed"),
		metric.WithUnit("{generation}"),
	)
	if err != nil {
		return nil, err
	}

	generationDurationHistogram, err := meter.Float64Histogram(
		"deck_orchestrator.generation.duration",
		metric.WithDescription("Duration of generation operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	generationsActiveGauge, err := meter.Int64UpDownCounter(
		"deck_orchestrator.generations.active",
		metric.WithDescription("Number of currently running generation operations"),
		metric.WithUnit("{generation}"),
	)
	if err != nil {
		return nil, err
	}

	analysisCacheHitsCounter, err := meter.Int64Counter(
		"deck_orchestrator.analysis.cache_hits",
		metric.WithDescription("Analysis requests answered from the cached feedback"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	analysisCacheMissesCounter, err := meter.Int64Counter(
		"deck_orchestrator.analysis.cache_misses",
		metric.WithDescription("Analysis requests that went to the generation service"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	remoteSaveFailuresCounter, err := meter.Int64Counter(
		"deck_orchestrator.remote_save.failures",
		metric.WithDescription("Best-effort remote slide saves that failed"),
		metric.WithUnit("{save}"),
	)
	if err != nil {
		return nil, err
	}

	return &GenerationMetrics{
		generationsStartedCounter:   generationsStartedCounter,
		generationsCompletedCounter: generationsCompletedCounter,
		generationsFailedCounter:    generationsFailedCounter,
		generationDurationHistogram: generationDurationHistogram,
		generationsActiveGauge:      generationsActiveGauge,
		analysisCacheHitsCounter:    analysisCacheHitsCounter,
		analysisCacheMissesCounter:  analysisCacheMissesCounter,
		remoteSaveFailuresCounter:   remoteSaveFailuresCounter,
	}, nil
}

// RecordGenerationStarted records the start of a generation operation
func (gm *GenerationMetrics) RecordGenerationStarted(ctx context.Context, operation, sessionID string) {
	gm.generationsStartedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("session.id", sessionID),
		),
	)
	gm.generationsActiveGauge.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
		),
	)
}

// RecordGenerationCompleted records a successful generation operation
func (gm *GenerationMetrics) RecordGenerationCompleted(ctx context.Context, operation, sessionID string, duration time.Duration) {
	gm.generationsCompletedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("session.id", sessionID),
			attribute.String("status", "completed"),
		),
	)
	gm.generationDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", "completed"),
		),
	)
	gm.generationsActiveGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("operation", operation),
		),
	)
}

// RecordGenerationFailed records a failed generation operation
func (gm *GenerationMetrics) RecordGenerationFailed(ctx context.Context, operation, sessionID, errorType string, duration time.Duration) {
	gm.generationsFailedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("session.id", sessionID),
			attribute.String("status", "failed"),
			attribute.String("error.type", errorType),
		),
	)
	gm.generationDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", "failed"),
		),
	)
	gm.generationsActiveGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("operation", operation),
		),
	)
}

// RecordAnalysisCacheHit records an analysis served from cached feedback
func (gm *GenerationMetrics) RecordAnalysisCacheHit(ctx context.Context, sessionID string) {
	gm.analysisCacheHitsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("session.id", sessionID),
		),
	)
}

// RecordAnalysisCacheMiss records an analysis that called the service
func (gm *GenerationMetrics) RecordAnalysisCacheMiss(ctx context.Context, sessionID string) {
	gm.analysisCacheMissesCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("session.id", sessionID),
		),
	)
}

// RecordRemoteSaveFailure records a failed best-effort remote save
func (gm *GenerationMetrics) RecordRemoteSaveFailure(ctx context.Context, sessionID string) {
	gm.remoteSaveFailuresCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("session.id", sessionID),
		),
	)
}

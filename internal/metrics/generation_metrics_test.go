package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationMetrics_Creation(t *testing.T) {
	t.Run("successfully create generation metrics", func(t *testing.T) {
		metrics, err := NewGenerationMetrics()
		require.NoError(t, err)
		assert.NotNil(t, metrics)
		assert.NotNil(t, metrics.generationsStartedCounter)
		assert.NotNil(t, metrics.generationsCompletedCounter)
		assert.NotNil(t, metrics.generationsFailedCounter)
		assert.NotNil(t, metrics.generationDurationHistogram)
		assert.NotNil(t, metrics.generationsActiveGauge)
		assert.NotNil(t, metrics.analysisCacheHitsCounter)
		assert.NotNil(t, metrics.analysisCacheMissesCounter)
		assert.NotNil(t, metrics.remoteSaveFailuresCounter)
	})
}

func TestGenerationMetrics_RecordLifecycle(t *testing.T) {
	metrics, err := NewGenerationMetrics()
	require.NoError(t, err)

	t.Run("record started then completed", func(t *testing.T) {
		ctx := context.Background()

		assert.NotPanics(t, func() {
			metrics.RecordGenerationStarted(ctx, "bulk_generate", "sess-1")
			metrics.RecordGenerationCompleted(ctx, "bulk_generate", "sess-1", 5*time.Second)
		})
	})

	t.Run("record started then failed", func(t *testing.T) {
		ctx := context.Background()

		assert.NotPanics(t, func() {
			metrics.RecordGenerationStarted(ctx, "analyze", "sess-2")
			metrics.RecordGenerationFailed(ctx, "analyze", "sess-2", "service_error", time.Second)
		})
	})

	t.Run("record various durations", func(t *testing.T) {
		ctx := context.Background()
		durations := []time.Duration{
			100 * time.Millisecond,
			1 * time.Second,
			10 * time.Second,
			1 * time.Minute,
		}

		for i, duration := range durations {
			sessionID := fmt.Sprintf("sess-%d", i)
			metrics.RecordGenerationCompleted(ctx, "slide_content", sessionID, duration)
		}
	})
}

func TestGenerationMetrics_CacheAndSaveCounters(t *testing.T) {
	metrics, err := NewGenerationMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		metrics.RecordAnalysisCacheHit(ctx, "sess-1")
		metrics.RecordAnalysisCacheMiss(ctx, "sess-1")
		metrics.RecordRemoteSaveFailure(ctx, "sess-1")
	})
}

func TestGenerationMetrics_ConcurrentRecording(t *testing.T) {
	metrics, err := NewGenerationMetrics()
	require.NoError(t, err)

	t.Run("handle concurrent metric recording", func(t *testing.T) {
		ctx := context.Background()
		done := make(chan bool)

		for i := 0; i < 10; i++ {
			go func(id int) {
				sessionID := fmt.Sprintf("concurrent-sess-%d", id)

				metrics.RecordGenerationStarted(ctx, "bulk_generate", sessionID)

				duration := time.Duration(id) * 100 * time.Millisecond
				if id%2 == 0 {
					metrics.RecordGenerationCompleted(ctx, "bulk_generate", sessionID, duration)
				} else {
					metrics.RecordGenerationFailed(ctx, "bulk_generate", sessionID, "error", duration)
				}

				done <- true
			}(i)
		}

		for i := 0; i < 10; i++ {
			<-done
		}
	})
}

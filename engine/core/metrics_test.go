package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounts(t *testing.T) {
	require.NoError(t, MetricsInitialize())
	baseCompleted, baseFailed, baseCancelled := MetricsLoads()
	baseBytes := MetricsBytesLoaded()

	MetricsLoadCompleted(128, 2*time.Millisecond)
	MetricsLoadCompleted(64, 4*time.Millisecond)
	MetricsLoadFailed()
	MetricsLoadCancelled()

	completed, failed, cancelled := MetricsLoads()
	assert.Equal(t, baseCompleted+2, completed)
	assert.Equal(t, baseFailed+1, failed)
	assert.Equal(t, baseCancelled+1, cancelled)
	assert.Equal(t, baseBytes+192, MetricsBytesLoaded())
}

func TestMetricsRollingAverage(t *testing.T) {
	require.NoError(t, MetricsInitialize())

	// Saturate the window, then fill it entirely with a constant latency.
	// The average must only reflect the newest AVG_COUNT samples.
	for i := 0; i < AVG_COUNT; i++ {
		MetricsLoadCompleted(1, 100*time.Millisecond)
	}
	for i := 0; i < AVG_COUNT; i++ {
		MetricsLoadCompleted(1, 10*time.Millisecond)
	}

	assert.InDelta(t, 10.0, MetricsAvgLoadTime(), 0.001)
}

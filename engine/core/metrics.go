package core

import (
	"sync"
	"time"

	"github.com/vesta-engine/vesta/engine/containers"
)

const AVG_COUNT int = 30

type MetricsState struct {
	mu             sync.Mutex
	CompletedLoads uint64
	FailedLoads    uint64
	CancelledLoads uint64
	BytesLoaded    uint64
	// Rolling window of the most recent load latencies.
	loadTimes *containers.RingQueue[float64]
	loadsSum  float64
	MSavg     float64
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metricsState = &MetricsState{
			loadTimes: containers.NewRingQueue[float64](AVG_COUNT),
		}
	})
	return nil
}

// MetricsLoadCompleted records a successful load with its payload size and latency.
func MetricsLoadCompleted(byteCount int, elapsed time.Duration) {
	if metricsState == nil {
		return
	}
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()

	metricsState.CompletedLoads++
	metricsState.BytesLoaded += uint64(byteCount)

	// Push the latency into the window, dropping the oldest sample when full.
	loadMS := float64(elapsed) / float64(time.Millisecond)
	if metricsState.loadTimes.IsFull() {
		oldest, err := metricsState.loadTimes.Dequeue()
		if err == nil {
			metricsState.loadsSum -= oldest
		}
	}
	if err := metricsState.loadTimes.Enqueue(loadMS); err == nil {
		metricsState.loadsSum += loadMS
	}
	if n := metricsState.loadTimes.Len(); n > 0 {
		metricsState.MSavg = metricsState.loadsSum / float64(n)
	}
}

func MetricsLoadFailed() {
	if metricsState == nil {
		return
	}
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.FailedLoads++
}

func MetricsLoadCancelled() {
	if metricsState == nil {
		return
	}
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.CancelledLoads++
}

// MetricsLoads returns the completed, failed and cancelled load counts.
func MetricsLoads() (uint64, uint64, uint64) {
	if metricsState == nil {
		return 0, 0, 0
	}
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	return metricsState.CompletedLoads, metricsState.FailedLoads, metricsState.CancelledLoads
}

// MetricsAvgLoadTime returns the average load latency in milliseconds
// over the most recent window.
func MetricsAvgLoadTime() float64 {
	if metricsState == nil {
		return 0
	}
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	return metricsState.MSavg
}

func MetricsBytesLoaded() uint64 {
	if metricsState == nil {
		return 0
	}
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	return metricsState.BytesLoaded
}

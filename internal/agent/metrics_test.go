package agent

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentMetrics_BasicOperations(t *testing.T) {
	metrics := &AgentMetrics{}

	metrics.IncFilesDiscovered()
	metrics.IncFilesTailed()
	metrics.IncFilesFailed()
	metrics.IncWorkersBusy()
	metrics.IncLinesShipped()

	result := metrics.GetMetricsStamp()

	assert.Equal(t, 1, result.FilesDiscovered)
	assert.Equal(t, 1, result.FilesTailed)
	assert.Equal(t, 1, result.FilesFailed)
	assert.Equal(t, 1, result.WorkersBusy)
	assert.Equal(t, 1, result.LinesShipped)
}

func TestAgentMetrics_QueueUsage(t *testing.T) {
	metrics := &AgentMetrics{}
	assert.Equal(t, 0.0, metrics.GetQueueUsage())

	metrics = &AgentMetrics{FileQueueCapacity: 10}
	for i := 0; i < 5; i++ {
		metrics.IncQueuedFiles()
	}
	assert.InDelta(t, 0.5, metrics.GetQueueUsage(), 1e-9)
}

func TestAgentMetrics_DecrementOperations(t *testing.T) {
	metrics := &AgentMetrics{}

	metrics.IncWorkersBusy()
	metrics.IncQueuedFiles()

	metrics.DecWorkersBusy()
	metrics.DecQueuedFiles()

	result := metrics.GetMetricsStamp()
	assert.Equal(t, 0, result.WorkersBusy)
	assert.Equal(t, 0, result.QueuedFiles)
}

func TestAgentMetrics_ConcurrentUpdates(t *testing.T) {
	metrics := &AgentMetrics{FileQueueCapacity: 1000}

	var wg sync.WaitGroup
	inc := func(fn func()) {
		for i := 0; i < 1000; i++ {
			fn()
		}
		wg.Done()
	}

	wg.Add(5)
	go inc(metrics.IncFilesDiscovered)
	go inc(metrics.IncFilesTailed)
	go inc(metrics.IncFilesFailed)
	go inc(metrics.IncWorkersBusy)
	go inc(metrics.IncLinesShipped)
	wg.Wait()

	stamp := metrics.GetMetricsStamp()
	assert.Equal(t, 1000, stamp.FilesDiscovered)
	assert.Equal(t, 1000, stamp.FilesTailed)
	assert.Equal(t, 1000, stamp.FilesFailed)
	assert.Equal(t, 1000, stamp.WorkersBusy)
	assert.Equal(t, 1000, stamp.LinesShipped)
}

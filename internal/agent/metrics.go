package agent

import (
	"sync"
)

type AgentMetrics struct {
	FilesDiscovered   int
	FilesTailed       int
	FilesFailed       int
	QueuedFiles       int
	FileQueueCapacity int
	WorkersBusy       int
	LinesShipped      int
	mu                sync.RWMutex
}

func (m *AgentMetrics) IncFilesDiscovered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilesDiscovered++
}

func (m *AgentMetrics) IncFilesTailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilesTailed++
}

func (m *AgentMetrics) IncFilesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilesFailed++
}

func (m *AgentMetrics) IncQueuedFiles() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueuedFiles++
}

func (m *AgentMetrics) DecQueuedFiles() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueuedFiles--
}

func (m *AgentMetrics) IncWorkersBusy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkersBusy++
}

func (m *AgentMetrics) DecWorkersBusy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkersBusy--
}

func (m *AgentMetrics) IncLinesShipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinesShipped++
}

func (m *AgentMetrics) GetMetricsStamp() AgentMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return AgentMetrics{
		FilesDiscovered:   m.FilesDiscovered,
		FilesTailed:       m.FilesTailed,
		FilesFailed:       m.FilesFailed,
		QueuedFiles:       m.QueuedFiles,
		FileQueueCapacity: m.FileQueueCapacity,
		WorkersBusy:       m.WorkersBusy,
		LinesShipped:      m.LinesShipped,
	}
}

func (m *AgentMetrics) GetQueueUsage() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FileQueueCapacity == 0 {
		return 0
	}
	return float64(m.QueuedFiles) / float64(m.FileQueueCapacity)
}

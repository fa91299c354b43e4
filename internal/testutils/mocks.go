package testutils

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Chichichkin/SeqRelay/pkg/logging"
)

type MockBatchPublisher struct {
	Batches [][]logging.LogEvent
	mu      sync.Mutex
	Delay   time.Duration
}

func (m *MockBatchPublisher) PublishBatch(events []logging.LogEvent) {
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Batches = append(m.Batches, events)
}

func (m *MockBatchPublisher) GetBatches() [][]logging.LogEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	batches := make([][]logging.LogEvent, len(m.Batches))
	copy(batches, m.Batches)
	return batches
}

func (m *MockBatchPublisher) TotalEvents() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, batch := range m.Batches {
		total += len(batch)
	}
	return total
}

func (m *MockBatchPublisher) GetEvents() []logging.LogEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []logging.LogEvent
	for _, batch := range m.Batches {
		events = append(events, batch...)
	}
	return events
}

type MockDispatcher struct {
	Events       []logging.LogEvent
	mu           sync.Mutex
	EnqueueDelay time.Duration
	EnqueueCalls int
	StartCalls   int
	FlushCalls   int
	StopCalls    int
}

func (m *MockDispatcher) Enqueue(event logging.LogEvent) {
	if m.EnqueueDelay > 0 {
		time.Sleep(m.EnqueueDelay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Events = append(m.Events, event)
	m.EnqueueCalls++
}

func (m *MockDispatcher) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartCalls++
}

func (m *MockDispatcher) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FlushCalls++
}

func (m *MockDispatcher) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StopCalls++
}

func (m *MockDispatcher) GetEvents() []logging.LogEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]logging.LogEvent, len(m.Events))
	copy(events, m.Events)
	return events
}

// ReportedFailure is one (event, error) pair handed to a failure handler.
type ReportedFailure struct {
	Event logging.LogEvent
	Err   error
}

// FailureRecorder captures failure-handler calls for assertions.
type FailureRecorder struct {
	Failures []ReportedFailure
	mu       sync.Mutex
}

func (r *FailureRecorder) Handle(event logging.LogEvent, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Failures = append(r.Failures, ReportedFailure{Event: event, Err: err})
}

func (r *FailureRecorder) GetFailures() []ReportedFailure {
	r.mu.Lock()
	defer r.mu.Unlock()

	failures := make([]ReportedFailure, len(r.Failures))
	copy(failures, r.Failures)
	return failures
}

func (r *FailureRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Failures)
}

func CreateTempLogStructure(t *testing.T) string {
	tempDir := t.TempDir()

	structure := map[string]string{
		"web/access.log":      "GET / 200\nGET /health 200\n",
		"web/error.log":       "upstream timed out\n",
		"db/queries.log":      "SELECT 1\nSELECT 2\n",
		"worker/jobs.log":     "job 17 done\n",
		"worker/archive/old.log": "rotated content\n",
		"worker/notes.txt":    "not a log file\n",
	}

	for path, content := range structure {
		fullPath := filepath.Join(tempDir, path)
		dir := filepath.Dir(fullPath)

		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}

		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file %s: %v", fullPath, err)
		}
	}

	return tempDir
}

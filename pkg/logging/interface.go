package logging

import (
	"time"
)

// BatchPublisher delivers one formed batch to its destination. It is never
// called concurrently with itself and must not panic or block forever;
// failures are reported through the publisher's own failure handler.
type BatchPublisher interface {
	PublishBatch(events []LogEvent)
}

// PublisherFunc adapts a function to the BatchPublisher interface.
type PublisherFunc func(events []LogEvent)

func (f PublisherFunc) PublishBatch(events []LogEvent) { f(events) }

// Dispatcher accepts events from any goroutine and forwards them to a
// publisher in batches.
type Dispatcher interface {
	Enqueue(event LogEvent)
	Start()
	Flush()
	Stop()
}

// Config holds the batching parameters.
type Config struct {
	// BatchSize is the number of events that triggers an immediate flush.
	BatchSize int
	// AutoFlushTimeout flushes a partial batch this long after its first
	// event arrived. Zero disables the timer.
	AutoFlushTimeout time.Duration
}

const DefaultBatchSize = 10

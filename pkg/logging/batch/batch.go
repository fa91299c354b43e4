package batch

import (
	"log"
	"sync"
	"time"

	"github.com/Chichichkin/SeqRelay/pkg/logging"
)

// Dispatcher accumulates events into batches and hands each batch to a
// publisher from a single background goroutine. Producers never block and
// never see errors. A batch is published when it reaches Config.BatchSize,
// when Config.AutoFlushTimeout elapses after its first event, or when Flush
// is called, whichever comes first.
type Dispatcher struct {
	publisher logging.BatchPublisher
	config    logging.Config

	queueMutex sync.Mutex
	queue      []logging.LogEvent
	running    bool
	stopChan   chan struct{}
	wake       chan struct{}
	wg         sync.WaitGroup

	flushMutex sync.Mutex
	buffer     []logging.LogEvent
	deadline   time.Time
}

func NewDispatcher(publisher logging.BatchPublisher, config logging.Config) *Dispatcher {
	if config.BatchSize <= 0 {
		config.BatchSize = logging.DefaultBatchSize
	}

	return &Dispatcher{
		publisher: publisher,
		config:    config,
		wake:      make(chan struct{}, 1),
	}
}

// Enqueue appends an event to the queue. It is safe from any goroutine,
// never blocks and never fails; the queue is unbounded. Events enqueued
// while the dispatcher is stopped are kept until the next Start.
func (d *Dispatcher) Enqueue(event logging.LogEvent) {
	d.queueMutex.Lock()
	d.queue = append(d.queue, event)
	d.queueMutex.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Start launches the worker goroutine. Calling Start on a running
// dispatcher is a no-op.
func (d *Dispatcher) Start() {
	d.queueMutex.Lock()
	defer d.queueMutex.Unlock()

	if d.running {
		return
	}
	d.running = true
	d.stopChan = make(chan struct{})

	d.wg.Add(1)
	go d.run(d.stopChan)
}

// Stop halts dequeuing, publishes the buffered partial batch and joins the
// worker. Events still in the queue stay queued for a later Start. Calling
// Stop on a stopped dispatcher is a no-op.
func (d *Dispatcher) Stop() {
	d.queueMutex.Lock()
	if !d.running {
		d.queueMutex.Unlock()
		return
	}
	d.running = false
	stopChan := d.stopChan
	d.queueMutex.Unlock()

	close(stopChan)
	d.wg.Wait()
}

// Flush publishes the buffered partial batch on the caller's goroutine,
// blocking until the publish callback returns. Flushing an empty buffer is
// a no-op. The flush lock is shared with the worker, so a publish is never
// issued twice for the same buffer.
func (d *Dispatcher) Flush() {
	d.flushMutex.Lock()
	defer d.flushMutex.Unlock()

	d.publishBuffer()
}

func (d *Dispatcher) run(stopChan chan struct{}) {
	defer d.wg.Done()

	for {
		d.drainQueue()

		var timer *time.Timer
		var timerChan <-chan time.Time

		d.flushMutex.Lock()
		deadline := d.deadline
		d.flushMutex.Unlock()

		if !deadline.IsZero() {
			timer = time.NewTimer(time.Until(deadline))
			timerChan = timer.C
		}

		select {
		case <-d.wake:
		case <-timerChan:
			d.flushOnDeadline()
		case <-stopChan:
			if timer != nil {
				timer.Stop()
			}
			d.Flush()
			return
		}

		if timer != nil {
			timer.Stop()
		}
	}
}

func (d *Dispatcher) drainQueue() {
	d.queueMutex.Lock()
	pending := d.queue
	d.queue = nil
	d.queueMutex.Unlock()

	if len(pending) == 0 {
		return
	}

	d.flushMutex.Lock()
	defer d.flushMutex.Unlock()

	for _, event := range pending {
		if len(d.buffer) == 0 && d.config.AutoFlushTimeout > 0 {
			d.deadline = time.Now().Add(d.config.AutoFlushTimeout)
		}

		d.buffer = append(d.buffer, event)

		if len(d.buffer) >= d.config.BatchSize {
			d.publishBuffer()
		}
	}
}

func (d *Dispatcher) flushOnDeadline() {
	d.flushMutex.Lock()
	defer d.flushMutex.Unlock()

	// a manual flush may have cleared or re-armed the deadline since the
	// timer was set
	if d.deadline.IsZero() || time.Now().Before(d.deadline) {
		return
	}

	d.publishBuffer()
}

// publishBuffer requires flushMutex to be held.
func (d *Dispatcher) publishBuffer() {
	if len(d.buffer) == 0 {
		return
	}

	batch := d.buffer
	d.buffer = nil
	d.deadline = time.Time{}

	d.publish(batch)
}

func (d *Dispatcher) publish(batch []logging.LogEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Publisher panicked on batch of %d events: %v", len(batch), r)
		}
	}()

	d.publisher.PublishBatch(batch)
}

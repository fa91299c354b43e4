package seqlog

import (
	"io"
	"time"

	"github.com/Chichichkin/SeqRelay/pkg/logging"
	"github.com/Chichichkin/SeqRelay/pkg/logging/batch"
	"github.com/Chichichkin/SeqRelay/pkg/logging/console"
	"github.com/Chichichkin/SeqRelay/pkg/logging/seq"
)

// Config wires a Logger to its destination.
type Config struct {
	// ServerURL is the ingestion endpoint base URL. Empty selects the
	// console fallback handler instead of a remote sink.
	ServerURL string
	APIKey    string

	// BatchSize defaults to logging.DefaultBatchSize when zero.
	BatchSize int
	// AutoFlushTimeout flushes partial batches after this delay. Zero
	// disables timed flushes.
	AutoFlushTimeout time.Duration

	// MinLevel drops events below it before normalization. The zero value
	// keeps everything, DEBUG included.
	MinLevel   logging.Level
	LoggerName string

	// SerializerName selects a registered serializer; empty keeps JSON.
	SerializerName string

	// GlobalProperties is the process-wide property store; shared between
	// loggers when supplied. A fresh store is created when nil.
	GlobalProperties *logging.PropertyStore

	// FailureHandler receives events the pipeline gave up on. Defaults to
	// stderr reporting via the console package.
	FailureHandler logging.FailureHandler

	// ConsoleWriter is the fallback handler destination, stdout when nil.
	// Only used while ServerURL is empty.
	ConsoleWriter io.Writer
}

// Logger is the façade producers log through. Derived loggers returned by
// With, WithError, Named and friends share the parent's dispatcher and
// property store; only the bound context differs.
type Logger struct {
	minLevel   logging.Level
	store      *logging.PropertyStore
	normalizer *Normalizer
	dispatcher logging.Dispatcher

	props      logging.Properties
	exc        Exception
	threadName string

	owned bool
}

// New builds a logger with its own running dispatcher. Configuration
// problems (an unknown serializer name, an empty required URL) surface here
// and nowhere later.
func New(config Config) (*Logger, error) {
	publisher, err := buildPublisher(config)
	if err != nil {
		return nil, err
	}

	store := config.GlobalProperties
	if store == nil {
		store = logging.NewPropertyStore()
	}

	dispatcher := batch.NewDispatcher(publisher, logging.Config{
		BatchSize:        config.BatchSize,
		AutoFlushTimeout: config.AutoFlushTimeout,
	})
	dispatcher.Start()

	return &Logger{
		minLevel:   config.MinLevel,
		store:      store,
		normalizer: NewNormalizer(store, config.LoggerName),
		dispatcher: dispatcher,
		owned:      true,
	}, nil
}

// NewWithDispatcher wires a logger onto an externally managed dispatcher.
// The caller keeps responsibility for starting and stopping it.
func NewWithDispatcher(dispatcher logging.Dispatcher, config Config) *Logger {
	store := config.GlobalProperties
	if store == nil {
		store = logging.NewPropertyStore()
	}

	return &Logger{
		minLevel:   config.MinLevel,
		store:      store,
		normalizer: NewNormalizer(store, config.LoggerName),
		dispatcher: dispatcher,
	}
}

func buildPublisher(config Config) (logging.BatchPublisher, error) {
	if config.ServerURL == "" {
		return console.NewHandler(config.ConsoleWriter), nil
	}

	opts := []seq.Option{
		seq.WithFailureHandler(console.ReportFailure),
	}
	if config.APIKey != "" {
		opts = append(opts, seq.WithAPIKey(config.APIKey))
	}
	if config.SerializerName != "" {
		opts = append(opts, seq.WithSerializerName(config.SerializerName))
	}
	if config.FailureHandler != nil {
		opts = append(opts, seq.WithFailureHandler(config.FailureHandler))
	}

	return seq.NewPublisher(config.ServerURL, opts...)
}

func (l *Logger) Debug(template string, args ...any)    { l.log(logging.LevelDebug, template, args) }
func (l *Logger) Info(template string, args ...any)     { l.log(logging.LevelInfo, template, args) }
func (l *Logger) Warning(template string, args ...any)  { l.log(logging.LevelWarning, template, args) }
func (l *Logger) Error(template string, args ...any)    { l.log(logging.LevelError, template, args) }
func (l *Logger) Critical(template string, args ...any) { l.log(logging.LevelCritical, template, args) }

// Log records an event at an arbitrary level.
func (l *Logger) Log(level logging.Level, template string, args ...any) {
	l.log(level, template, args)
}

func (l *Logger) log(level logging.Level, template string, args []any) {
	if level < l.minLevel {
		return
	}

	l.dispatcher.Enqueue(l.normalizer.Normalize(Record{
		Time:       time.Now(),
		Level:      level,
		Template:   template,
		Args:       args,
		Props:      l.props,
		Exc:        l.exc,
		ThreadID:   goroutineID(),
		ThreadName: l.threadName,
	}))
}

// With returns a derived logger with additional named properties bound to
// every event. Positional log calls ignore bound properties.
func (l *Logger) With(props logging.Properties) *Logger {
	derived := l.clone()

	merged := l.props.Copy()
	for key, value := range props {
		merged[key] = value
	}
	derived.props = merged

	return derived
}

// WithError binds an error whose rendering becomes the event exception.
func (l *Logger) WithError(err error) *Logger {
	derived := l.clone()
	derived.exc = Exception{Err: err}
	return derived
}

// WithStackCapture makes each event carry the calling goroutine's stack as
// its exception text.
func (l *Logger) WithStackCapture() *Logger {
	derived := l.clone()
	derived.exc = Exception{CaptureStack: true}
	return derived
}

// WithThreadName sets the ThreadName property attached to events.
func (l *Logger) WithThreadName(name string) *Logger {
	derived := l.clone()
	derived.threadName = name
	return derived
}

// Named returns a derived logger whose events carry the given LoggerName.
func (l *Logger) Named(name string) *Logger {
	derived := l.clone()
	derived.normalizer = NewNormalizer(l.store, name)
	return derived
}

func (l *Logger) clone() *Logger {
	derived := *l
	derived.owned = false
	return &derived
}

// Properties returns the process-wide property store backing this logger.
func (l *Logger) Properties() *logging.PropertyStore {
	return l.store
}

// Flush forces publication of the partially filled batch and blocks until
// the publish call returns.
func (l *Logger) Flush() {
	l.dispatcher.Flush()
}

// Close flushes buffered events and stops the dispatcher. Derived loggers
// do not own the dispatcher; closing them is a no-op.
func (l *Logger) Close() {
	if !l.owned {
		return
	}
	l.dispatcher.Stop()
}

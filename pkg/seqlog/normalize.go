package seqlog

import (
	"fmt"
	"runtime"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/Chichichkin/SeqRelay/pkg/logging"
)

// Exception carries the error context of a log call. Resolution order:
// a pre-rendered Text wins, then an explicit Err (rendered with its stack
// trace when it carries one), then CaptureStack grabs the calling
// goroutine's stack.
type Exception struct {
	Text         string
	Err          error
	CaptureStack bool
}

// Record is one raw log call before normalization.
type Record struct {
	Time       time.Time
	Level      logging.Level
	Template   string
	Args       []any
	Props      logging.Properties
	Exc        Exception
	ThreadID   uint64
	ThreadName string
}

// Normalizer turns raw records into canonical log events, merging in the
// process-wide properties.
type Normalizer struct {
	store      *logging.PropertyStore
	loggerName string
}

func NewNormalizer(store *logging.PropertyStore, loggerName string) *Normalizer {
	if store == nil {
		store = logging.NewPropertyStore()
	}
	return &Normalizer{store: store, loggerName: loggerName}
}

// Normalize builds one event from a record. Positional arguments take
// precedence over named properties: with args present the properties are
// the global snapshot plus one ordinal entry per argument, and any named
// properties on the record are ignored. Without args, named properties are
// overlaid on the global snapshot and win on collision. With neither, the
// event carries the global snapshot alone. The message template is kept
// literal in every case; substitution happens at render time.
func (n *Normalizer) Normalize(record Record) logging.LogEvent {
	props := n.globalProperties()

	switch {
	case len(record.Args) > 0:
		for i, arg := range record.Args {
			props[strconv.Itoa(i)] = arg
		}
		n.addThreadIdentity(props, record)
	case len(record.Props) > 0:
		for key, value := range record.Props {
			props[key] = value
		}
		n.addThreadIdentity(props, record)
	}

	for key, value := range props {
		props[key] = logging.EncodeValue(value)
	}

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return logging.LogEvent{
		Timestamp:       timestamp,
		Level:           record.Level,
		MessageTemplate: record.Template,
		Properties:      props,
		Exception:       renderException(record.Exc),
	}
}

func (n *Normalizer) globalProperties() logging.Properties {
	props := n.store.Snapshot()
	if n.loggerName != "" {
		props["LoggerName"] = n.loggerName
	}
	return props
}

func (n *Normalizer) addThreadIdentity(props logging.Properties, record Record) {
	if record.ThreadID != 0 {
		if _, ok := props["ThreadId"]; !ok {
			props["ThreadId"] = record.ThreadID
		}
	}

	if record.ThreadName != "" {
		if _, ok := props["ThreadName"]; !ok {
			props["ThreadName"] = record.ThreadName
		}
	}
}

func renderException(exc Exception) string {
	switch {
	case exc.Text != "":
		return exc.Text

	case exc.Err != nil:
		if stackTracer, ok := exc.Err.(interface{ StackTrace() pkgerrors.StackTrace }); ok {
			return fmt.Sprintf("%s%+v", exc.Err.Error(), stackTracer.StackTrace())
		}
		return exc.Err.Error()

	case exc.CaptureStack:
		buf := make([]byte, 8192)
		size := runtime.Stack(buf, false)
		return string(buf[:size])
	}

	return ""
}

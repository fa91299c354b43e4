package seqlog

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Chichichkin/SeqRelay/internal/testutils"
	"github.com/Chichichkin/SeqRelay/pkg/logging"
)

func newTestLogger(config Config) (*Logger, *testutils.MockDispatcher) {
	dispatcher := &testutils.MockDispatcher{}
	return NewWithDispatcher(dispatcher, config), dispatcher
}

func TestLoggerLevelFiltering(t *testing.T) {
	logger, dispatcher := newTestLogger(Config{MinLevel: logging.LevelWarning})

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warning("kept")
	logger.Error("kept")
	logger.Critical("kept")

	events := dispatcher.GetEvents()
	assert.Len(t, events, 3)
	assert.Equal(t, logging.LevelWarning, events[0].Level)
	assert.Equal(t, logging.LevelError, events[1].Level)
	assert.Equal(t, logging.LevelCritical, events[2].Level)
}

func TestLoggerPositionalArgs(t *testing.T) {
	logger, dispatcher := newTestLogger(Config{})

	logger.Info("processed %d items in %s", 42, "frobnicator")

	events := dispatcher.GetEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, "processed %d items in %s", events[0].MessageTemplate)
	assert.Equal(t, 42, events[0].Properties["0"])
	assert.Equal(t, "frobnicator", events[0].Properties["1"])

	threadID, ok := events[0].Properties["ThreadId"].(uint64)
	assert.True(t, ok, "expected a ThreadId property on a positional call")
	assert.NotZero(t, threadID)
}

func TestLoggerWith(t *testing.T) {
	logger, dispatcher := newTestLogger(Config{})

	derived := logger.With(logging.Properties{"RequestId": "r-17"})
	derived.Info("handled")
	logger.Info("plain")

	events := dispatcher.GetEvents()
	assert.Len(t, events, 2)
	assert.Equal(t, "r-17", events[0].Properties["RequestId"])

	_, leaked := events[1].Properties["RequestId"]
	assert.False(t, leaked, "bound properties must not leak to the parent logger")
}

func TestLoggerWithChaining(t *testing.T) {
	logger, dispatcher := newTestLogger(Config{})

	logger.
		With(logging.Properties{"Service": "checkout"}).
		With(logging.Properties{"RequestId": "r-18"}).
		Info("handled")

	events := dispatcher.GetEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, "checkout", events[0].Properties["Service"])
	assert.Equal(t, "r-18", events[0].Properties["RequestId"])
}

func TestLoggerWithError(t *testing.T) {
	logger, dispatcher := newTestLogger(Config{})

	logger.WithError(errors.New("disk full")).Error("write failed")

	events := dispatcher.GetEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, "disk full", events[0].Exception)
}

func TestLoggerWithStackCapture(t *testing.T) {
	logger, dispatcher := newTestLogger(Config{})

	logger.WithStackCapture().Error("state dump")

	events := dispatcher.GetEvents()
	assert.Len(t, events, 1)
	assert.Contains(t, events[0].Exception, "goroutine")
}

func TestLoggerWithThreadName(t *testing.T) {
	logger, dispatcher := newTestLogger(Config{})

	logger.WithThreadName("ingest-3").Info("read %d lines", 120)

	events := dispatcher.GetEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, "ingest-3", events[0].Properties["ThreadName"])
}

func TestLoggerNamed(t *testing.T) {
	logger, dispatcher := newTestLogger(Config{})

	logger.Named("payments.api").Info("charge accepted")
	logger.Info("plain")

	events := dispatcher.GetEvents()
	assert.Len(t, events, 2)
	assert.Equal(t, "payments.api", events[0].Properties["LoggerName"])

	_, present := events[1].Properties["LoggerName"]
	assert.False(t, present)
}

func TestLoggerGlobalPropertiesShared(t *testing.T) {
	logger, dispatcher := newTestLogger(Config{})

	logger.Properties().Merge(logging.Properties{"Deploy": "blue"})
	logger.Info("after merge")

	events := dispatcher.GetEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, "blue", events[0].Properties["Deploy"])
}

func TestLoggerLogArbitraryLevel(t *testing.T) {
	logger, dispatcher := newTestLogger(Config{})

	logger.Log(logging.LevelCritical, "meltdown in sector %d", 7)

	events := dispatcher.GetEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, logging.LevelCritical, events[0].Level)
	assert.Equal(t, 7, events[0].Properties["0"])
}

func TestLoggerFlushDelegates(t *testing.T) {
	logger, dispatcher := newTestLogger(Config{})

	logger.Flush()

	assert.Equal(t, 1, dispatcher.FlushCalls)
}

func TestLoggerCloseSkipsExternalDispatcher(t *testing.T) {
	logger, dispatcher := newTestLogger(Config{})

	logger.Close()

	assert.Equal(t, 0, dispatcher.StopCalls, "externally managed dispatchers stay running")
}

func TestLoggerDerivedCloseIsNoop(t *testing.T) {
	var output bytes.Buffer
	logger, err := New(Config{ConsoleWriter: &output})
	assert.NoError(t, err)
	defer logger.Close()

	derived := logger.With(logging.Properties{"K": 1})
	derived.Close()

	logger.Info("still alive")
	time.Sleep(100 * time.Millisecond)
	logger.Flush()

	assert.Contains(t, output.String(), "still alive")
}

func TestNewRejectsUnknownSerializer(t *testing.T) {
	_, err := New(Config{
		ServerURL:      "http://localhost:5341",
		SerializerName: "carrier-pigeon",
	})

	assert.Error(t, err)

	var configErr *logging.ConfigurationError
	assert.ErrorAs(t, err, &configErr)
}

func TestLoggerEndToEndConsole(t *testing.T) {
	var output bytes.Buffer
	logger, err := New(Config{
		ConsoleWriter: &output,
		BatchSize:     2,
		LoggerName:    "demo",
	})
	assert.NoError(t, err)

	logger.Info("processed %d items", 42)
	logger.Warning("queue depth reached {Depth}")

	time.Sleep(200 * time.Millisecond)
	logger.Close()

	written := output.String()
	assert.Contains(t, written, "INFO: processed 42 items")
	assert.Contains(t, written, "WARNING: queue depth reached {Depth}")
	assert.Equal(t, 2, strings.Count(written, "Log entry properties"),
		"both events carry properties lines")
}

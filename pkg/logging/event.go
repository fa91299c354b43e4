package logging

import (
	"encoding/base64"
	"strings"
	"time"
	"unicode/utf8"
)

// Level is the severity of a log event.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

// String returns the level name as it appears on the wire.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	}
	return "INFO"
}

// ParseLevel converts a level name into a Level. Unknown names map to INFO.
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarning
	case "ERROR":
		return LevelError
	case "CRITICAL", "FATAL":
		return LevelCritical
	}
	return LevelInfo
}

// Properties holds the named values attached to a log event.
type Properties map[string]any

// Copy returns a shallow copy. The copy is never nil.
func (p Properties) Copy() Properties {
	copied := make(Properties, len(p))
	for key, value := range p {
		copied[key] = value
	}
	return copied
}

// LogEvent is one canonical log event. It is immutable once built: the
// properties map is owned by the event and never aliased by the producer.
type LogEvent struct {
	Timestamp       time.Time
	Level           Level
	MessageTemplate string
	Properties      Properties
	Exception       string
}

// TimestampLayout renders local time as ISO-8601 with a space separator and
// numeric offset, the format the ingestion endpoint accepts.
const TimestampLayout = "2006-01-02 15:04:05.999999-07:00"

// FormatTimestamp renders t in the wire timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// EncodeValue prepares a property value for serialization. Byte slices are
// not representable in JSON: valid UTF-8 becomes a plain string, anything
// else is Base64-encoded so the original bytes stay recoverable. All other
// values pass through unchanged.
func EncodeValue(value any) any {
	data, ok := value.([]byte)
	if !ok {
		return value
	}

	if utf8.Valid(data) {
		return string(data)
	}

	return base64.StdEncoding.EncodeToString(data)
}

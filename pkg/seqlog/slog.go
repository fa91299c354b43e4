package seqlog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Chichichkin/SeqRelay/pkg/logging"
)

// SlogHandler bridges the standard library's slog front end onto a Logger,
// so instrumented third-party code ships events through the same pipeline.
// Attribute groups become dotted property names.
type SlogHandler struct {
	logger *Logger
	attrs  logging.Properties
	groups []string
}

// NewSlogHandler wraps a logger for use with slog.New.
func NewSlogHandler(logger *Logger) *SlogHandler {
	return &SlogHandler{
		logger: logger,
		attrs:  logging.Properties{},
	}
}

func levelFromSlog(level slog.Level) logging.Level {
	switch {
	case level < slog.LevelInfo:
		return logging.LevelDebug
	case level < slog.LevelWarn:
		return logging.LevelInfo
	case level < slog.LevelError:
		return logging.LevelWarning
	case level == slog.LevelError:
		return logging.LevelError
	default:
		return logging.LevelCritical
	}
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return levelFromSlog(level) >= h.logger.minLevel
}

func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	level := levelFromSlog(record.Level)
	if level < h.logger.minLevel {
		return nil
	}

	props := h.attrs.Copy()
	prefix := h.prefix()
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(props, prefix, attr)
		return true
	})

	h.logger.dispatcher.Enqueue(h.logger.normalizer.Normalize(Record{
		Time:       record.Time,
		Level:      level,
		Template:   record.Message,
		Props:      props,
		Exc:        h.logger.exc,
		ThreadID:   goroutineID(),
		ThreadName: h.logger.threadName,
	}))
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	derived := h.clone()
	prefix := derived.prefix()
	for _, attr := range attrs {
		appendAttr(derived.attrs, prefix, attr)
	}
	return derived
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	derived := h.clone()
	derived.groups = append(derived.groups, name)
	return derived
}

func (h *SlogHandler) clone() *SlogHandler {
	return &SlogHandler{
		logger: h.logger,
		attrs:  h.attrs.Copy(),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *SlogHandler) prefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

func appendAttr(props logging.Properties, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()

	if attr.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix = prefix + attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			appendAttr(props, groupPrefix, member)
		}
		return
	}

	if attr.Equal(slog.Attr{}) {
		return
	}

	value := attr.Value.Any()
	if err, ok := value.(error); ok {
		value = err.Error()
	}
	props[prefix+attr.Key] = value
}

package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Chichichkin/SeqRelay/pkg/logging"
)

// Handler renders log events to a writer. It satisfies the batch publisher
// contract, so it can stand in for a remote sink when no server is
// configured, and it doubles as the default destination for failure
// reports.
type Handler struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewHandler writes to w, or to stdout when w is nil.
func NewHandler(w io.Writer) *Handler {
	if w == nil {
		w = os.Stdout
	}
	return &Handler{writer: w}
}

// Emit renders a single event.
func (h *Handler) Emit(event logging.LogEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.write(event)
}

// PublishBatch renders every event of the batch in order.
func (h *Handler) PublishBatch(events []logging.LogEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, event := range events {
		h.write(event)
	}
}

func (h *Handler) write(event logging.LogEvent) {
	fmt.Fprintf(h.writer, "[%s] %s: %s\n",
		logging.FormatTimestamp(event.Timestamp), event.Level, logging.RenderMessage(event))

	if len(event.Properties) > 0 {
		fmt.Fprintf(h.writer, "\tLog entry properties: %v\n", event.Properties)
	}

	if event.Exception != "" {
		fmt.Fprintf(h.writer, "%s\n", event.Exception)
	}
}

// ReportFailure writes a failed event and its classified error to stderr,
// including the server response diagnostics for transport failures. It has
// the failure handler signature.
func ReportFailure(event logging.LogEvent, err error) {
	fmt.Fprintf(os.Stderr, "Failed to ship log event %q: %v\n", event.MessageTemplate, err)

	if transport, ok := err.(*logging.TransportError); ok {
		fmt.Fprintf(os.Stderr, "%s\n", transport.Diagnostic())
	}
}

package logging

import "fmt"

// SerializationError means a batch could not be encoded to the wire format.
// Every event in the batch is reported failed, because the offending value
// cannot be isolated without re-serializing per event. The batch is
// discarded, never retried.
type SerializationError struct {
	BatchSize int
	Err       error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to serialize batch of %d events: %v", e.BatchSize, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// TransportError means a batch could not be delivered: either the request
// never completed or the server answered outside 2xx. Only the first event
// of the batch is reported failed. The batch is discarded, never retried.
type TransportError struct {
	StatusCode int
	Response   string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to deliver batch: %v", e.Err)
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Diagnostic describes the server response for the failure report.
func (e *TransportError) Diagnostic() string {
	if e.Err != nil {
		return "Response from server was unavailable."
	}
	if e.Response == "" {
		return "Response body from server was empty."
	}
	return fmt.Sprintf("Response body from server:\n%s", e.Response)
}

// ConfigurationError means a sink was set up with invalid parameters. It is
// returned synchronously during construction and is fatal to that sink only.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid sink configuration: %s", e.Reason)
}

// FailureHandler receives every event the pipeline gave up on, together
// with the classified error. Handlers must not panic; they run on the
// dispatch goroutine.
type FailureHandler func(event LogEvent, err error)

package seq

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Chichichkin/SeqRelay/pkg/logging"
)

const ingestPath = "api/events/raw"

// Publisher ships event batches to a Seq-compatible ingestion endpoint.
// Delivery is best effort: a failed batch is reported through the failure
// handler and discarded, never retried.
type Publisher struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	serializer Serializer
	onFailure  logging.FailureHandler
}

// Event is the wire form of one log event.
type Event struct {
	Timestamp       string             `json:"Timestamp"`
	Level           string             `json:"Level"`
	MessageTemplate string             `json:"MessageTemplate"`
	Properties      logging.Properties `json:"Properties"`
	Exception       string             `json:"Exception,omitempty"`
}

// Payload is the request body posted to the ingestion endpoint.
type Payload struct {
	Events []Event `json:"Events"`
}

type Option func(*Publisher) error

// WithAPIKey sends the key in the X-Seq-ApiKey header.
func WithAPIKey(key string) Option {
	return func(p *Publisher) error {
		p.apiKey = key
		return nil
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(p *Publisher) error {
		if client == nil {
			return &logging.ConfigurationError{Reason: "http client must not be nil"}
		}
		p.httpClient = client
		return nil
	}
}

func WithSerializer(serializer Serializer) Option {
	return func(p *Publisher) error {
		if serializer == nil {
			return &logging.ConfigurationError{Reason: "serializer must not be nil"}
		}
		p.serializer = serializer
		return nil
	}
}

// WithSerializerName resolves a registered serializer by name.
func WithSerializerName(name string) Option {
	return func(p *Publisher) error {
		serializer, err := NewSerializer(name)
		if err != nil {
			return err
		}
		p.serializer = serializer
		return nil
	}
}

func WithFailureHandler(handler logging.FailureHandler) Option {
	return func(p *Publisher) error {
		if handler == nil {
			return &logging.ConfigurationError{Reason: "failure handler must not be nil"}
		}
		p.onFailure = handler
		return nil
	}
}

// NewPublisher builds a publisher for the given server base URL. The URL is
// normalized to a single trailing slash before the ingestion path is
// appended. Option errors are configuration errors and fatal to this sink.
func NewPublisher(serverURL string, opts ...Option) (*Publisher, error) {
	if serverURL == "" {
		return nil, &logging.ConfigurationError{Reason: "server URL must not be empty"}
	}

	publisher := &Publisher{
		endpoint: strings.TrimRight(serverURL, "/") + "/" + ingestPath,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		serializer: JSONSerializer{},
		onFailure:  reportToLog,
	}

	for _, opt := range opts {
		if err := opt(publisher); err != nil {
			return nil, err
		}
	}

	return publisher, nil
}

// Endpoint returns the resolved ingestion URL.
func (p *Publisher) Endpoint() string {
	return p.endpoint
}

// PublishBatch serializes and posts one batch. A serialization failure
// reports every event of the batch, because the offending value cannot be
// told apart without per-event re-encoding. A transport failure reports
// only the first event to bound the noise one broken connection produces.
// Either way the batch is discarded.
func (p *Publisher) PublishBatch(events []logging.LogEvent) {
	if len(events) == 0 {
		return
	}

	body, err := p.serializer.Serialize(BuildPayload(events))
	if err != nil {
		serialization := &logging.SerializationError{BatchSize: len(events), Err: err}
		for _, event := range events {
			p.onFailure(event, serialization)
		}
		return
	}

	if err := p.sendRequest(body); err != nil {
		p.onFailure(events[0], err)
	}
}

// BuildPayload converts a batch into its wire form.
func BuildPayload(events []logging.LogEvent) Payload {
	payload := Payload{
		Events: make([]Event, 0, len(events)),
	}

	for _, event := range events {
		payload.Events = append(payload.Events, Event{
			Timestamp:       logging.FormatTimestamp(event.Timestamp),
			Level:           event.Level.String(),
			MessageTemplate: event.MessageTemplate,
			Properties:      event.Properties,
			Exception:       event.Exception,
		})
	}

	return payload
}

func (p *Publisher) sendRequest(body []byte) error {
	req, err := http.NewRequest("POST", p.endpoint, bytes.NewReader(body))
	if err != nil {
		return &logging.TransportError{Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-Seq-ApiKey", p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &logging.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(resp.Body)
		return &logging.TransportError{StatusCode: resp.StatusCode, Response: string(responseBody)}
	}

	return nil
}

// reportToLog is the default failure handler.
func reportToLog(event logging.LogEvent, err error) {
	if transport, ok := err.(*logging.TransportError); ok {
		log.Printf("Failed to ship log event %q: %v\n%s", event.MessageTemplate, err, transport.Diagnostic())
		return
	}
	log.Printf("Failed to ship log event %q: %v", event.MessageTemplate, err)
}

package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeStreamCompleted is emitted after a proxied completion
	// stream finishes.
	EventTypeStreamCompleted = "chatcore.stream.completed"
)

// StreamCompletedEvent is a transport-neutral event payload describing
// one completed chat-completion stream.
type StreamCompletedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	RequestMeta   RequestMeta `json:"request_meta"`
	Stream        StreamMeta  `json:"stream"`
	Usage         Usage       `json:"usage"`
}

// EventSource identifies where the stream originated.
type EventSource struct {
	Project  string `json:"project,omitempty"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// RequestMeta captures request lifecycle metadata for the event.
type RequestMeta struct {
	Path        string    `json:"path,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Streaming   bool      `json:"streaming"`
	HTTPStatus  int       `json:"http_status"`
}

// StreamMeta captures what was observed on the wire while the stream
// was relayed.
type StreamMeta struct {
	ChunkCount    int  `json:"chunk_count"`
	EventCount    int  `json:"event_count"`
	ContentLength int  `json:"content_length"`
	TokenCount    int  `json:"token_count"`
	SawDone       bool `json:"saw_done"`
}

// Usage carries token accounting when the upstream reported it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewStreamCompletedEvent assembles a v1 event with a fresh event ID and
// emission timestamp.
func NewStreamCompletedEvent(source EventSource, req RequestMeta, stream StreamMeta, usage Usage) *StreamCompletedEvent {
	return &StreamCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeStreamCompleted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		RequestMeta:   req,
		Stream:        stream,
		Usage:         usage,
	}
}

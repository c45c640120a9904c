// Package stream decodes Server-Sent-Events frames from a chat-completion
// backend into discrete, token-counted events.
//
// A raw frame is the text delivered by a single network read. Frames are
// split on the blank-line segment delimiter; each segment is either a
// heartbeat comment (ignored), a "data:" payload (parsed), or noise
// (dropped). Decoding is best-effort: a malformed payload never produces
// an error, it is simply skipped so one bad frame cannot abort a stream.
//
// The Decoder type runs the decode loop on its own goroutine so large
// bursts of text never block the caller; all communication is by value
// over channels.
package stream

// Kind discriminates decoded event types.
type Kind string

const (
	// KindContent is a partial assistant message fragment.
	KindContent Kind = "content"

	// KindDone marks the logical end of a stream ("data: [DONE]").
	KindDone Kind = "done"
)

// Event is a single decoded stream event.
type Event struct {
	Kind Kind `json:"kind"`

	// Content is the message fragment. Set only when Kind is KindContent.
	Content string `json:"content,omitempty"`

	// TokenCount is the whitespace-delimited token count of Content.
	// Set only when Kind is KindContent.
	TokenCount int `json:"token_count,omitempty"`
}

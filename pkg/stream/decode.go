package stream

import (
	"encoding/json"
	"strings"
)

const (
	// segmentDelimiter separates SSE segments within a frame.
	segmentDelimiter = "\n\n"

	// dataPrefix is the SSE data field prefix.
	dataPrefix = "data:"

	// heartbeatPrefix marks SSE comment lines used as keep-alives.
	heartbeatPrefix = ":"

	// doneSentinel is the literal completion payload.
	doneSentinel = "[DONE]"
)

// contentPayload is the JSON shape of a data segment's payload.
type contentPayload struct {
	Content string `json:"content"`
}

// DecodeFrame converts one raw frame into zero or more events, preserving
// the relative order of the bytes they were derived from.
//
// Segments that are blank, heartbeats, carry an unknown field prefix, or
// fail to parse as JSON are dropped without an error. DecodeFrame is
// stateless: a segment split across two frames is not reassembled here
// (see Decoder's carryover option).
func DecodeFrame(frame string) []Event {
	events := []Event{}

	for _, segment := range strings.Split(frame, segmentDelimiter) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		if strings.HasPrefix(segment, heartbeatPrefix) {
			continue
		}

		if !strings.HasPrefix(segment, dataPrefix) {
			continue
		}

		payload := strings.TrimLeft(strings.TrimPrefix(segment, dataPrefix), " \t")
		if payload == doneSentinel {
			events = append(events, Event{Kind: KindDone})
			continue
		}

		var parsed contentPayload
		if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
			// Best-effort policy: drop the segment, keep the stream alive.
			continue
		}

		events = append(events, Event{
			Kind:       KindContent,
			Content:    parsed.Content,
			TokenCount: CountTokens(parsed.Content),
		})
	}

	return events
}

// CountTokens returns the number of non-empty whitespace-separated tokens in s.
func CountTokens(s string) int {
	return len(strings.Fields(s))
}

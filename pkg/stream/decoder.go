package stream

import (
	"context"
	"strings"
)

var defaultQueueSize = 16

// Decoder decodes frames on a dedicated goroutine. Frames go in through
// Decode, event batches come out through Events: exactly one batch per
// frame, in the order frames were submitted. The decoder never shares
// mutable state with the caller; frames and batches are passed by value.
type Decoder struct {
	in        chan string
	out       chan []Event
	carryover bool
}

// Option configures a Decoder created with NewDecoder.
type Option func(*Decoder)

// WithCarryover keeps the trailing partial segment of each frame and
// prepends it to the next one, so a segment straddling two network reads
// is not lost. Off by default: the default behavior parses each frame
// independently.
func WithCarryover(on bool) Option {
	return func(d *Decoder) {
		d.carryover = on
	}
}

// WithQueueSize sets the capacity of the in and out channels.
func WithQueueSize(n int) Option {
	return func(d *Decoder) {
		if n < 1 {
			n = 1
		}
		d.in = make(chan string, n)
		d.out = make(chan []Event, n)
	}
}

// NewDecoder creates a Decoder and starts its decode goroutine.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		in:  make(chan string, defaultQueueSize),
		out: make(chan []Event, defaultQueueSize),
	}

	for _, opt := range opts {
		opt(d)
	}

	go d.run()

	return d
}

// Decode submits one frame for decoding. It blocks only when the decode
// queue is full, providing backpressure against a slow consumer.
// Decode must not be called after Close.
func (d *Decoder) Decode(ctx context.Context, frame string) error {
	select {
	case d.in <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the batch channel. The channel is closed after Close
// once all submitted frames have been decoded.
func (d *Decoder) Events() <-chan []Event {
	return d.out
}

// Close stops the decoder. Any frames already submitted are still decoded
// and delivered before the Events channel closes. In carryover mode a
// pending partial segment is decoded as a final frame, matching a stream
// that ended without a trailing blank line.
func (d *Decoder) Close() {
	close(d.in)
}

// run is the single decode path: one goroutine, FIFO in, FIFO out.
func (d *Decoder) run() {
	defer close(d.out)

	var carry string

	for frame := range d.in {
		if !d.carryover {
			d.out <- DecodeFrame(frame)
			continue
		}

		frame = carry + frame
		idx := strings.LastIndex(frame, segmentDelimiter)
		if idx < 0 {
			// No complete segment yet; hold everything and reply with an
			// empty batch to keep one reply per frame.
			carry = frame
			d.out <- []Event{}
			continue
		}

		carry = frame[idx+len(segmentDelimiter):]
		d.out <- DecodeFrame(frame[:idx])
	}

	if d.carryover && strings.TrimSpace(carry) != "" {
		d.out <- DecodeFrame(carry)
	}
}

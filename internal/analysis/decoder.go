package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/rs/zerolog"
)

const (
	dataPrefix    = "data: "
	readChunkSize = 32 * 1024
	maxLoggedLen  = 200
)

// MaxFrameSize caps the bytes held for one incomplete frame. A frame that
// grows past it is dropped; its tail later fails the data prefix check.
const MaxFrameSize = 1 << 20

var frameDelimiter = []byte("\n\n") //nolint:gochecknoglobals // constant byte slice

// Decoder splits a chunked event-stream body into frames and parses their
// JSON payloads. A frame that arrives split across chunks is held until its
// terminating blank line shows up. Not safe for concurrent use.
type Decoder struct {
	buf    []byte
	logger zerolog.Logger
}

// NewDecoder creates a Decoder that reports skipped frames to logger.
func NewDecoder(logger zerolog.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// Decode consumes one chunk and returns the events of every frame the chunk
// completed, in wire order.
func (d *Decoder) Decode(chunk []byte) []Event {
	d.buf = append(d.buf, chunk...)
	// A "\r\n" pair split across chunks becomes adjacent here, so normalizing
	// the whole buffer catches it.
	if bytes.Contains(d.buf, []byte("\r\n")) {
		d.buf = bytes.ReplaceAll(d.buf, []byte("\r\n"), []byte("\n"))
	}

	var events []Event
	for {
		idx := bytes.Index(d.buf, frameDelimiter)
		if idx < 0 {
			break
		}
		frame := d.buf[:idx]
		if ev, ok := d.parseFrame(frame); ok {
			events = append(events, ev)
		}
		d.buf = d.buf[idx+len(frameDelimiter):]
	}

	if len(d.buf) > MaxFrameSize {
		d.logger.Warn().Int("size", len(d.buf)).Msg("analysis: dropping oversized frame")
		d.buf = nil
	}

	// Drop the consumed prefix so the backing array does not grow forever.
	if len(d.buf) == 0 {
		d.buf = nil
	} else {
		d.buf = append([]byte(nil), d.buf...)
	}

	return events
}

// Flush parses whatever remains buffered as a final frame. Servers sometimes
// close the stream without the trailing blank line.
func (d *Decoder) Flush() []Event {
	rest := bytes.TrimRight(d.buf, "\n")
	d.buf = nil
	if len(rest) == 0 {
		return nil
	}
	if ev, ok := d.parseFrame(rest); ok {
		return []Event{ev}
	}
	return nil
}

// Buffered returns the number of bytes held for an incomplete frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

func (d *Decoder) parseFrame(frame []byte) (Event, bool) {
	if !bytes.HasPrefix(frame, []byte(dataPrefix)) {
		return Event{}, false
	}

	var ev Event
	if err := json.Unmarshal(frame[len(dataPrefix):], &ev); err != nil {
		d.logger.Warn().Err(err).Str("frame", truncate(frame, maxLoggedLen)).Msg("analysis: skipping malformed frame")
		return Event{}, false
	}

	return ev, true
}

// Stream reads r until EOF, decoding each chunk and handing events to fn in
// order. Reading is the only point where Stream blocks; ctx is checked before
// every read, so cancellation stops further network reads. fn returning false
// stops the stream early without error.
func (d *Decoder) Stream(ctx context.Context, r io.Reader, fn func(Event) bool) error {
	chunk := make([]byte, readChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := r.Read(chunk)
		if n > 0 {
			for _, ev := range d.Decode(chunk[:n]) {
				if !fn(ev) {
					return nil
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				for _, ev := range d.Flush() {
					if !fn(ev) {
						return nil
					}
				}
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return readErr
		}
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Package sse incrementally parses the text/event-stream wire format.
//
// The parser is a pure transformation from network-read byte chunks to
// complete frames. It owns nothing but its unconsumed remainder, never
// blocks, and emits frames strictly in arrival order. One parser instance
// belongs to exactly one streaming connection.
package sse

import (
	"bytes"
	"strings"
)

const (
	// DefaultEvent is the event type of a record without an `event:` line.
	DefaultEvent = "message"

	eventPrefix = "event:"
	dataPrefix  = "data:"
)

var recordSeparator = []byte("\n\n")

// Frame is one parsed SSE record: its event type tag and the newline-joined
// payload of all its `data:` lines.
type Frame struct {
	Event string
	Data  string
}

// Parser converts an append-only byte stream into frames, retaining the
// bytes of any incomplete trailing record between feeds.
type Parser struct {
	buffer []byte
}

func NewParser() *Parser {
	return &Parser{}
}

// Feed appends a chunk to the retained buffer and returns every frame whose
// record terminator (a blank line) is now buffered, in order. Records with
// no data payload are dropped.
func (p *Parser) Feed(chunk []byte) []Frame {
	p.buffer = append(p.buffer, chunk...)

	var frames []Frame
	for {
		boundary := bytes.Index(p.buffer, recordSeparator)
		if boundary < 0 {
			return frames
		}

		record := p.buffer[:boundary]
		p.buffer = p.buffer[boundary+len(recordSeparator):]

		if frame, ok := parseRecord(record); ok {
			frames = append(frames, frame)
		}
	}
}

// Flush parses whatever remains buffered as one final record and discards
// the buffer. It accommodates servers that terminate their last record with
// a single trailing newline (or none at all) instead of a blank line; it is
// meant to be called exactly once, when the connection closes.
func (p *Parser) Flush() (Frame, bool) {
	remainder := p.buffer
	p.buffer = nil

	if len(bytes.TrimSpace(remainder)) == 0 {
		return Frame{}, false
	}
	return parseRecord(remainder)
}

func parseRecord(record []byte) (Frame, bool) {
	frame := Frame{Event: DefaultEvent}

	var data strings.Builder
	for _, line := range strings.Split(string(record), "\n") {
		line = strings.TrimSuffix(line, "\r")

		switch {
		case strings.HasPrefix(line, eventPrefix):
			frame.Event = strings.TrimSpace(line[len(eventPrefix):])
		case strings.HasPrefix(line, dataPrefix):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(line[len(dataPrefix):]))
		}
		// Other fields (id:, retry:, comments) are ignored.
	}

	frame.Data = data.String()
	if frame.Data == "" {
		// A record with an event marker but no data carries nothing to
		// deliver.
		return Frame{}, false
	}
	return frame, true
}

package events

import "time"

// Kind tags an event with its place in the turn_output namespace, e.g.
// "turn_output.message". Sinks switch on it without type assertions.
type Kind string

// Event is what the decoder hands to a turn's sink: one of the variants
// documented in this package, stamped with its Kind and arrival time.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and timestamp every turn-output variant embeds.
// The timestamp is set at construction, which for streamed events is the
// moment the frame was decoded, not when the runtime produced it.
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}

package orchestration

import (
	"sync"

	"github.com/jinzhu/copier"

	"github.com/aria-runtime/aria-go/core/events"
)

// Transcript is a point-in-time copy of the events delivered during one
// turn, in arrival order.
type Transcript struct {
	TurnID string
	Events []events.Event
}

// conversationLog accumulates the events of the current turn. Recording
// happens on the runtime's consumer goroutine; snapshots may come from
// anywhere.
type conversationLog struct {
	mu     sync.Mutex
	turnID string
	events []events.Event
}

func newConversationLog() *conversationLog {
	return &conversationLog{}
}

func (l *conversationLog) begin(turnID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turnID = turnID
	l.events = l.events[:0]
}

func (l *conversationLog) record(event events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
}

// Snapshot deep-copies the log so callers can hold onto it without racing
// subsequent turns.
func (l *conversationLog) Snapshot() Transcript {
	l.mu.Lock()
	defer l.mu.Unlock()

	transcript := Transcript{TurnID: l.turnID}
	if len(l.events) == 0 {
		return transcript
	}

	copied := make([]events.Event, 0, len(l.events))
	if err := copier.CopyWithOption(&copied, &l.events, copier.Option{DeepCopy: true}); err != nil {
		logger.Warn("falling back to shallow transcript copy", "error", err)
		copied = append(copied[:0], l.events...)
	}
	transcript.Events = copied

	return transcript
}

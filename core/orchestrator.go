// Package orchestration drives conversational turns against an Aria
// runtime: it resolves a session, opens a turn stream, decodes frames
// into turn-output events, and hands them to the caller's sink in order.
package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aria-runtime/aria-go/core/events"
	"github.com/aria-runtime/aria-go/core/sse"
	"github.com/aria-runtime/aria-go/core/transport"
	"github.com/aria-runtime/aria-go/core/wire"
)

const (
	defaultBaseURL       = "http://localhost:8000"
	defaultFallbackDelay = 300 * time.Millisecond
)

// turnRef identifies one execution of a turn, so frames and settles from
// a superseded or cancelled turn cannot leak into its successor.
type turnRef struct {
	id        string
	cancelled atomic.Bool
}

// Orchestrator runs at most one conversational turn at a time. Starting
// a new turn cancels any outstanding one first.
type Orchestrator struct {
	baseURL       string
	sessions      SessionProvider
	credentials   CredentialProvider
	opener        StreamOpener
	useWebSocket  bool
	fallbackDelay time.Duration
	onStreamError func(error)

	runtime *turnRuntime
	log     *conversationLog
	decoder wire.Decoder

	mu           sync.Mutex
	currentTurn  *turnRef
	activeHandle StreamHandle

	closeOnce sync.Once
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	orchestrator := &Orchestrator{
		baseURL:       defaultBaseURL,
		fallbackDelay: defaultFallbackDelay,
		runtime:       newTurnRuntime(),
		log:           newConversationLog(),
	}

	for _, opt := range opts {
		opt(orchestrator)
	}

	if orchestrator.sessions == nil {
		orchestrator.sessions = NewRuntimeSessionProvider(
			orchestrator.baseURL,
			WithSessionCredentials(orchestrator.credentials),
		)
	}
	if orchestrator.opener == nil {
		if orchestrator.useWebSocket {
			orchestrator.opener = webSocketStreamOpener{
				client: transport.NewWebSocketClient(
					transport.WithWebSocketCredentials(orchestrator.credentials),
				),
			}
		} else {
			orchestrator.opener = sseStreamOpener{
				client: transport.NewClient(
					transport.WithCredentials(orchestrator.credentials),
				),
			}
		}
	}

	orchestrator.runtime.start()

	return orchestrator
}

type turnRequest struct {
	Input string `json:"input"`
}

// ExecuteTurn runs one turn to completion: it streams the runtime's
// response for input into sink, in arrival order, and returns once the
// turn settles. A still-running previous turn is cancelled first.
//
// Only session-resolution failures are returned as errors. Stream
// failures after a successful connect settle the turn with an observable
// error state, and connect failures are absorbed by playing a simulated
// response, so the sink always receives a terminating sequence.
func (o *Orchestrator) ExecuteTurn(ctx context.Context, input string, sink EventSink) error {
	ctx, span := tracer.Start(ctx, "execute turn")
	defer span.End()

	turn := o.beginTurn()
	span.SetAttributes(attribute.String("turn.id", turn.id))

	o.runtime.dispatchAndWait(func() {
		o.runtime.begin()
		o.log.begin(turn.id)
	})

	sessionID, err := o.sessions.CurrentSessionID(ctx)
	if err != nil {
		err = fmt.Errorf("failed to resolve session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.settleTurn(turn, err)
		return err
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	// CancelTurn may have run while the session was resolving; it already
	// settled the state, so stop before touching the network.
	if turn.cancelled.Load() {
		span.AddEvent("turn cancelled during session resolution")
		return nil
	}

	body, err := json.Marshal(turnRequest{Input: input})
	if err != nil {
		err = fmt.Errorf("error encoding turn request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.settleTurn(turn, err)
		return err
	}

	deliver := func(event events.Event) {
		if turn.cancelled.Load() {
			return
		}
		o.runtime.dispatch(func() {
			if turn.cancelled.Load() {
				return
			}
			o.log.record(event)
			if sink != nil {
				sink(event)
			}
		})
	}

	onFrame := func(frame sse.Frame) {
		if event, ok := o.decoder.Decode(frame); ok {
			deliver(event)
		}
	}
	onError := func(streamErr error) {
		logger.Warn("turn stream failed", "turn_id", turn.id, "error", streamErr)
		if o.onStreamError != nil {
			o.onStreamError(streamErr)
		}
	}

	req := transport.Request{
		Method: http.MethodPost,
		URL:    o.turnURL(sessionID),
		Body:   body,
	}

	handle, err := o.opener.Open(ctx, req, onFrame, onError)
	if err != nil {
		logger.Warn("runtime unreachable, playing simulated turn", "turn_id", turn.id, "error", err)
		span.AddEvent("fallback simulation")
		o.runFallback(ctx, turn, deliver)
		o.settleTurn(turn, nil)
		return nil
	}

	if !o.adoptHandle(turn, handle) {
		handle.Cancel()
		return nil
	}

	<-handle.Done()
	o.settleTurn(turn, handle.Err())
	return nil
}

// CancelTurn cancels the active turn's stream, if any, and settles the
// turn state immediately. Safe to call when idle.
func (o *Orchestrator) CancelTurn() {
	o.mu.Lock()
	turn := o.currentTurn
	handle := o.activeHandle
	if turn != nil {
		turn.cancelled.Store(true)
	}
	o.activeHandle = nil
	o.mu.Unlock()

	if handle != nil {
		handle.Cancel()
	}

	// Settle directly rather than through the queue, so a sink may call
	// CancelTurn without deadlocking the consumer goroutine. Delivery for
	// this turn is already fenced off by the cancelled flag.
	o.runtime.settle(nil)
}

// Close cancels any active turn and stops the event queue. The
// orchestrator must not be used afterwards.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.CancelTurn()
		o.runtime.close()
	})
}

// State reports the UI-observable lifecycle state of the current turn.
func (o *Orchestrator) State() TurnState {
	return o.runtime.Snapshot()
}

// Transcript returns a deep copy of the events delivered so far during
// the current turn.
func (o *Orchestrator) Transcript() Transcript {
	return o.log.Snapshot()
}

// beginTurn supersedes any outstanding turn and registers a new one.
func (o *Orchestrator) beginTurn() *turnRef {
	o.mu.Lock()
	previous := o.currentTurn
	previousHandle := o.activeHandle

	turn := &turnRef{id: uuid.NewString()}
	o.currentTurn = turn
	o.activeHandle = nil
	o.mu.Unlock()

	if previous != nil {
		previous.cancelled.Store(true)
	}
	if previousHandle != nil {
		previousHandle.Cancel()
	}

	return turn
}

// adoptHandle records the open stream as the active one, unless the turn
// was superseded or cancelled while connecting.
func (o *Orchestrator) adoptHandle(turn *turnRef, handle StreamHandle) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.currentTurn != turn || turn.cancelled.Load() {
		return false
	}
	o.activeHandle = handle
	return true
}

// settleTurn marks the turn complete unless a newer turn already owns the
// state.
func (o *Orchestrator) settleTurn(turn *turnRef, err error) {
	o.runtime.dispatchAndWait(func() {
		o.mu.Lock()
		current := o.currentTurn == turn
		if current {
			o.activeHandle = nil
		}
		o.mu.Unlock()

		if current {
			o.runtime.settle(err)
		}
	})
}

func (o *Orchestrator) turnURL(sessionID string) string {
	base := strings.TrimRight(o.baseURL, "/")
	url := base + "/api/v1/sessions/" + sessionID + "/turns"
	if !o.useWebSocket {
		return url
	}

	url += "/ws"
	switch {
	case strings.HasPrefix(url, "https://"):
		return "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		return "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url
}

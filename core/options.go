package orchestration

import (
	"context"
	"time"

	"github.com/aria-runtime/aria-go/core/events"
	"github.com/aria-runtime/aria-go/core/transport"
)

// EventSink receives the turn-output events of a single turn, in order.
type EventSink func(events.Event)

// StreamHandle controls one open runtime stream.
type StreamHandle interface {
	Cancel()
	Cancelled() bool
	Done() <-chan struct{}
	Err() error
}

// StreamOpener connects to the runtime and delivers stream frames until
// the stream settles.
type StreamOpener interface {
	Open(ctx context.Context, req transport.Request, onFrame transport.FrameHandler, onError transport.ErrorHandler) (StreamHandle, error)
}

// sseStreamOpener adapts the SSE transport client to the opener seam.
type sseStreamOpener struct {
	client *transport.Client
}

func (o sseStreamOpener) Open(ctx context.Context, req transport.Request, onFrame transport.FrameHandler, onError transport.ErrorHandler) (StreamHandle, error) {
	return o.client.Open(ctx, req, onFrame, onError)
}

// webSocketStreamOpener adapts the WebSocket transport client to the
// opener seam.
type webSocketStreamOpener struct {
	client *transport.WebSocketClient
}

func (o webSocketStreamOpener) Open(ctx context.Context, req transport.Request, onFrame transport.FrameHandler, onError transport.ErrorHandler) (StreamHandle, error) {
	return o.client.Open(ctx, req, onFrame, onError)
}

type OrchestratorOption func(*Orchestrator)

// WithBaseURL sets the runtime endpoint, e.g. "http://localhost:8000".
func WithBaseURL(baseURL string) OrchestratorOption {
	return func(o *Orchestrator) { o.baseURL = baseURL }
}

// WithSessionProvider replaces the default runtime-backed session
// provider.
func WithSessionProvider(sessions SessionProvider) OrchestratorOption {
	return func(o *Orchestrator) { o.sessions = sessions }
}

// WithCredentialProvider sets the provider consulted for Authorization
// headers on runtime requests.
func WithCredentialProvider(credentials CredentialProvider) OrchestratorOption {
	return func(o *Orchestrator) { o.credentials = credentials }
}

// WithStreamOpener replaces the transport used to reach the runtime.
func WithStreamOpener(opener StreamOpener) OrchestratorOption {
	return func(o *Orchestrator) { o.opener = opener }
}

// WithWebSocketStreaming switches turn streaming from SSE to the
// runtime's WebSocket endpoint.
func WithWebSocketStreaming() OrchestratorOption {
	return func(o *Orchestrator) { o.useWebSocket = true }
}

// WithFallbackStepDelay sets the pacing of the simulated turn played when
// the runtime is unreachable.
func WithFallbackStepDelay(delay time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.fallbackDelay = delay }
}

// WithStreamErrorCallback registers a callback invoked when an open
// stream fails mid-turn. The turn still settles with the same error.
func WithStreamErrorCallback(callback func(error)) OrchestratorOption {
	return func(o *Orchestrator) { o.onStreamError = callback }
}

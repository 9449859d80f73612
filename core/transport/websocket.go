package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aria-runtime/aria-go/core/sse"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// wsEnvelope is one frame on the WebSocket path. The runtime sends the same
// event vocabulary as the SSE path, one JSON object per text message.
type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WebSocketClient is the alternate streaming transport. It satisfies the
// same Open/Handle contract as Client, so the orchestrator can swap it in
// without changing event semantics.
type WebSocketClient struct {
	dialer         *websocket.Dialer
	credentials    CredentialProvider
	credentialWait time.Duration
}

type WebSocketOption func(*WebSocketClient)

// WithWebSocketCredentials sets the provider consulted once per Open.
func WithWebSocketCredentials(provider CredentialProvider) WebSocketOption {
	return func(c *WebSocketClient) { c.credentials = provider }
}

// WithDialer replaces the default websocket dialer.
func WithDialer(dialer *websocket.Dialer) WebSocketOption {
	return func(c *WebSocketClient) { c.dialer = dialer }
}

func NewWebSocketClient(opts ...WebSocketOption) *WebSocketClient {
	client := &WebSocketClient{
		dialer: &websocket.Dialer{
			HandshakeTimeout: connectTimeout,
		},
		credentialWait: defaultCredentialWait,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Open dials the runtime, sends the request body as the opening message,
// and starts the reader. req.URL must use the ws or wss scheme.
func (c *WebSocketClient) Open(ctx context.Context, req Request, onFrame FrameHandler, onError ErrorHandler) (*Handle, error) {
	ctx, span := tracer.Start(ctx, "open websocket stream")
	span.SetAttributes(attribute.String("request.url", req.URL))

	streamCtx, cancel := context.WithCancel(ctx)
	handle := newHandle(cancel)

	header := http.Header{}
	for key, values := range req.Header {
		for _, value := range values {
			header.Add(key, value)
		}
	}
	if c.credentials != nil {
		credentialCtx, credentialCancel := context.WithTimeout(streamCtx, c.credentialWait)
		if auth, ok := c.credentials.AuthorizationHeader(credentialCtx); ok && auth != "" {
			header.Set("Authorization", auth)
		}
		credentialCancel()
	}

	conn, _, err := c.dialer.DialContext(streamCtx, req.URL, header)
	if err != nil {
		err = fmt.Errorf("error dialing websocket: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		cancel()
		return nil, err
	}

	if req.Body != nil {
		if err := conn.WriteMessage(websocket.TextMessage, req.Body); err != nil {
			conn.Close()
			err = fmt.Errorf("error sending turn request: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			cancel()
			return nil, err
		}
	}

	// The read loop only notices cancellation on its next read, so force
	// the connection closed as soon as the stream context ends.
	go func() {
		<-streamCtx.Done()
		conn.Close()
	}()

	go func() {
		defer span.End()

		for {
			messageType, payload, err := conn.ReadMessage()
			if err != nil {
				if handle.Cancelled() || streamCtx.Err() != nil {
					handle.settle(nil)
					return
				}
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					handle.settle(nil)
					return
				}

				err = fmt.Errorf("error reading websocket stream: %w", err)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				handle.settle(err)
				if onError != nil {
					onError(err)
				}
				return
			}

			if messageType != websocket.TextMessage {
				continue
			}

			var envelope wsEnvelope
			if err := json.Unmarshal(payload, &envelope); err != nil {
				logger.Warn("dropping malformed websocket frame", "error", err)
				continue
			}
			if len(envelope.Data) == 0 {
				continue
			}
			if envelope.Event == "" {
				envelope.Event = sse.DefaultEvent
			}

			if handle.Cancelled() {
				continue
			}
			onFrame(sse.Frame{Event: envelope.Event, Data: string(envelope.Data)})
		}
	}()

	return handle, nil
}

// Package transport owns the streaming connections to the Aria runtime.
//
// A Client opens one HTTP request configured for server-push streaming and
// drives an SSE parser over the response body, delivering every parsed
// frame to the caller in arrival order. The returned Handle is the only way
// to abort the stream; cancellation is a silent terminal outcome, never an
// error.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aria-runtime/aria-go/core/sse"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// streamTimeout bounds the full life of one streaming response. SSE
	// connections stay open for the duration of a turn, so this is a
	// resource cap rather than a responsiveness knob.
	streamTimeout = time.Hour
	// connectTimeout bounds dialing and awaiting response headers.
	connectTimeout = 30 * time.Second

	// defaultCredentialWait is how long Open waits for the credential
	// provider before proceeding unauthenticated.
	defaultCredentialWait = 2 * time.Second

	readBufferSize = 4096
)

// CredentialProvider supplies an optional Authorization header value.
// Implementations must return promptly; absence (ok == false) is a valid,
// non-error state and the request proceeds unauthenticated.
type CredentialProvider interface {
	AuthorizationHeader(ctx context.Context) (string, bool)
}

// FrameHandler receives parsed frames in arrival order.
type FrameHandler func(sse.Frame)

// ErrorHandler receives at most one genuine transport error per stream.
// Cancellation never reaches it.
type ErrorHandler func(error)

// Request describes one streaming request.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Client opens SSE streaming connections. One Client can serve many
// sequential streams; each Open call owns its own parser and handle.
type Client struct {
	httpClient     *http.Client
	credentials    CredentialProvider
	credentialWait time.Duration
}

type ClientOption func(*Client)

// WithCredentials sets the provider consulted once per Open for an
// Authorization header.
func WithCredentials(provider CredentialProvider) ClientOption {
	return func(c *Client) { c.credentials = provider }
}

// WithHTTPClient replaces the default streaming HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithCredentialWait caps how long Open waits for the credential provider.
func WithCredentialWait(wait time.Duration) ClientOption {
	return func(c *Client) { c.credentialWait = wait }
}

func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(
				&http.Transport{
					DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
					TLSHandshakeTimeout:   10 * time.Second,
					ResponseHeaderTimeout: connectTimeout,
				},
				otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
					return operationName + " " + request.URL.Path
				}),
			),
			Timeout: streamTimeout,
		},
		credentialWait: defaultCredentialWait,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Open issues the request and starts reading the event stream. It returns
// once the response headers are in; connection failures and non-OK statuses
// are returned directly so the caller can decide on a fallback. After a
// successful return, frames flow to onFrame until the stream ends.
func (c *Client) Open(ctx context.Context, req Request, onFrame FrameHandler, onError ErrorHandler) (*Handle, error) {
	ctx, span := tracer.Start(ctx, "open event stream")
	span.SetAttributes(attribute.String("request.url", req.URL))

	streamCtx, cancel := context.WithCancel(ctx)
	handle := newHandle(cancel)

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(streamCtx, method, req.URL, body)
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		cancel()
		return nil, err
	}

	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	c.attachAuthorization(streamCtx, httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		err = fmt.Errorf("error opening stream: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		cancel()
		return nil, err
	}

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil {
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}
		resp.Body.Close()

		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		cancel()
		return nil, err
	}

	go c.readStream(streamCtx, span, resp.Body, handle, onFrame, onError)

	return handle, nil
}

// readStream drains the response body through the parser. Every frame from
// a chunk is delivered before the next read is issued.
func (c *Client) readStream(ctx context.Context, span trace.Span, body io.ReadCloser, handle *Handle, onFrame FrameHandler, onError ErrorHandler) {
	defer span.End()
	defer body.Close()

	parser := sse.NewParser()
	buffer := make([]byte, readBufferSize)

	for {
		n, err := body.Read(buffer)
		if n > 0 {
			for _, frame := range parser.Feed(buffer[:n]) {
				if handle.Cancelled() {
					break
				}
				onFrame(frame)
			}
		}

		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) {
			// Server-initiated close: recover a final record the server
			// terminated without a blank line, then complete cleanly.
			if frame, ok := parser.Flush(); ok && !handle.Cancelled() {
				onFrame(frame)
			}
			handle.settle(nil)
			return
		}

		if handle.Cancelled() || errors.Is(err, context.Canceled) {
			logger.Debug("stream read aborted by cancellation")
			handle.settle(nil)
			return
		}

		err = fmt.Errorf("error reading event stream: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handle.settle(err)
		if onError != nil {
			onError(err)
		}
		return
	}
}

func (c *Client) attachAuthorization(ctx context.Context, httpReq *http.Request) {
	if c.credentials == nil {
		return
	}

	credentialCtx, cancel := context.WithTimeout(ctx, c.credentialWait)
	defer cancel()

	if header, ok := c.credentials.AuthorizationHeader(credentialCtx); ok && header != "" {
		httpReq.Header.Set("Authorization", header)
	} else {
		logger.Debug("no authorization header available, proceeding unauthenticated")
	}
}

// Handle is the cancellation token for one in-flight stream. It is settled
// exactly once and must not be reused after Done is closed.
type Handle struct {
	cancel     context.CancelFunc
	cancelOnce sync.Once
	cancelled  atomic.Bool

	settleOnce sync.Once
	err        error
	done       chan struct{}
}

func newHandle(cancel context.CancelFunc) *Handle {
	return &Handle{cancel: cancel, done: make(chan struct{})}
}

// Cancel aborts the underlying connection. It is idempotent and a no-op on
// an already-settled handle.
func (h *Handle) Cancel() {
	h.cancelOnce.Do(func() {
		h.cancelled.Store(true)
		h.cancel()
	})
}

// Cancelled reports whether Cancel has been called.
func (h *Handle) Cancelled() bool {
	return h.cancelled.Load()
}

// Done is closed once the stream has terminated, for any reason.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the genuine transport error the stream ended with, or nil
// after a clean close or cancellation. Only valid once Done is closed.
func (h *Handle) Err() error {
	return h.err
}

func (h *Handle) settle(err error) {
	h.settleOnce.Do(func() {
		h.err = err
		h.cancel()
		close(h.done)
	})
}

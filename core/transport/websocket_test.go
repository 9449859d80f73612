package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func closeNormally(conn *websocket.Conn) {
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	conn.Close()
}

func TestWebSocketOpenDeliversEnvelopesInOrder(t *testing.T) {
	upgrader := websocket.Upgrader{}
	requestBodies := make(chan string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}

		_, opening, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("reading opening message failed: %v", err)
			return
		}
		requestBodies <- string(opening)

		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"message","data":{"content":"one"}}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"final_response","data":{"content":"two"}}`))
		closeNormally(conn)
	}))
	defer server.Close()

	onFrame, frames := collectFrames(t)
	client := NewWebSocketClient()

	handle, err := client.Open(context.Background(), Request{
		URL:  wsURL(server),
		Body: []byte(`{"input":"hi"}`),
	}, onFrame, nil)
	if err != nil {
		t.Fatalf("expected the websocket to open, got %v", err)
	}
	waitDone(t, handle)

	if got := <-requestBodies; got != `{"input":"hi"}` {
		t.Fatalf("expected the request body as the opening message, got %q", got)
	}

	got := frames()
	if len(got) != 2 {
		t.Fatalf("expected 2 frames, got %d: %v", len(got), got)
	}
	if got[0].Event != "message" || got[1].Event != "final_response" {
		t.Fatalf("expected frames in arrival order, got %v", got)
	}
	if got[0].Data != `{"content":"one"}` {
		t.Fatalf("expected the raw data payload, got %q", got[0].Data)
	}
	if handle.Err() != nil {
		t.Fatalf("expected a clean close, got %v", handle.Err())
	}
}

func TestWebSocketSkipsMalformedEnvelopes(t *testing.T) {
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}

		conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"message"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"message","data":{"content":"kept"}}`))
		closeNormally(conn)
	}))
	defer server.Close()

	onFrame, frames := collectFrames(t)
	client := NewWebSocketClient()

	handle, err := client.Open(context.Background(), Request{URL: wsURL(server)}, onFrame, nil)
	if err != nil {
		t.Fatalf("expected the websocket to open, got %v", err)
	}
	waitDone(t, handle)

	got := frames()
	if len(got) != 1 {
		t.Fatalf("expected only the well-formed frame, got %d: %v", len(got), got)
	}
	if got[0].Data != `{"content":"kept"}` {
		t.Fatalf("expected the surviving frame's payload, got %q", got[0].Data)
	}
}

func TestWebSocketCancelEndsStreamSilently(t *testing.T) {
	upgrader := websocket.Upgrader{}
	streaming := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"message","data":{"content":"one"}}`))
		close(streaming)
		// Hold the connection until the client drops it.
		conn.ReadMessage()
	}))
	defer server.Close()

	errored := make(chan error, 1)
	onFrame, _ := collectFrames(t)
	client := NewWebSocketClient()

	handle, err := client.Open(context.Background(), Request{URL: wsURL(server)}, onFrame, func(err error) {
		errored <- err
	})
	if err != nil {
		t.Fatalf("expected the websocket to open, got %v", err)
	}

	select {
	case <-streaming:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first frame")
	}

	handle.Cancel()
	waitDone(t, handle)

	if handle.Err() != nil {
		t.Fatalf("expected cancellation to settle without error, got %v", handle.Err())
	}
	select {
	case err := <-errored:
		t.Fatalf("expected no error callback on cancellation, got %v", err)
	default:
	}
}

// Package wire interprets runtime stream frames as turn-output events.
//
// Decoding is tolerant by design: a malformed payload or unknown event type
// costs exactly that one frame, never the stream. Frames that decode to
// nothing are logged and dropped.
package wire

import (
	"encoding/json"

	"github.com/aria-runtime/aria-go/core/events"
	"github.com/aria-runtime/aria-go/core/sse"
	"github.com/aria-runtime/aria-go/internal/jsonvalue"
	"github.com/google/uuid"
)

// Decoder maps frames onto the closed set of turn-output event variants.
type Decoder struct{}

// Decode interprets the frame's data as JSON according to its event type.
// The second result is false when the frame produced no event.
func (Decoder) Decode(frame sse.Frame) (events.Event, bool) {
	switch frame.Event {
	case EventMessage:
		return decodeMessage(frame.Data)
	case EventToolCall:
		return decodeToolCall(frame.Data)
	case EventToolResult:
		return decodeToolResult(frame.Data)
	case EventFinalResponse:
		return decodeFinalResponse(frame.Data)
	case EventError:
		return decodeError(frame.Data)
	}

	logger.Warn("ignoring frame with unknown event type", "event", frame.Event)
	return nil, false
}

func decodeMessage(data string) (events.Event, bool) {
	var payload messagePayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		logger.Warn("dropping malformed message frame", "error", err)
		return nil, false
	}

	return events.NewMessage(payload.ID, events.ParseRole(payload.Role), payload.Content, payload.Metadata), true
}

func decodeToolCall(data string) (events.Event, bool) {
	var payload toolCallPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		logger.Warn("dropping malformed tool_call frame", "error", err)
		return nil, false
	}

	parameters := make(map[string]string, len(payload.Parameters))
	for name, value := range payload.Parameters {
		parameters[name] = stringify(value)
	}

	// The wire payload carries no identifier for the call, so synthesize
	// one; the paired tool_result is matched positionally by the caller.
	return events.NewToolCall(uuid.NewString(), payload.ToolName, parameters), true
}

func decodeToolResult(data string) (events.Event, bool) {
	var payload toolResultPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		logger.Warn("dropping malformed tool_result frame", "error", err)
		return nil, false
	}

	output, err := json.MarshalIndent(payload.Result, "", "  ")
	if err != nil {
		logger.Warn("dropping tool_result frame with unserializable result", "error", err)
		return nil, false
	}

	return events.NewToolResult(uuid.NewString(), payload.ToolName, string(output), payload.Success, ""), true
}

func decodeFinalResponse(data string) (events.Event, bool) {
	var payload finalResponsePayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		logger.Warn("dropping malformed final_response frame", "error", err)
		return nil, false
	}

	return events.NewFinalResponse(payload.Content), true
}

// decodeError folds a runtime error frame into an assistant message with an
// error marker, so sinks handle one uniform event vocabulary.
func decodeError(data string) (events.Event, bool) {
	var payload errorPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		logger.Warn("dropping malformed error frame", "error", err)
		return nil, false
	}

	if payload.Message == "" {
		logger.Warn("dropping error frame without message", "data", data)
		return nil, false
	}

	return events.NewMessage("", events.RoleAssistant, "Error: "+payload.Message, map[string]jsonvalue.Value{
		"isFinal":     jsonvalue.Bool(true),
		"messageType": jsonvalue.String("error"),
	}), true
}

// stringify renders a tool parameter for display: string values verbatim,
// everything else as compact JSON.
func stringify(value jsonvalue.Value) string {
	if text, ok := value.AsString(); ok {
		return text
	}

	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(data)
}

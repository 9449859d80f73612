package wire

import "github.com/aria-runtime/aria-go/internal/jsonvalue"

// Event type tags carried on the `event:` line of runtime streams.
const (
	EventMessage       = "message"
	EventToolCall      = "tool_call"
	EventToolResult    = "tool_result"
	EventFinalResponse = "final_response"
	EventError         = "error"
)

type messagePayload struct {
	ID       string                     `json:"id"`
	Role     string                     `json:"role"`
	Content  string                     `json:"content"`
	Metadata map[string]jsonvalue.Value `json:"metadata,omitempty"`
}

type toolCallPayload struct {
	ToolName   string                     `json:"tool_name"`
	Parameters map[string]jsonvalue.Value `json:"parameters_json"`
}

type toolResultPayload struct {
	ToolName string          `json:"tool_name"`
	Result   jsonvalue.Value `json:"result_json"`
	Success  bool            `json:"success"`
}

type finalResponsePayload struct {
	Content string `json:"content"`
}

type errorPayload struct {
	Message string `json:"message"`
}

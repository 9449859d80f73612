package events

const (
	// KindToolCall identifies a tool invocation requested by the assistant.
	KindToolCall Kind = "turn_output.tool_call"
	// KindToolResult identifies the outcome of a tool invocation.
	KindToolResult Kind = "turn_output.tool_result"
)

// ToolCall marks the assistant invoking a tool.
type ToolCall struct {
	Base
	ID         string
	ToolName   string
	Parameters map[string]string
}

func (t ToolCall) String() string { return "call " + t.ToolName }

// NewToolCall creates a tool call event.
func NewToolCall(id, toolName string, parameters map[string]string) ToolCall {
	return ToolCall{Base: NewBase(KindToolCall), ID: id, ToolName: toolName, Parameters: parameters}
}

// ToolResult carries the outcome of a tool invocation.
type ToolResult struct {
	Base
	ToolCallID string
	ToolName   string
	Output     string
	Success    bool
	Error      string
}

func (t ToolResult) String() string { return t.ToolName + " result" }

// NewToolResult creates a tool result event.
func NewToolResult(toolCallID, toolName, output string, success bool, errorText string) ToolResult {
	return ToolResult{
		Base:       NewBase(KindToolResult),
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Output:     output,
		Success:    success,
		Error:      errorText,
	}
}

package events

import (
	"strings"

	"github.com/aria-runtime/aria-go/internal/jsonvalue"
)

// KindMessage identifies a conversational message streamed during a turn.
const KindMessage Kind = "turn_output.message"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleThought   Role = "thought"
	RoleTool      Role = "tool"
)

// ParseRole maps a wire role string onto a Role, case-insensitively.
// Unrecognized values fall back to RoleAssistant.
func ParseRole(role string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(role))) {
	case RoleSystem:
		return RoleSystem
	case RoleUser:
		return RoleUser
	case RoleAssistant:
		return RoleAssistant
	case RoleThought:
		return RoleThought
	case RoleTool:
		return RoleTool
	}
	return RoleAssistant
}

// Message carries one conversational message produced during a turn.
type Message struct {
	Base
	ID       string
	Role     Role
	Content  string
	Metadata map[string]jsonvalue.Value
}

func (m Message) String() string { return m.Content }

// NewMessage creates a message event.
func NewMessage(id string, role Role, content string, metadata map[string]jsonvalue.Value) Message {
	return Message{Base: NewBase(KindMessage), ID: id, Role: role, Content: content, Metadata: metadata}
}

// IsErrorMarker reports whether the message stands in for a runtime error
// frame rather than genuine assistant output.
func (m Message) IsErrorMarker() bool {
	value, ok := m.Metadata["messageType"]
	if !ok {
		return false
	}
	messageType, _ := value.AsString()
	return messageType == "error"
}

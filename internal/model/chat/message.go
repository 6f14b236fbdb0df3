package chat

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleData      Role = "data"
)

// Message is one entry of the chat transcript exchanged with the client.
type Message struct {
	ID              string           `json:"id" yaml:"id"`
	Role            Role             `json:"role" yaml:"role"`
	Content         string           `json:"content" yaml:"content"`
	ToolInvocations []ToolInvocation `json:"toolInvocations,omitempty" yaml:"toolInvocations,omitempty"`
	Parts           []Part           `json:"parts,omitempty" yaml:"parts,omitempty"`
	CreatedAt       time.Time        `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// PartType tags the ordered pieces an assistant message was built from.
type PartType string

const (
	PartText           PartType = "text"
	PartToolInvocation PartType = "tool-invocation"
	PartStepStart      PartType = "step-start"
)

// Part records one piece of an assistant message in arrival order.
type Part struct {
	Type           PartType        `json:"type" yaml:"type"`
	Text           string          `json:"text,omitempty" yaml:"text,omitempty"`
	ToolInvocation *ToolInvocation `json:"toolInvocation,omitempty" yaml:"toolInvocation,omitempty"`
}

// InvocationState is the lifecycle of a tool invocation. It only moves forward.
type InvocationState string

const (
	StateCall   InvocationState = "call"
	StateResult InvocationState = "result"
)

// ToolInvocation is a single tool call requested by the model.
type ToolInvocation struct {
	ToolName   string          `json:"toolName" yaml:"toolName"`
	ToolCallID string          `json:"toolCallId" yaml:"toolCallId"`
	State      InvocationState `json:"state" yaml:"state"`
	Args       json.RawMessage `json:"args,omitempty" yaml:"-"`
	Result     json.RawMessage `json:"result,omitempty" yaml:"-"`
	Error      string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the tool produced an error instead of a result.
func (t ToolInvocation) Failed() bool {
	return t.State == StateResult && t.Error != ""
}

// TextContent concatenates the text parts, or falls back to Content.
func (m Message) TextContent() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

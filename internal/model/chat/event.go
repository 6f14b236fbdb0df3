package chat

// EventType enumerates the frames relayed from the completion stream.
type EventType string

const (
	EventStart      EventType = "start"
	EventTextDelta  EventType = "text-delta"
	EventToolCall   EventType = "tool-call"
	EventToolResult EventType = "tool-result"
	EventFinish     EventType = "finish"
	EventError      EventType = "error"
)

// Finish reasons carried by EventFinish.
const (
	FinishStop     = "stop"
	FinishMaxSteps = "max-steps"
	FinishError    = "error"
)

// Event is a single frame of the completion stream. The same shape is used
// over SSE and WebSocket.
type Event struct {
	Type           EventType       `json:"type"`
	MessageID      string          `json:"messageId,omitempty"`
	Delta          string          `json:"delta,omitempty"`
	ToolInvocation *ToolInvocation `json:"toolInvocation,omitempty"`
	FinishReason   string          `json:"finishReason,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// Request is the body accepted by the chat endpoints.
type Request struct {
	Messages []Message `json:"messages"`
}

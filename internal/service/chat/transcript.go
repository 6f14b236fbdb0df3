package chat

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dalio-ai/dalio/backend/internal/model/chat"
)

var (
	ErrNoOpenMessage      = errors.New("no open assistant message")
	ErrInvocationNotFound = errors.New("tool invocation not found")
	ErrInvalidTransition  = errors.New("invalid tool invocation transition")
	ErrUnknownEvent       = errors.New("unknown stream event")
)

// Transcript is the client-side conversation state. Messages are only ever
// appended; the open assistant message accepts stream events until finish.
type Transcript struct {
	mu       sync.RWMutex
	messages []chat.Message
	open     int
	now      func() time.Time
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{
		messages: make([]chat.Message, 0, 16),
		open:     -1,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Append adds a complete message authored by role.
func (t *Transcript) Append(role chat.Role, content string) chat.Message {
	msg := chat.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: t.now(),
	}

	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()

	return msg
}

// Apply folds one stream event into the transcript.
func (t *Transcript) Apply(ev chat.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case chat.EventStart:
		id := ev.MessageID
		if id == "" {
			id = uuid.NewString()
		}
		t.messages = append(t.messages, chat.Message{
			ID:        id,
			Role:      chat.RoleAssistant,
			CreatedAt: t.now(),
		})
		t.open = len(t.messages) - 1
		return nil

	case chat.EventTextDelta:
		msg, err := t.openMessage()
		if err != nil {
			return err
		}
		appendText(msg, ev.Delta)
		return nil

	case chat.EventToolCall:
		msg, err := t.openMessage()
		if err != nil {
			return err
		}
		return addInvocation(msg, ev.ToolInvocation)

	case chat.EventToolResult:
		msg, err := t.openMessage()
		if err != nil {
			return err
		}
		return resolveInvocation(msg, ev.ToolInvocation)

	case chat.EventFinish, chat.EventError:
		t.open = -1
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Type)
}

func (t *Transcript) openMessage() (*chat.Message, error) {
	if t.open < 0 || t.open >= len(t.messages) {
		return nil, ErrNoOpenMessage
	}
	return &t.messages[t.open], nil
}

func appendText(msg *chat.Message, delta string) {
	if delta == "" {
		return
	}
	msg.Content += delta

	n := len(msg.Parts)
	if n > 0 && msg.Parts[n-1].Type == chat.PartText {
		msg.Parts[n-1].Text += delta
		return
	}
	if n > 0 && msg.Parts[n-1].Type == chat.PartToolInvocation {
		msg.Parts = append(msg.Parts, chat.Part{Type: chat.PartStepStart})
	}
	msg.Parts = append(msg.Parts, chat.Part{Type: chat.PartText, Text: delta})
}

func addInvocation(msg *chat.Message, inv *chat.ToolInvocation) error {
	if inv == nil || inv.ToolCallID == "" {
		return fmt.Errorf("%w: tool call without id", ErrInvalidTransition)
	}
	if inv.State != chat.StateCall {
		return fmt.Errorf("%w: tool call %s arrived in state %s", ErrInvalidTransition, inv.ToolCallID, inv.State)
	}
	if findInvocation(msg, inv.ToolCallID) >= 0 {
		return fmt.Errorf("%w: tool call %s already exists", ErrInvalidTransition, inv.ToolCallID)
	}

	call := *inv
	call.Result = nil
	call.Error = ""
	msg.ToolInvocations = append(msg.ToolInvocations, call)
	partCopy := call
	msg.Parts = append(msg.Parts, chat.Part{Type: chat.PartToolInvocation, ToolInvocation: &partCopy})
	return nil
}

func resolveInvocation(msg *chat.Message, inv *chat.ToolInvocation) error {
	if inv == nil {
		return fmt.Errorf("%w: empty tool result", ErrInvocationNotFound)
	}
	idx := findInvocation(msg, inv.ToolCallID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrInvocationNotFound, inv.ToolCallID)
	}

	current := &msg.ToolInvocations[idx]
	if current.State != chat.StateCall {
		return fmt.Errorf("%w: tool call %s already resolved", ErrInvalidTransition, inv.ToolCallID)
	}
	current.State = chat.StateResult
	current.Result = inv.Result
	current.Error = inv.Error

	for i := range msg.Parts {
		p := &msg.Parts[i]
		if p.Type == chat.PartToolInvocation && p.ToolInvocation != nil && p.ToolInvocation.ToolCallID == inv.ToolCallID {
			resolved := *current
			p.ToolInvocation = &resolved
		}
	}
	return nil
}

func findInvocation(msg *chat.Message, callID string) int {
	for i, existing := range msg.ToolInvocations {
		if existing.ToolCallID == callID {
			return i
		}
	}
	return -1
}

// Streaming reports whether an assistant message is still open.
func (t *Transcript) Streaming() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.open >= 0
}

// Messages returns a deep copy of the transcript.
func (t *Transcript) Messages() []chat.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	copied := make([]chat.Message, len(t.messages))
	for i, msg := range t.messages {
		copied[i] = cloneMessage(msg)
	}
	return copied
}

// Last returns a copy of the most recent message.
func (t *Transcript) Last() (chat.Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.messages) == 0 {
		return chat.Message{}, false
	}
	return cloneMessage(t.messages[len(t.messages)-1]), true
}

// Reset drops every message.
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.messages = t.messages[:0]
	t.open = -1
	t.mu.Unlock()
}

func cloneMessage(msg chat.Message) chat.Message {
	out := msg
	if msg.ToolInvocations != nil {
		out.ToolInvocations = append([]chat.ToolInvocation(nil), msg.ToolInvocations...)
	}
	if msg.Parts != nil {
		out.Parts = make([]chat.Part, len(msg.Parts))
		for i, p := range msg.Parts {
			out.Parts[i] = p
			if p.ToolInvocation != nil {
				inv := *p.ToolInvocation
				out.Parts[i].ToolInvocation = &inv
			}
		}
	}
	return out
}

// FollowUpText returns the prose written after the last tool invocation of
// msg, or all of its text when no tool was used.
func FollowUpText(msg chat.Message) string {
	if len(msg.Parts) == 0 {
		return strings.TrimSpace(msg.Content)
	}

	last := -1
	for i, p := range msg.Parts {
		if p.Type == chat.PartToolInvocation {
			last = i
		}
	}

	var b strings.Builder
	for _, p := range msg.Parts[last+1:] {
		if p.Type == chat.PartText {
			b.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

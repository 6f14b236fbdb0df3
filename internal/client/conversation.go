package client

import (
	"context"
	"errors"

	"github.com/dalio-ai/dalio/backend/internal/model/chat"
	chatService "github.com/dalio-ai/dalio/backend/internal/service/chat"
)

// Transport sends a transcript and reports the resulting events.
type Transport interface {
	Turn(ctx context.Context, messages []chat.Message, fn Handler) error
}

// SSE streams turns over POST /api/chat.
type SSE struct{ *Client }

// Turn implements Transport.
func (s SSE) Turn(ctx context.Context, messages []chat.Message, fn Handler) error {
	return s.Stream(ctx, messages, fn)
}

// Turn implements Transport over an open WebSocket.
func (s *Session) Turn(_ context.Context, messages []chat.Message, fn Handler) error {
	return s.Send(messages, fn)
}

// Conversation keeps a local transcript in sync with the server's events.
type Conversation struct {
	transport  Transport
	transcript *chatService.Transcript
}

// NewConversation starts an empty conversation.
func NewConversation(transport Transport) *Conversation {
	return &Conversation{transport: transport, transcript: chatService.NewTranscript()}
}

// Ask appends a user message, runs a turn and applies every event to the
// transcript before handing it to fn. fn may be nil.
func (c *Conversation) Ask(ctx context.Context, text string, fn Handler) (chat.Message, error) {
	c.transcript.Append(chat.RoleUser, text)

	err := c.transport.Turn(ctx, c.transcript.Messages(), func(ev chat.Event) error {
		if err := c.transcript.Apply(ev); err != nil {
			return err
		}
		if fn != nil {
			return fn(ev)
		}
		return nil
	})

	last, ok := c.transcript.Last()
	if err != nil {
		if c.transcript.Streaming() {
			_ = c.transcript.Apply(chat.Event{Type: chat.EventError, Error: err.Error()})
		}
		return last, err
	}
	if !ok || last.Role != chat.RoleAssistant {
		return chat.Message{}, errors.New("no assistant reply")
	}
	return last, nil
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []chat.Message {
	return c.transcript.Messages()
}

// Streaming reports whether an assistant message is still open.
func (c *Conversation) Streaming() bool {
	return c.transcript.Streaming()
}

// Reset clears the transcript.
func (c *Conversation) Reset() {
	c.transcript.Reset()
}

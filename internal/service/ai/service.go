package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/dalio-ai/dalio/backend/internal/config"
	"github.com/dalio-ai/dalio/backend/internal/model/chat"
	"github.com/dalio-ai/dalio/backend/internal/model/index"
)

var (
	ErrEmptyMessages    = errors.New("messages are required")
	ErrToolsUnsupported = errors.New("chat model does not support tool calling")
)

// Emitter receives stream events in order. Returning an error aborts the run.
type Emitter func(chat.Event) error

// Toolset is what the orchestration loop needs from the tool registry.
type Toolset interface {
	ToolInfos() []*schema.ToolInfo
	Invoke(ctx context.Context, name, argumentsInJSON string) (json.RawMessage, error)
}

// Service orchestrates tool-augmented chat and document answers over a chat model.
type Service struct {
	chatModel model.BaseChatModel
	toolModel model.BaseChatModel
	toolset   Toolset
	prompts   *PromptManager
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService binds the toolset to chatModel and compiles the document chain.
func NewService(ctx context.Context, chatModel model.BaseChatModel, toolset Toolset, indices index.Store, cfg config.AIConfig) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	toolModel, err := bindTools(chatModel, toolset.ToolInfos())
	if err != nil {
		return nil, err
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("context", true),
		schema.MessagesPlaceholder("history", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile document chain: %w", err)
	}

	if cfg.MaxSteps < 1 {
		cfg.MaxSteps = 1
	}

	return &Service{
		chatModel: chatModel,
		toolModel: toolModel,
		toolset:   toolset,
		prompts:   NewPromptManager(indices),
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// StreamingEnabled reports whether model output is streamed token by token.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// ChatModel returns the underlying model without tools bound.
func (s *Service) ChatModel() model.BaseChatModel {
	return s.chatModel
}

// RunChat answers the transcript, letting the model call tools for up to
// MaxSteps rounds. Every event is passed to emit as it happens; a failure is
// emitted as an error event before being returned.
func (s *Service) RunChat(ctx context.Context, messages []chat.Message, emit Emitter) error {
	if len(messages) == 0 {
		return ErrEmptyMessages
	}

	messageID := uuid.NewString()
	if err := emit(chat.Event{Type: chat.EventStart, MessageID: messageID}); err != nil {
		return err
	}

	input := make([]*schema.Message, 0, len(messages)+8)
	input = append(input, schema.SystemMessage(s.prompts.BuildSystemPrompt()))
	input = append(input, buildHistoryMessages(messages, s.cfg.HistoryLimit)...)

	for step := 0; step < s.cfg.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		reply, err := s.runStep(ctx, input, messageID, emit)
		if err != nil {
			return s.fail(messageID, emit, err)
		}

		if len(reply.ToolCalls) == 0 {
			log.Printf("[ai] chat finished message=%s steps=%d", messageID, step+1)
			return emit(chat.Event{Type: chat.EventFinish, MessageID: messageID, FinishReason: chat.FinishStop})
		}

		for i := range reply.ToolCalls {
			if reply.ToolCalls[i].ID == "" {
				reply.ToolCalls[i].ID = "call_" + uuid.NewString()
			}
		}
		input = append(input, reply)

		for _, call := range reply.ToolCalls {
			content, err := s.invokeTool(ctx, messageID, call, emit)
			if err != nil {
				return err
			}
			input = append(input, schema.ToolMessage(content, call.ID))
		}
	}

	log.Printf("[ai] chat hit step budget message=%s steps=%d", messageID, s.cfg.MaxSteps)
	return emit(chat.Event{Type: chat.EventFinish, MessageID: messageID, FinishReason: chat.FinishMaxSteps})
}

// invokeTool runs one call and emits its call/result pair. Tool failures are
// reported in the result, never returned; only emit errors abort.
func (s *Service) invokeTool(ctx context.Context, messageID string, call schema.ToolCall, emit Emitter) (string, error) {
	invocation := chat.ToolInvocation{
		ToolName:   call.Function.Name,
		ToolCallID: call.ID,
		State:      chat.StateCall,
		Args:       normalizeArguments(call.Function.Arguments),
	}
	callEvent := invocation
	if err := emit(chat.Event{Type: chat.EventToolCall, MessageID: messageID, ToolInvocation: &callEvent}); err != nil {
		return "", err
	}

	result, err := s.toolset.Invoke(ctx, call.Function.Name, string(invocation.Args))
	invocation.State = chat.StateResult
	if err != nil {
		log.Printf("[ai] tool %s failed: %v", call.Function.Name, err)
		invocation.Error = err.Error()
	} else if json.Valid(result) {
		invocation.Result = result
	} else {
		encoded, _ := json.Marshal(string(result))
		invocation.Result = encoded
	}

	resultEvent := invocation
	if err := emit(chat.Event{Type: chat.EventToolResult, MessageID: messageID, ToolInvocation: &resultEvent}); err != nil {
		return "", err
	}
	return toolContent(invocation), nil
}

func (s *Service) runStep(ctx context.Context, input []*schema.Message, messageID string, emit Emitter) (*schema.Message, error) {
	if !s.StreamingEnabled() {
		reply, err := s.toolModel.Generate(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to generate reply: %w", err)
		}
		if reply.Content != "" {
			if err := emit(chat.Event{Type: chat.EventTextDelta, MessageID: messageID, Delta: reply.Content}); err != nil {
				return nil, err
			}
		}
		return reply, nil
	}

	stream, err := s.toolModel.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream reply: %w", err)
	}
	return relayStream(stream, messageID, emit)
}

// relayStream forwards text chunks and returns the merged message.
func relayStream(stream *schema.StreamReader[*schema.Message], messageID string, emit Emitter) (*schema.Message, error) {
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 16)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			if err := emit(chat.Event{Type: chat.EventTextDelta, MessageID: messageID, Delta: chunk.Content}); err != nil {
				return nil, err
			}
		}
	}

	if len(chunks) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	return schema.ConcatMessages(chunks)
}

func (s *Service) fail(messageID string, emit Emitter, cause error) error {
	log.Printf("[ai] chat failed message=%s: %v", messageID, cause)
	if err := emit(chat.Event{Type: chat.EventError, MessageID: messageID, Error: cause.Error()}); err != nil {
		log.Printf("[ai] failed to emit error event: %v", err)
	}
	return cause
}

// DocumentPrompt is a grounded question over extracted document text.
type DocumentPrompt struct {
	System   string
	Context  []string
	Messages []chat.Message
}

// AnswerDocument streams an answer without tools, using the same event contract as RunChat.
func (s *Service) AnswerDocument(ctx context.Context, p DocumentPrompt, emit Emitter) error {
	if len(p.Messages) == 0 {
		return ErrEmptyMessages
	}

	contextMessages := make([]*schema.Message, 0, len(p.Context))
	for _, c := range p.Context {
		contextMessages = append(contextMessages, schema.SystemMessage(c))
	}

	input := map[string]any{
		"system":  p.System,
		"context": contextMessages,
		"history": buildHistoryMessages(p.Messages, s.cfg.HistoryLimit),
	}

	messageID := uuid.NewString()
	if err := emit(chat.Event{Type: chat.EventStart, MessageID: messageID}); err != nil {
		return err
	}

	if !s.StreamingEnabled() {
		reply, err := s.chain.Invoke(ctx, input)
		if err != nil {
			return s.fail(messageID, emit, fmt.Errorf("failed to run document chain: %w", err))
		}
		if err := emit(chat.Event{Type: chat.EventTextDelta, MessageID: messageID, Delta: reply.Content}); err != nil {
			return err
		}
		return emit(chat.Event{Type: chat.EventFinish, MessageID: messageID, FinishReason: chat.FinishStop})
	}

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return s.fail(messageID, emit, fmt.Errorf("failed to stream document chain: %w", err))
	}
	if _, err := relayStream(stream, messageID, emit); err != nil {
		return s.fail(messageID, emit, err)
	}
	return emit(chat.Event{Type: chat.EventFinish, MessageID: messageID, FinishReason: chat.FinishStop})
}

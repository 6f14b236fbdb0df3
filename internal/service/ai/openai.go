package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/dalio-ai/dalio/backend/internal/config"
)

var errStreamClosed = errors.New("stream closed by reader")

// OpenAIModel adapts a langchaingo model to eino's tool calling interface.
type OpenAIModel struct {
	llm         llms.Model
	model       string
	specs       SpecSource
	tools       []llms.Tool
	temperature *float64
	topP        *float64
	maxTokens   *int
}

var _ model.ToolCallingChatModel = (*OpenAIModel)(nil)

// NewOpenAIModel creates an OpenAI-compatible model from the configuration.
func NewOpenAIModel(cfg config.AIConfig, specs SpecSource) (*OpenAIModel, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.OpenAIModel),
		openai.WithToken(cfg.OpenAIAPIKey),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	m := newOpenAIModel(client, cfg.OpenAIModel, specs)
	m.temperature = cfg.Temperature
	m.topP = cfg.TopP
	m.maxTokens = cfg.MaxTokens
	return m, nil
}

func newOpenAIModel(llm llms.Model, modelName string, specs SpecSource) *OpenAIModel {
	return &OpenAIModel{llm: llm, model: modelName, specs: specs}
}

// WithTools returns a copy of the model that declares tools on every call.
func (m *OpenAIModel) WithTools(infos []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	declared := make([]llms.Tool, 0, len(infos))
	for _, info := range infos {
		spec, ok := m.specs.Spec(info.Name)
		if !ok {
			return nil, fmt.Errorf("no declaration for tool %s", info.Name)
		}
		declared = append(declared, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        info.Name,
				Description: info.Desc,
				Parameters:  spec.JSONSchema(),
			},
		})
	}

	clone := *m
	clone.tools = declared
	return &clone, nil
}

// Generate implements model.BaseChatModel.
func (m *OpenAIModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	resp, err := m.llm.GenerateContent(ctx, toLLMMessages(input), m.callOptions()...)
	if err != nil {
		return nil, err
	}
	return fromContentResponse(resp)
}

// Stream implements model.BaseChatModel. Text arrives as it is produced; tool
// calls are delivered in a final chunk once the response is complete.
func (m *OpenAIModel) Stream(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	messages := toLLMMessages(input)
	sr, sw := schema.Pipe[*schema.Message](16)

	go func() {
		defer sw.Close()

		streamed := false
		opts := append(m.callOptions(), llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 || isToolCallChunk(chunk) {
				return nil
			}
			streamed = true
			if closed := sw.Send(&schema.Message{Role: schema.Assistant, Content: string(chunk)}, nil); closed {
				return errStreamClosed
			}
			return nil
		}))

		resp, err := m.llm.GenerateContent(ctx, messages, opts...)
		if err != nil {
			sw.Send(nil, err)
			return
		}

		final, err := fromContentResponse(resp)
		if err != nil {
			sw.Send(nil, err)
			return
		}
		if streamed {
			final.Content = ""
		}
		if final.Content != "" || len(final.ToolCalls) > 0 {
			sw.Send(final, nil)
		}
	}()

	return sr, nil
}

func (m *OpenAIModel) callOptions() []llms.CallOption {
	opts := make([]llms.CallOption, 0, 6)
	opts = append(opts, llms.WithModel(m.model))
	if m.temperature != nil {
		opts = append(opts, llms.WithTemperature(*m.temperature))
	}
	if m.topP != nil {
		opts = append(opts, llms.WithTopP(*m.topP))
	}
	if m.maxTokens != nil {
		opts = append(opts, llms.WithMaxTokens(*m.maxTokens))
	}
	if len(m.tools) > 0 {
		opts = append(opts, llms.WithTools(m.tools))
	}
	return opts
}

func toLLMMessages(input []*schema.Message) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(input))
	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, msg.Content))
		case schema.User:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))
		case schema.Assistant:
			var parts []llms.ContentPart
			if msg.Content != "" {
				parts = append(parts, llms.TextPart(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, llms.ToolCall{
					ID:   call.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      call.Function.Name,
						Arguments: call.Function.Arguments,
					},
				})
			}
			if len(parts) == 0 {
				parts = append(parts, llms.TextPart(" "))
			}
			messages = append(messages, llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts})
		case schema.Tool:
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{ToolCallID: msg.ToolCallID, Content: msg.Content},
				},
			})
		}
	}
	return messages
}

func fromContentResponse(resp *llms.ContentResponse) (*schema.Message, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}
	choice := resp.Choices[0]

	calls := make([]schema.ToolCall, 0, len(choice.ToolCalls))
	for i, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		idx := i
		calls = append(calls, schema.ToolCall{
			Index: &idx,
			ID:    tc.ID,
			Type:  "function",
			Function: schema.FunctionCall{
				Name:      tc.FunctionCall.Name,
				Arguments: tc.FunctionCall.Arguments,
			},
		})
	}

	return schema.AssistantMessage(choice.Content, calls), nil
}

// isToolCallChunk reports whether a streamed chunk is a tool call delta,
// which langchaingo delivers as a JSON array through the streaming callback.
func isToolCallChunk(chunk []byte) bool {
	trimmed := strings.TrimSpace(string(chunk))
	if !strings.HasPrefix(trimmed, "[") {
		return false
	}
	var deltas []map[string]any
	return json.Unmarshal([]byte(trimmed), &deltas) == nil
}

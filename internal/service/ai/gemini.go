package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/dalio-ai/dalio/backend/internal/config"
	"github.com/dalio-ai/dalio/backend/internal/service/tools"
)

// geminiBackend is the slice of the genai client the adapter uses.
type geminiBackend interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// GeminiModel adapts the Gemini API to eino's tool calling interface.
type GeminiModel struct {
	backend     geminiBackend
	model       string
	specs       SpecSource
	tools       []*genai.FunctionDeclaration
	temperature *float32
	topP        *float32
}

var _ model.ToolCallingChatModel = (*GeminiModel)(nil)

// NewGeminiModel creates a Gemini model from the configuration.
func NewGeminiModel(ctx context.Context, cfg config.AIConfig, specs SpecSource) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	m := &GeminiModel{backend: client.Models, model: cfg.GeminiModel, specs: specs}
	if cfg.Temperature != nil {
		val := float32(*cfg.Temperature)
		m.temperature = &val
	}
	if cfg.TopP != nil {
		val := float32(*cfg.TopP)
		m.topP = &val
	}
	return m, nil
}

// WithTools returns a copy of the model that declares tools on every call.
func (m *GeminiModel) WithTools(infos []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	declared := make([]*genai.FunctionDeclaration, 0, len(infos))
	for _, info := range infos {
		spec, ok := m.specs.Spec(info.Name)
		if !ok {
			return nil, fmt.Errorf("no declaration for tool %s", info.Name)
		}
		declared = append(declared, &genai.FunctionDeclaration{
			Name:        info.Name,
			Description: info.Desc,
			Parameters:  genaiParameters(spec),
		})
	}

	clone := *m
	clone.tools = declared
	return &clone, nil
}

// Generate implements model.BaseChatModel.
func (m *GeminiModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	contents, cfg := m.request(input)
	resp, err := m.backend.GenerateContent(ctx, m.model, contents, cfg)
	if err != nil {
		return nil, err
	}
	return fromGeminiResponse(resp, 0), nil
}

// Stream implements model.BaseChatModel.
func (m *GeminiModel) Stream(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	contents, cfg := m.request(input)
	sr, sw := schema.Pipe[*schema.Message](16)

	go func() {
		defer sw.Close()

		calls := 0
		for resp, err := range m.backend.GenerateContentStream(ctx, m.model, contents, cfg) {
			if err != nil {
				sw.Send(nil, err)
				return
			}
			chunk := fromGeminiResponse(resp, calls)
			calls += len(chunk.ToolCalls)
			if chunk.Content == "" && len(chunk.ToolCalls) == 0 {
				continue
			}
			if closed := sw.Send(chunk, nil); closed {
				return
			}
		}
	}()

	return sr, nil
}

func (m *GeminiModel) request(input []*schema.Message) ([]*genai.Content, *genai.GenerateContentConfig) {
	system, contents := toGeminiContents(input)

	cfg := &genai.GenerateContentConfig{
		Temperature: m.temperature,
		TopP:        m.topP,
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if len(m.tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: m.tools}}
	}
	return contents, cfg
}

// toGeminiContents splits out the system instruction and maps the rest of the
// conversation. Consecutive tool results share one user turn.
func toGeminiContents(input []*schema.Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(input))
	callNames := make(map[string]string)

	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			system = append(system, msg.Content)
		case schema.User:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: msg.Content}}})
		case schema.Assistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				callNames[call.ID] = call.Function.Name
				args := map[string]any{}
				_ = json.Unmarshal([]byte(call.Function.Arguments), &args)
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Function.Name,
					Args: args,
				}})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case schema.Tool:
			part := &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       msg.ToolCallID,
				Name:     callNames[msg.ToolCallID],
				Response: functionResponse(msg.Content),
			}}
			if n := len(contents); n > 0 && isFunctionResponseTurn(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{part}})
		}
	}

	return strings.Join(system, "\n\n"), contents
}

func isFunctionResponseTurn(c *genai.Content) bool {
	if c.Role != "user" || len(c.Parts) == 0 {
		return false
	}
	for _, p := range c.Parts {
		if p.FunctionResponse == nil {
			return false
		}
	}
	return true
}

// functionResponse wraps tool output as the object Gemini expects.
func functionResponse(content string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil && obj != nil {
		return obj
	}
	var value any
	if err := json.Unmarshal([]byte(content), &value); err == nil {
		return map[string]any{"output": value}
	}
	return map[string]any{"output": content}
}

func fromGeminiResponse(resp *genai.GenerateContentResponse, firstIndex int) *schema.Message {
	msg := schema.AssistantMessage("", nil)
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return msg
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			args, _ := json.Marshal(part.FunctionCall.Args)
			idx := firstIndex + len(msg.ToolCalls)
			msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
				Index: &idx,
				ID:    part.FunctionCall.ID,
				Type:  "function",
				Function: schema.FunctionCall{
					Name:      part.FunctionCall.Name,
					Arguments: string(args),
				},
			})
		}
	}
	msg.Content = text.String()
	return msg
}

func genaiParameters(spec tools.Spec) *genai.Schema {
	properties := make(map[string]*genai.Schema, len(spec.Params))
	required := make([]string, 0, len(spec.Params))
	for _, p := range spec.Params {
		prop := &genai.Schema{
			Type:        genaiType(p.Type),
			Description: p.Desc,
			Enum:        p.Enum,
		}
		if p.Type == schema.Array && p.ElemType != "" {
			prop.Items = &genai.Schema{Type: genaiType(p.ElemType)}
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: properties,
		Required:   required,
	}
}

func genaiType(t schema.DataType) genai.Type {
	switch t {
	case schema.Number:
		return genai.TypeNumber
	case schema.Integer:
		return genai.TypeInteger
	case schema.Boolean:
		return genai.TypeBoolean
	case schema.Array:
		return genai.TypeArray
	case schema.Object:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

package ai

import (
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/dalio-ai/dalio/backend/internal/model/chat"
)

// buildHistoryMessages converts the client transcript into model messages,
// keeping only the last limit entries when limit is positive. Resolved tool
// invocations are replayed as assistant tool calls followed by their tool
// results; unresolved ones are dropped.
func buildHistoryMessages(messages []chat.Message, limit int) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if limit > 0 && len(messages) > limit {
		startIdx = len(messages) - limit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.TextContent()))
		case chat.RoleSystem:
			history = append(history, schema.SystemMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, assistantHistory(msg)...)
		}
	}

	return history
}

func assistantHistory(msg chat.Message) []*schema.Message {
	var out []*schema.Message

	resolved := make([]chat.ToolInvocation, 0, len(msg.ToolInvocations))
	for _, inv := range invocationsOf(msg) {
		if inv.State == chat.StateResult {
			resolved = append(resolved, inv)
		}
	}

	if len(resolved) > 0 {
		calls := make([]schema.ToolCall, 0, len(resolved))
		for i, inv := range resolved {
			idx := i
			calls = append(calls, schema.ToolCall{
				Index: &idx,
				ID:    inv.ToolCallID,
				Type:  "function",
				Function: schema.FunctionCall{
					Name:      inv.ToolName,
					Arguments: argumentsString(inv.Args),
				},
			})
		}
		out = append(out, schema.AssistantMessage("", calls))
		for _, inv := range resolved {
			out = append(out, schema.ToolMessage(toolContent(inv), inv.ToolCallID))
		}
	}

	if text := strings.TrimSpace(msg.TextContent()); text != "" {
		out = append(out, schema.AssistantMessage(text, nil))
	}
	return out
}

// invocationsOf prefers the flat list and falls back to the parts.
func invocationsOf(msg chat.Message) []chat.ToolInvocation {
	if len(msg.ToolInvocations) > 0 {
		return msg.ToolInvocations
	}
	var out []chat.ToolInvocation
	for _, p := range msg.Parts {
		if p.Type == chat.PartToolInvocation && p.ToolInvocation != nil {
			out = append(out, *p.ToolInvocation)
		}
	}
	return out
}

func argumentsString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

// toolContent is what the model sees as the tool's answer.
func toolContent(inv chat.ToolInvocation) string {
	if inv.Error != "" {
		encoded, _ := json.Marshal(map[string]string{"error": inv.Error})
		return string(encoded)
	}
	if len(inv.Result) == 0 {
		return "{}"
	}
	return string(inv.Result)
}

// normalizeArguments guarantees the arguments can be embedded as raw JSON.
func normalizeArguments(args string) json.RawMessage {
	trimmed := strings.TrimSpace(args)
	if trimmed == "" {
		return json.RawMessage("{}")
	}
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	encoded, _ := json.Marshal(trimmed)
	return encoded
}

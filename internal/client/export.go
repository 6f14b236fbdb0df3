package client

import (
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dalio-ai/dalio/backend/internal/model/chat"
)

type exportedTranscript struct {
	ExportedAt time.Time         `yaml:"exported_at"`
	Messages   []exportedMessage `yaml:"messages"`
}

type exportedMessage struct {
	ID        string         `yaml:"id"`
	Role      chat.Role      `yaml:"role"`
	Content   string         `yaml:"content,omitempty"`
	Tools     []exportedTool `yaml:"tools,omitempty"`
	CreatedAt time.Time      `yaml:"created_at,omitempty"`
}

type exportedTool struct {
	Name   string `yaml:"name"`
	CallID string `yaml:"call_id"`
	State  string `yaml:"state"`
	Args   any    `yaml:"args,omitempty"`
	Result any    `yaml:"result,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// ExportYAML writes the transcript as a YAML document.
func ExportYAML(w io.Writer, messages []chat.Message, now time.Time) error {
	doc := exportedTranscript{ExportedAt: now.UTC(), Messages: make([]exportedMessage, 0, len(messages))}
	for _, msg := range messages {
		out := exportedMessage{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.TextContent(),
			CreatedAt: msg.CreatedAt,
		}
		for _, inv := range invocations(msg) {
			out.Tools = append(out.Tools, exportedTool{
				Name:   inv.ToolName,
				CallID: inv.ToolCallID,
				State:  string(inv.State),
				Args:   decodeRaw(inv.Args),
				Result: decodeRaw(inv.Result),
				Error:  inv.Error,
			})
		}
		doc.Messages = append(doc.Messages, out)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(doc)
}

func invocations(msg chat.Message) []chat.ToolInvocation {
	var out []chat.ToolInvocation
	for _, p := range msg.Parts {
		if p.Type == chat.PartToolInvocation && p.ToolInvocation != nil {
			out = append(out, *p.ToolInvocation)
		}
	}
	if len(out) == 0 {
		return msg.ToolInvocations
	}
	return out
}

func decodeRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

package ai

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dalio-ai/dalio/backend/internal/analysis/topic"
)

// OfflineModel answers from the canned FAQ when no provider is configured.
// It never calls tools.
type OfflineModel struct{}

var _ model.ToolCallingChatModel = (*OfflineModel)(nil)

// NewOfflineModel creates the FAQ responder.
func NewOfflineModel() *OfflineModel {
	return &OfflineModel{}
}

// WithTools ignores the declarations.
func (m *OfflineModel) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// Generate answers the last user message.
func (m *OfflineModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	answer, _ := topic.Answer(lastUserContent(input))
	return schema.AssistantMessage(answer, nil), nil
}

// Stream answers the last user message word by word.
func (m *OfflineModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	answer, _ := topic.Answer(lastUserContent(input))

	words := strings.SplitAfter(answer, " ")
	chunks := make([]*schema.Message, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		chunks = append(chunks, &schema.Message{Role: schema.Assistant, Content: w})
	}
	return schema.StreamReaderFromArray(chunks), nil
}

func lastUserContent(input []*schema.Message) string {
	for i := len(input) - 1; i >= 0; i-- {
		if input[i].Role == schema.User {
			return input[i].Content
		}
	}
	return ""
}

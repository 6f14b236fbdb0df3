package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dalio-ai/dalio/backend/internal/config"
	"github.com/dalio-ai/dalio/backend/internal/service/tools"
)

// SpecSource resolves tool declarations by name for providers that need the
// raw parameter schema.
type SpecSource interface {
	Spec(name string) (tools.Spec, bool)
}

// NewChatModel builds the chat model selected by cfg.Provider. When the
// provider has no credentials the offline FAQ responder is returned.
func NewChatModel(ctx context.Context, cfg config.AIConfig, specs SpecSource) (model.BaseChatModel, error) {
	if !cfg.Enabled() {
		log.Printf("[ai] provider %s not configured, answering from the offline FAQ", cfg.Provider)
		return NewOfflineModel(), nil
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIModel(cfg, specs)
	case config.ProviderGemini:
		return NewGeminiModel(ctx, cfg, specs)
	default:
		return cfg.NewChatModel(ctx)
	}
}

// bindTools returns a model that offers infos on every call.
func bindTools(cm model.BaseChatModel, infos []*schema.ToolInfo) (model.BaseChatModel, error) {
	if len(infos) == 0 {
		return cm, nil
	}

	if tc, ok := cm.(model.ToolCallingChatModel); ok {
		bound, err := tc.WithTools(infos)
		if err != nil {
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
		return bound, nil
	}

	if legacy, ok := cm.(model.ChatModel); ok {
		if err := legacy.BindTools(infos); err != nil {
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
		return legacy, nil
	}

	return nil, ErrToolsUnsupported
}

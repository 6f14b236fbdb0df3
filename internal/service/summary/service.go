package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// Config controls the report summariser.
type Config struct {
	Enabled    bool
	CharBudget int
}

// Source tells whether a report came from the model or the keyword fallback.
type Source string

const (
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
)

// Report is the structured reading of a financial statement.
type Report struct {
	Liquidity       string   `json:"liquidity"`
	Profitability   string   `json:"profitability"`
	Indebtedness    string   `json:"indebtedness"`
	CashFlow        string   `json:"cashFlow"`
	AttentionPoints []string `json:"attentionPoints"`
	Outlook         string   `json:"outlook"`
	Source          Source   `json:"source"`
}

// Service summarises statement text with the chat model and falls back to
// keyword heuristics when the model is unavailable or answers badly.
type Service struct {
	enabled    bool
	summarizer compose.Runnable[map[string]any, *schema.Message]
	charBudget int
}

// NewService creates the summariser. chatModel may be nil.
func NewService(ctx context.Context, chatModel model.BaseChatModel, cfg Config) (*Service, error) {
	charBudget := cfg.CharBudget
	if charBudget <= 0 {
		charBudget = 15000
	}

	svc := &Service{
		enabled:    cfg.Enabled && chatModel != nil,
		charBudget: charBudget,
	}
	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(summarySystemPrompt),
		schema.UserMessage(summaryUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile summary chain: %w", err)
	}

	svc.summarizer = runnable
	return svc, nil
}

// Enabled reports whether the model path is active.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.summarizer != nil
}

// Summarize reads statement text and returns a report. It never fails; the
// heuristic reading is used whenever the model path does not produce one.
func (s *Service) Summarize(ctx context.Context, text string) Report {
	text = strings.TrimSpace(text)
	if !s.Enabled() || text == "" {
		return Heuristic(text)
	}

	runes := []rune(text)
	if len(runes) > s.charBudget {
		text = string(runes[:s.charBudget])
	}

	msg, err := s.summarizer.Invoke(ctx, map[string]any{"document": text})
	if err != nil {
		log.Printf("[summary] model invoke failed, use fallback: %v", err)
		return Heuristic(text)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return Heuristic(text)
	}

	report, err := parseSummaryOutput(msg.Content)
	if err != nil {
		log.Printf("[summary] model output parse failed, use fallback: %v", err)
		return Heuristic(text)
	}
	report.Source = SourceModel
	return *report
}

// parseSummaryOutput extracts the JSON object from the model reply.
func parseSummaryOutput(content string) (*Report, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	report := &Report{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), report); err != nil {
		return nil, err
	}
	if report.Liquidity == "" && report.Profitability == "" && report.Indebtedness == "" && report.CashFlow == "" {
		return nil, fmt.Errorf("summary has no sections")
	}
	return report, nil
}

const summarySystemPrompt = "Você é um analista de demonstrações financeiras de empresas brasileiras. Leia o texto extraído de um balanço e produza um resumo objetivo em português.\nFormato: responda somente com um objeto JSON com os campos liquidity, profitability, indebtedness, cashFlow e outlook (textos curtos) e attentionPoints (lista de textos curtos). Use apenas números presentes no documento. Quando uma seção não puder ser avaliada, escreva \"Não identificado no documento.\". Não escreva nada fora do JSON."

const summaryUserPrompt = "Texto do balanço:\n{document}\n\nGere o JSON do resumo."

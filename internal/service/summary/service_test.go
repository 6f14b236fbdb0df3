package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type stubModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (m *stubModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.input = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *stubModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(context.Background(), input)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

const statement = `A liquidez corrente foi de 1,8 no exercício. O lucro líquido cresceu 12% e a margem EBITDA chegou a 30%.
A dívida líquida recuou para R$ 2 bilhões; o fluxo de caixa das atividades operacionais foi positivo.`

func TestSummarizeUsesModelJSON(t *testing.T) {
	stub := &stubModel{reply: "```json\n{\"liquidity\":\"Boa\",\"profitability\":\"Alta\",\"indebtedness\":\"Baixo\",\"cashFlow\":\"Positivo\",\"attentionPoints\":[\"Capex\"],\"outlook\":\"Estável\"}\n```"}
	svc, err := NewService(context.Background(), stub, Config{Enabled: true, CharBudget: 20})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	report := svc.Summarize(context.Background(), statement)
	if report.Source != SourceModel || report.Liquidity != "Boa" || len(report.AttentionPoints) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	user := stub.input[len(stub.input)-1].Content
	if strings.Contains(user, "fluxo de caixa") {
		t.Fatalf("expected document truncated to the budget, got %q", user)
	}
}

func TestSummarizeFallsBackOnBadOutput(t *testing.T) {
	for _, stub := range []*stubModel{
		{reply: "não sei"},
		{reply: `{"outlook":"ok"}`},
		{err: errors.New("timeout")},
	} {
		svc, err := NewService(context.Background(), stub, Config{Enabled: true})
		if err != nil {
			t.Fatalf("NewService returned error: %v", err)
		}
		if report := svc.Summarize(context.Background(), statement); report.Source != SourceHeuristic {
			t.Fatalf("expected heuristic fallback for %+v, got %s", stub, report.Source)
		}
	}
}

func TestSummarizeWithoutModel(t *testing.T) {
	svc, err := NewService(context.Background(), nil, Config{Enabled: true})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	if svc.Enabled() {
		t.Fatal("expected service disabled without a model")
	}
	if report := svc.Summarize(context.Background(), statement); report.Source != SourceHeuristic {
		t.Fatalf("expected heuristic report, got %s", report.Source)
	}
}

func TestHeuristicPicksSentences(t *testing.T) {
	report := Heuristic(statement)

	if !strings.Contains(report.Liquidity, "liquidez corrente") {
		t.Fatalf("unexpected liquidity %q", report.Liquidity)
	}
	if !strings.Contains(report.Profitability, "lucro líquido") {
		t.Fatalf("unexpected profitability %q", report.Profitability)
	}
	if !strings.Contains(report.Indebtedness, "dívida líquida") {
		t.Fatalf("unexpected indebtedness %q", report.Indebtedness)
	}
	if !strings.Contains(report.CashFlow, "atividades operacionais") {
		t.Fatalf("unexpected cash flow %q", report.CashFlow)
	}
	if len(report.AttentionPoints) != 0 {
		t.Fatalf("expected no attention points, got %v", report.AttentionPoints)
	}
}

func TestHeuristicEmptyText(t *testing.T) {
	report := Heuristic("")
	if report.Liquidity != notFound || len(report.AttentionPoints) != 4 {
		t.Fatalf("unexpected report %+v", report)
	}
}

package market

import (
	"encoding/json"
	"testing"
)

func TestDecodeIncomeStatementIgnoresUnexpectedTypes(t *testing.T) {
	raw := json.RawMessage(`{"ticker":"VALE3","endDate":"2024-12-31","type":"yearly",
		"totalRevenue":{"raw":1},"grossProfit":"12.5","netIncome":7,"ebit":null}`)

	result, err := Decode(string(ToolIncomeStatement), raw)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	s := result.(IncomeStatement)
	if s.Ticker != "VALE3" || s.EndDate != "2024-12-31" {
		t.Fatalf("unexpected header %+v", s)
	}
	if s.TotalRevenue != nil || s.Ebit != nil {
		t.Fatalf("expected unusable lines skipped, got %v %v", s.TotalRevenue, s.Ebit)
	}
	if s.GrossProfit == nil || *s.GrossProfit != 12.5 || s.NetIncome == nil || *s.NetIncome != 7 {
		t.Fatalf("unexpected lines %+v", s)
	}
}

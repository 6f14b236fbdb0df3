package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalio-ai/dalio/backend/internal/config"
	"github.com/dalio-ai/dalio/backend/internal/model/market"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.MarketConfig{BrapiBaseURL: srv.URL, BrapiToken: "secret"}, srv.Client())
}

func TestQuoteReturnsPayloadVerbatim(t *testing.T) {
	body := `{"results":[{"symbol":"PETR4","regularMarketPrice":38.5}],"requestedAt":"2024-05-02T10:00:00Z"}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/quote/PETR4" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("token") != "secret" {
			t.Errorf("expected token query parameter")
		}
		fmt.Fprint(w, body)
	})

	got, err := client.Quote(context.Background(), "petr4")
	if err != nil {
		t.Fatalf("Quote err: %v", err)
	}
	if string(got) != body {
		t.Fatalf("expected verbatim body, got %s", got)
	}
}

func TestQuoteUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.Quote(context.Background(), "PETR4")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestHistoryPivotsAndSortsRows(t *testing.T) {
	// 1704153600 = 2024-01-02, 1704067200 = 2024-01-01 (UTC)
	body := `{"results":[
		{"symbol":"PETR4","historicalDataPrice":[
			{"date":1704153600,"close":37.0},
			{"date":1704067200,"close":36.0}
		]},
		{"symbol":"VALE3","historicalDataPrice":[
			{"date":1704153600,"close":70.0}
		]}
	]}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/quote/PETR4,VALE3" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("range") != "1mo" || r.URL.Query().Get("interval") != "1d" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, body)
	})

	rows, err := client.History(context.Background(), []string{"PETR4", "VALE3"}, "1mo", "1d")
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Date != "2024-01-01" || rows[1].Date != "2024-01-02" {
		t.Fatalf("rows not sorted: %s, %s", rows[0].Date, rows[1].Date)
	}
	if _, ok := rows[0].Prices["VALE3"]; ok {
		t.Fatal("VALE3 should be absent on 2024-01-01")
	}
	if rows[1].Prices["PETR4"] != 37.0 || rows[1].Prices["VALE3"] != 70.0 {
		t.Fatalf("expected merged row, got %+v", rows[1].Prices)
	}
}

func TestPivotHistoryLastWriteWins(t *testing.T) {
	rows := PivotHistory([]AssetHistory{
		{Symbol: "ITUB4", Prices: []PricePoint{{Epoch: 1704067200, Close: 30}, {Epoch: 1704067200 + 3600, Close: 31}}},
	})
	if len(rows) != 1 {
		t.Fatalf("expected a single row, got %d", len(rows))
	}
	if rows[0].Prices["ITUB4"] != 31 {
		t.Fatalf("expected last value 31, got %v", rows[0].Prices["ITUB4"])
	}
}

func TestHistoryRequiresTickers(t *testing.T) {
	client := NewClient(config.MarketConfig{BrapiBaseURL: "http://unused"}, nil)
	if _, err := client.History(context.Background(), []string{" "}, "", ""); !errors.Is(err, ErrNoTickers) {
		t.Fatalf("expected ErrNoTickers, got %v", err)
	}
}

const statementBody = `{"results":[{"symbol":"PETR4","incomeStatementHistory":[
	{"endDate":"2023-12-31","totalRevenue":511994000000,"netIncome":124606000000},
	{"type":"yearly","symbol":"PETR4","endDate":"2022-12-31","totalRevenue":"641256000000","netIncome":188328000000,"updatedAt":"2023-03-01","basicEarningsPerCommonShare":1.5}
]}]}`

func TestIncomeStatementExactMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("modules") != "incomeStatementHistory" {
			t.Errorf("expected modules query, got %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, statementBody)
	})

	raw, err := client.IncomeStatement(context.Background(), "PETR4", "2022-12-31")
	if err != nil {
		t.Fatalf("IncomeStatement err: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	want := map[string]any{
		"ticker":                      "PETR4",
		"type":                        "yearly",
		"symbol":                      "PETR4",
		"endDate":                     "2022-12-31",
		"totalRevenue":                "641256000000",
		"netIncome":                   float64(188328000000),
		"updatedAt":                   "2023-03-01",
		"basicEarningsPerCommonShare": 1.5,
	}
	if len(entry) != len(want) {
		t.Fatalf("expected %d fields, got %v", len(want), entry)
	}
	for key, value := range want {
		if entry[key] != value {
			t.Fatalf("field %s: expected %v, got %v", key, value, entry[key])
		}
	}

	result, err := market.Decode(string(market.ToolIncomeStatement), raw)
	if err != nil {
		t.Fatalf("Decode err: %v", err)
	}
	statement, ok := result.(market.IncomeStatement)
	if !ok {
		t.Fatalf("expected IncomeStatement, got %T", result)
	}
	if statement.Ticker != "PETR4" || statement.NetIncome == nil || *statement.NetIncome != 188328000000 {
		t.Fatalf("unexpected statement %+v", statement)
	}
	if statement.TotalRevenue == nil || *statement.TotalRevenue != 641256000000 {
		t.Fatalf("expected numeric string revenue to decode, got %v", statement.TotalRevenue)
	}
}

func TestIncomeStatementNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, statementBody)
	})

	raw, err := client.IncomeStatement(context.Background(), "PETR4", "2023-06-30")
	if err != nil {
		t.Fatalf("IncomeStatement err: %v", err)
	}
	if string(raw) != `{"message":"`+market.IncomeStatementNotFound+`"}` {
		t.Fatalf("expected not-found sentinel, got %s", raw)
	}
}

func TestRatesForwardWindow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/api/v2/prime-rate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if q.Get("country") != "brazil" || q.Get("start") != "01/01/2024" || q.Get("sortOrder") != "asc" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"prime-rate":[{"date":"01/01/2024","value":"11.75","epochDate":1704067200000}]}`)
	})

	raw, err := client.PrimeRate(context.Background(), "01/01/2024", "31/01/2024")
	if err != nil {
		t.Fatalf("PrimeRate err: %v", err)
	}
	if !strings.Contains(string(raw), "11.75") {
		t.Fatalf("unexpected payload %s", raw)
	}
}

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dalio-ai/dalio/backend/internal/model/market"
)

type fakeMarket struct {
	lastTicker   string
	lastTickers  []string
	lastInterval string
	quoteErr     error
}

func (f *fakeMarket) Quote(_ context.Context, ticker string) (json.RawMessage, error) {
	f.lastTicker = ticker
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return json.RawMessage(`{"results":[{"symbol":"` + ticker + `"}]}`), nil
}

func (f *fakeMarket) History(_ context.Context, tickers []string, _ string, interval string) (market.Comparison, error) {
	f.lastTickers = tickers
	f.lastInterval = interval
	return market.Comparison{{Date: "2024-01-02", Prices: map[string]float64{"PETR4": 37}}}, nil
}

func (f *fakeMarket) IncomeStatement(_ context.Context, _, _ string) (json.RawMessage, error) {
	return json.RawMessage(`{"message":"` + market.IncomeStatementNotFound + `"}`), nil
}

func (f *fakeMarket) Inflation(_ context.Context, _, _ string) (json.RawMessage, error) {
	return json.RawMessage(`{"inflation":[]}`), nil
}

func (f *fakeMarket) PrimeRate(_ context.Context, _, _ string) (json.RawMessage, error) {
	return json.RawMessage(`{"prime-rate":[]}`), nil
}

type fakeSeries struct{ lastSeries market.Series }

func (f *fakeSeries) Window(series market.Series, start, end string) (market.Result, error) {
	f.lastSeries = series
	return market.Notice{Message: "vazio"}, nil
}

func TestRegistryDeclaresEveryTool(t *testing.T) {
	reg := NewRegistry(&fakeMarket{}, &fakeSeries{})

	infos := reg.ToolInfos()
	if len(infos) != len(market.AllTools()) {
		t.Fatalf("expected %d tools, got %d", len(market.AllTools()), len(infos))
	}
	for i, name := range market.AllTools() {
		if infos[i].Name != string(name) {
			t.Fatalf("tool %d: expected %s, got %s", i, name, infos[i].Name)
		}
		if infos[i].Desc == "" {
			t.Fatalf("tool %s has no description", name)
		}
	}
}

func TestInvokeQuotePassesPayloadThrough(t *testing.T) {
	data := &fakeMarket{}
	reg := NewRegistry(data, &fakeSeries{})

	out, err := reg.Invoke(context.Background(), "getAssetQuote", `{"ticker":" PETR4 "}`)
	if err != nil {
		t.Fatalf("Invoke err: %v", err)
	}
	if data.lastTicker != "PETR4" {
		t.Fatalf("expected trimmed ticker, got %q", data.lastTicker)
	}
	if !strings.Contains(string(out), `"PETR4"`) {
		t.Fatalf("unexpected payload %s", out)
	}
}

func TestInvokeMissingRequiredField(t *testing.T) {
	reg := NewRegistry(&fakeMarket{}, &fakeSeries{})

	_, err := reg.Invoke(context.Background(), "getAssetQuote", `{}`)
	if !errors.Is(err, ErrInvalidArguments) {
		t.Fatalf("expected ErrInvalidArguments, got %v", err)
	}
}

func TestInvokeWrongType(t *testing.T) {
	reg := NewRegistry(&fakeMarket{}, &fakeSeries{})

	_, err := reg.Invoke(context.Background(), "compareMultipleAssets", `{"tickers":"PETR4","range":"1mo"}`)
	if !errors.Is(err, ErrInvalidArguments) {
		t.Fatalf("expected ErrInvalidArguments, got %v", err)
	}
}

func TestInvokeRejectsEnumOutsideList(t *testing.T) {
	reg := NewRegistry(&fakeMarket{}, &fakeSeries{})

	_, err := reg.Invoke(context.Background(), "compareMultipleAssets", `{"tickers":["PETR4"],"range":"1century"}`)
	if !errors.Is(err, ErrInvalidArguments) {
		t.Fatalf("expected ErrInvalidArguments, got %v", err)
	}
}

func TestCompareDefaultsInterval(t *testing.T) {
	data := &fakeMarket{}
	reg := NewRegistry(data, &fakeSeries{})

	out, err := reg.Invoke(context.Background(), "compareMultipleAssets", `{"tickers":["PETR4","VALE3"],"range":"1mo"}`)
	if err != nil {
		t.Fatalf("Invoke err: %v", err)
	}
	if data.lastInterval != "1d" || len(data.lastTickers) != 2 {
		t.Fatalf("unexpected call: interval=%s tickers=%v", data.lastInterval, data.lastTickers)
	}
	if !strings.Contains(string(out), `"date":"2024-01-02"`) {
		t.Fatalf("expected flattened rows, got %s", out)
	}
}

func TestSeriesToolsRouteToSeries(t *testing.T) {
	series := &fakeSeries{}
	reg := NewRegistry(&fakeMarket{}, series)

	if _, err := reg.Invoke(context.Background(), "getIPCA", `{"start":"janeiro/2020","end":"dezembro/2020"}`); err != nil {
		t.Fatalf("Invoke err: %v", err)
	}
	if series.lastSeries != market.SeriesIPCA {
		t.Fatalf("expected IPCA, got %s", series.lastSeries)
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	reg := NewRegistry(&fakeMarket{}, &fakeSeries{})

	if _, err := reg.Invoke(context.Background(), "getWeather", `{}`); !errors.Is(err, market.ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}

func TestUpstreamErrorSurfaces(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry(&fakeMarket{quoteErr: boom}, &fakeSeries{})

	if _, err := reg.Invoke(context.Background(), "getAssetQuote", `{"ticker":"PETR4"}`); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestJSONSchemaListsRequired(t *testing.T) {
	reg := NewRegistry(&fakeMarket{}, &fakeSeries{})
	spec, ok := reg.Spec("compareMultipleAssets")
	if !ok {
		t.Fatal("compareMultipleAssets not registered")
	}

	schema := spec.JSONSchema()
	required, _ := schema["required"].([]string)
	if len(required) != 2 {
		t.Fatalf("expected tickers and range required, got %v", required)
	}
	props := schema["properties"].(map[string]any)
	tickers := props["tickers"].(map[string]any)
	if tickers["type"] != "array" {
		t.Fatalf("expected array type, got %v", tickers["type"])
	}
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/dalio-ai/dalio/backend/internal/model/market"
)

// MarketData is the quote provider the market tools call.
type MarketData interface {
	Quote(ctx context.Context, ticker string) (json.RawMessage, error)
	History(ctx context.Context, tickers []string, rng, interval string) (market.Comparison, error)
	IncomeStatement(ctx context.Context, ticker, endDate string) (json.RawMessage, error)
	Inflation(ctx context.Context, start, end string) (json.RawMessage, error)
	PrimeRate(ctx context.Context, start, end string) (json.RawMessage, error)
}

// SeriesData serves the bundled monthly indices.
type SeriesData interface {
	Window(series market.Series, start, end string) (market.Result, error)
}

// Registry is the fixed set of tools offered to the model. It is built once
// at startup and read-only afterwards.
type Registry struct {
	tools map[market.ToolName]*Tool
	order []market.ToolName
}

// NewRegistry builds every market tool over the given data sources.
func NewRegistry(data MarketData, series SeriesData) *Registry {
	r := &Registry{tools: make(map[market.ToolName]*Tool)}

	r.add(New(Spec{
		Name: market.ToolAssetQuote,
		Desc: "Buscar cotação de um ou mais ativos financeiros (ações, fundos imobiliários, índices e BDRs) do mercado financeiro brasileiro",
		Params: []Param{
			{Name: "ticker", Type: schema.String, Desc: "Ticker do ativo a ser buscado", Required: true},
		},
	}, func(ctx context.Context, args Args) (any, error) {
		return data.Quote(ctx, args.Text("ticker"))
	}))

	r.add(New(Spec{
		Name: market.ToolCompareAssets,
		Desc: "Comparar o histórico de preços de fechamento de dois ou mais ativos do mercado brasileiro em um mesmo período",
		Params: []Param{
			{Name: "tickers", Type: schema.Array, ElemType: schema.String, Desc: "Tickers dos ativos a comparar, por exemplo [\"PETR4\", \"VALE3\"]", Required: true},
			{Name: "range", Type: schema.String, Desc: "Período do histórico", Enum: []string{"5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}, Required: true},
			{Name: "interval", Type: schema.String, Desc: "Intervalo entre os pontos do histórico", Enum: []string{"1d", "5d", "1wk", "1mo", "3mo"}},
		},
	}, func(ctx context.Context, args Args) (any, error) {
		interval := args.Text("interval")
		if interval == "" {
			interval = "1d"
		}
		return data.History(ctx, args.List("tickers"), args.Text("range"), interval)
	}))

	r.add(New(Spec{
		Name: market.ToolIncomeStatement,
		Desc: "Buscar a demonstração de resultados (DRE) de uma empresa listada na B3 para uma data de encerramento exata",
		Params: []Param{
			{Name: "ticker", Type: schema.String, Desc: "Ticker da empresa, por exemplo PETR4", Required: true},
			{Name: "endDate", Type: schema.String, Desc: "Data de encerramento do exercício no formato AAAA-MM-DD, por exemplo 2023-12-31", Required: true},
		},
	}, func(ctx context.Context, args Args) (any, error) {
		return data.IncomeStatement(ctx, args.Text("ticker"), args.Text("endDate"))
	}))

	r.add(New(Spec{
		Name:   market.ToolInflation,
		Desc:   "Buscar a série histórica da inflação no Brasil entre duas datas",
		Params: rateParams(),
	}, func(ctx context.Context, args Args) (any, error) {
		return data.Inflation(ctx, args.Text("start"), args.Text("end"))
	}))

	r.add(New(Spec{
		Name:   market.ToolPrimeRate,
		Desc:   "Buscar a série histórica da taxa básica de juros (SELIC) do Brasil entre duas datas",
		Params: rateParams(),
	}, func(ctx context.Context, args Args) (any, error) {
		return data.PrimeRate(ctx, args.Text("start"), args.Text("end"))
	}))

	r.add(New(Spec{
		Name:   market.ToolIGPM,
		Desc:   "Consultar a variação mensal do IGP-M entre dois meses e a variação acumulada no período",
		Params: monthParams(),
	}, func(_ context.Context, args Args) (any, error) {
		return series.Window(market.SeriesIGPM, args.Text("start"), args.Text("end"))
	}))

	r.add(New(Spec{
		Name:   market.ToolIPCA,
		Desc:   "Consultar a variação mensal do IPCA entre dois meses e a variação acumulada no período",
		Params: monthParams(),
	}, func(_ context.Context, args Args) (any, error) {
		return series.Window(market.SeriesIPCA, args.Text("start"), args.Text("end"))
	}))

	return r
}

func rateParams() []Param {
	return []Param{
		{Name: "start", Type: schema.String, Desc: "Data inicial no formato DD/MM/AAAA", Required: true},
		{Name: "end", Type: schema.String, Desc: "Data final no formato DD/MM/AAAA", Required: true},
	}
}

func monthParams() []Param {
	return []Param{
		{Name: "start", Type: schema.String, Desc: "Mês inicial no formato mês/ano, por exemplo janeiro/2020", Required: true},
		{Name: "end", Type: schema.String, Desc: "Mês final no formato mês/ano, por exemplo dezembro/2020", Required: true},
	}
}

func (r *Registry) add(t *Tool) {
	r.tools[t.spec.Name] = t
	r.order = append(r.order, t.spec.Name)
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.tools[market.ToolName(name)]
	return t, ok
}

// Spec returns the declaration of a single tool.
func (r *Registry) Spec(name string) (Spec, bool) {
	t, ok := r.Lookup(name)
	if !ok {
		return Spec{}, false
	}
	return t.spec, true
}

// ToolInfos returns the eino declarations bound to chat models.
func (r *Registry) ToolInfos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, r.tools[name].spec.ToolInfo())
	}
	return infos
}

// Invoke runs a tool by name with model-provided JSON arguments.
func (r *Registry) Invoke(ctx context.Context, name, argumentsInJSON string) (json.RawMessage, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", market.ErrUnknownTool, name)
	}
	out, err := t.InvokableRun(ctx, argumentsInJSON)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

package render

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"text/template"

	"github.com/dalio-ai/dalio/backend/internal/model/chat"
	"github.com/dalio-ai/dalio/backend/internal/model/market"
	chatservice "github.com/dalio-ai/dalio/backend/internal/service/chat"
)

//go:embed templates/*.md
var templates embed.FS

// maxTableRows caps long series; the most recent rows are kept.
const maxTableRows = 24

// Message renders one transcript entry as markdown. Assistant messages
// interleave tool blocks with prose; the fallback sentence is only added once
// the message is complete.
func Message(msg chat.Message, streaming bool) string {
	if msg.Role != chat.RoleAssistant {
		return msg.TextContent()
	}

	var sections []string
	var last *chat.ToolInvocation

	if len(msg.Parts) > 0 {
		boundary := -1
		for i, p := range msg.Parts {
			if p.Type == chat.PartToolInvocation {
				boundary = i
			}
		}
		for i, p := range msg.Parts {
			switch p.Type {
			case chat.PartText:
				if i < boundary && strings.TrimSpace(p.Text) != "" {
					sections = append(sections, strings.TrimSpace(p.Text))
				}
			case chat.PartToolInvocation:
				if p.ToolInvocation == nil {
					continue
				}
				last = p.ToolInvocation
				if block, ok := Invocation(*p.ToolInvocation); ok {
					sections = append(sections, block)
				}
			}
		}
	} else {
		for i := range msg.ToolInvocations {
			last = &msg.ToolInvocations[i]
			if block, ok := Invocation(msg.ToolInvocations[i]); ok {
				sections = append(sections, block)
			}
		}
	}

	followUp := chatservice.FollowUpText(msg)
	if followUp == "" && !streaming && last != nil && last.State == chat.StateResult && !last.Failed() {
		if sentence, ok := Fallback(market.ToolName(last.ToolName)); ok {
			followUp = sentence
		}
	}
	if followUp != "" {
		sections = append(sections, followUp)
	}

	return strings.Join(sections, "\n\n")
}

// Invocation renders a single tool invocation. Unknown tools render nothing.
func Invocation(inv chat.ToolInvocation) (string, bool) {
	name := market.ToolName(inv.ToolName)
	loading, known := LoadingSentence(name)
	if !known {
		log.Printf("[render] skipping unknown tool %q", inv.ToolName)
		return "", false
	}

	if inv.State == chat.StateCall {
		return "_" + loading + "_", true
	}
	if inv.Failed() {
		return fmt.Sprintf("> **Não foi possível concluir a consulta.** %s", inv.Error), true
	}

	result, err := market.Decode(inv.ToolName, inv.Result)
	if err != nil {
		log.Printf("[render] failed to decode %s result: %v", inv.ToolName, err)
		return "> **Não foi possível exibir o resultado da consulta.**", true
	}

	block, err := Result(name, result)
	if err != nil {
		log.Printf("[render] failed to render %s result: %v", inv.ToolName, err)
		return "> **Não foi possível exibir o resultado da consulta.**", true
	}
	return block, true
}

// Result renders a typed tool payload.
func Result(name market.ToolName, result market.Result) (string, error) {
	switch r := result.(type) {
	case market.QuoteResult:
		return renderTemplate("quote.md", quoteViews(r))
	case market.Comparison:
		return renderTemplate("comparison.md", comparisonView(r))
	case market.IncomeStatement:
		return renderTemplate("income_statement.md", incomeStatementView(r))
	case market.RateSeries:
		return renderTemplate("rate_series.md", rateSeriesView(r))
	case market.SeriesResult:
		return renderTemplate("series.md", seriesView(r))
	case market.Notice:
		return renderTemplate("notice.md", r)
	default:
		return "", fmt.Errorf("no renderer for %s payload %T", name, result)
	}
}

func renderTemplate(file string, data any) (string, error) {
	content, err := fs.ReadFile(templates, "templates/"+file)
	if err != nil {
		return "", fmt.Errorf("read template %q: %w", file, err)
	}

	tmpl, err := template.New(file).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("parse template %q: %w", file, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("execute template %q: %w", file, err)
	}
	return strings.TrimSpace(b.String()), nil
}

type quoteView struct {
	Symbol           string
	Name             string
	Price            string
	Change           string
	ChangePercent    string
	Open             string
	PreviousClose    string
	DayRange         string
	YearRange        string
	Volume           string
	MarketCap        string
	PriceEarnings    string
	EarningsPerShare string
	UpdatedAt        string
}

func quoteViews(r market.QuoteResult) []quoteView {
	views := make([]quoteView, 0, len(r.Results))
	for _, q := range r.Results {
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		v := quoteView{
			Symbol:        q.Symbol,
			Name:          name,
			Price:         brl(q.RegularMarketPrice),
			Change:        brl(q.RegularMarketChange),
			ChangePercent: percent(q.RegularMarketChangePercent),
			Open:          brl(q.RegularMarketOpen),
			PreviousClose: brl(q.RegularMarketPreviousClose),
			DayRange:      valueRange(q.RegularMarketDayLow, q.RegularMarketDayHigh),
			YearRange:     valueRange(q.FiftyTwoWeekLow, q.FiftyTwoWeekHigh),
			Volume:        integer(q.RegularMarketVolume),
			MarketCap:     brl(q.MarketCap),
		}
		if q.PriceEarnings != nil {
			v.PriceEarnings = number(q.PriceEarnings)
		}
		if q.EarningsPerShare != nil {
			v.EarningsPerShare = brl(q.EarningsPerShare)
		}
		if q.RegularMarketTime != "" {
			v.UpdatedAt = day(q.RegularMarketTime)
		}
		views = append(views, v)
	}
	return views
}

func valueRange(low, high *float64) string {
	if low == nil || high == nil {
		return notAvailable
	}
	return brl(low) + " a " + brl(high)
}

type tickerChange struct {
	Ticker string
	First  string
	Last   string
	Change string
}

type comparisonTable struct {
	Title   string
	From    string
	To      string
	Summary []tickerChange
	Header  string
	Divider string
	Rows    []string
	Omitted int
}

func comparisonView(c market.Comparison) comparisonTable {
	tickers := c.Tickers()
	view := comparisonTable{Title: strings.Join(tickers, " x ")}
	if len(c) == 0 {
		return view
	}
	view.From = day(c[0].Date)
	view.To = day(c[len(c)-1].Date)

	for _, t := range tickers {
		first, last, ok := endpoints(c, t)
		if !ok {
			continue
		}
		change := tickerChange{Ticker: t, First: brl(&first), Last: brl(&last), Change: notAvailable}
		if first != 0 {
			change.Change = signedPercent((last - first) / first * 100)
		}
		view.Summary = append(view.Summary, change)
	}

	view.Header = "| Data | " + strings.Join(tickers, " | ") + " |"
	view.Divider = "|:---|" + strings.Repeat("---:|", len(tickers))

	rows, omitted := tail(c, maxTableRows)
	view.Omitted = omitted
	for _, row := range rows {
		cells := make([]string, 0, len(tickers)+1)
		cells = append(cells, day(row.Date))
		for _, t := range tickers {
			if price, ok := row.Prices[t]; ok {
				cells = append(cells, brl(&price))
			} else {
				cells = append(cells, "-")
			}
		}
		view.Rows = append(view.Rows, "| "+strings.Join(cells, " | ")+" |")
	}
	return view
}

func endpoints(c market.Comparison, ticker string) (float64, float64, bool) {
	var first, last float64
	found := false
	for _, row := range c {
		price, ok := row.Prices[ticker]
		if !ok {
			continue
		}
		if !found {
			first = price
			found = true
		}
		last = price
	}
	return first, last, found
}

func tail[T any](items []T, n int) ([]T, int) {
	if len(items) <= n {
		return items, 0
	}
	return items[len(items)-n:], len(items) - n
}

type statementItem struct {
	Label string
	Value string
	Bold  bool
}

type statementView struct {
	Ticker string
	Period string
	Items  []statementItem
}

func incomeStatementView(s market.IncomeStatement) statementView {
	lines := []struct {
		label string
		value *float64
		bold  bool
	}{
		{"Receita Total", s.TotalRevenue, false},
		{"(-) Custo dos Produtos/Serviços", s.CostOfRevenue, false},
		{"Lucro Bruto", s.GrossProfit, true},
		{"(-) Despesas com P&D", s.ResearchDevelopment, false},
		{"(-) Despesas Gerais e Administrativas", s.SellingGeneralAdministrative, false},
		{"(-) Outras Despesas Operacionais", s.OtherOperatingExpenses, false},
		{"(-) Total de Despesas Operacionais", s.TotalOperatingExpenses, false},
		{"Resultado Operacional", s.OperatingIncome, true},
		{"Resultado Financeiro", s.TotalOtherIncomeExpenseNet, false},
		{"EBIT", s.Ebit, true},
		{"(-) Despesas Financeiras", s.InterestExpense, false},
		{"Resultado Antes dos Impostos", s.IncomeBeforeTax, true},
		{"(-) Impostos sobre Lucro", s.IncomeTaxExpense, false},
		{"Participações Minoritárias", s.MinorityInterest, false},
		{"Resultado Líquido das Operações", s.NetIncomeFromContinuingOps, false},
		{"Lucro Líquido", s.NetIncome, true},
	}

	view := statementView{Ticker: s.Ticker, Period: day(s.EndDate)}
	for _, l := range lines {
		if l.value == nil {
			continue
		}
		view.Items = append(view.Items, statementItem{Label: l.label, Value: brl(l.value), Bold: l.bold})
	}
	return view
}

type seriesRow struct {
	Date  string
	Value string
}

type rateView struct {
	Title   string
	From    string
	To      string
	First   string
	Last    string
	Rows    []seriesRow
	Omitted int
}

func rateSeriesView(r market.RateSeries) rateView {
	view := rateView{Title: "Inflação no Brasil"}
	if r.Kind == market.ToolPrimeRate {
		view.Title = "Taxa Selic"
	}
	if len(r.Points) == 0 {
		return view
	}

	first, last := r.Points[0], r.Points[len(r.Points)-1]
	view.From, view.To = first.Date, last.Date
	view.First, view.Last = rate(first.Value), rate(last.Value)

	points, omitted := tail(r.Points, maxTableRows)
	view.Omitted = omitted
	for _, p := range points {
		view.Rows = append(view.Rows, seriesRow{Date: p.Date, Value: rate(p.Value)})
	}
	return view
}

type monthlyView struct {
	Title       string
	From        string
	To          string
	Rows        []seriesRow
	Omitted     int
	Accumulated string
}

func seriesView(s market.SeriesResult) monthlyView {
	title := string(s.Series)
	if s.Series == market.SeriesIGPM {
		title = "IGP-M"
	}

	view := monthlyView{
		Title:       title,
		From:        month(s.From),
		To:          month(s.To),
		Accumulated: decimalPercent(s.Accumulated),
	}

	items, omitted := tail(s.Items, maxTableRows)
	view.Omitted = omitted
	for _, item := range items {
		view.Rows = append(view.Rows, seriesRow{Date: month(item.Date), Value: decimalPercent(item.Value)})
	}
	return view
}

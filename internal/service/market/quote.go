package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sort"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"github.com/dalio-ai/dalio/backend/internal/model/market"
)

// ErrNoTickers is returned when a request names no asset.
var ErrNoTickers = errors.New("at least one ticker is required")

// Quote returns the provider payload for one or more tickers verbatim.
func (c *Client) Quote(ctx context.Context, ticker string) (json.RawMessage, error) {
	path := tickerPath([]string{ticker})
	if path == "" {
		return nil, ErrNoTickers
	}
	body, err := c.getRaw(ctx, "/api/quote/"+path, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// History fetches daily history for every ticker in one request and pivots it
// into one row per date.
func (c *Client) History(ctx context.Context, tickers []string, rng, interval string) (market.Comparison, error) {
	path := tickerPath(tickers)
	if path == "" {
		return nil, ErrNoTickers
	}

	query := url.Values{}
	if rng != "" {
		query.Set("range", rng)
	}
	if interval != "" {
		query.Set("interval", interval)
	}

	var jobj any
	if err := c.getJSON(ctx, "/api/quote/"+path, query, &jobj); err != nil {
		return nil, err
	}

	series, err := extractHistory(jobj)
	if err != nil {
		return nil, err
	}
	return PivotHistory(series), nil
}

// PricePoint is a single close of one asset.
type PricePoint struct {
	Epoch int64
	Close float64
}

// AssetHistory is the close series of one asset as returned by the provider.
type AssetHistory struct {
	Symbol string
	Prices []PricePoint
}

func extractHistory(jobj any) ([]AssetHistory, error) {
	jval, err := jsonpath.Get("$.results", jobj)
	if err != nil {
		return nil, fmt.Errorf("history payload: %w", err)
	}
	results, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("history payload: results is not a list")
	}

	out := make([]AssetHistory, 0, len(results))
	for _, item := range results {
		symbol, _ := firstValue(jsonpath.Get("$.symbol", item))
		name, _ := symbol.(string)
		if name == "" {
			continue
		}

		points, err := jsonpath.Get("$.historicalDataPrice[*]", item)
		if err != nil {
			// assets without history still count as requested, just empty
			out = append(out, AssetHistory{Symbol: name})
			continue
		}
		list, _ := points.([]any)
		history := AssetHistory{Symbol: name, Prices: make([]PricePoint, 0, len(list))}
		for _, p := range list {
			row, ok := p.(map[string]any)
			if !ok {
				continue
			}
			epoch, okDate := row["date"].(float64)
			closeVal, okClose := row["close"].(float64)
			if !okDate || !okClose {
				continue
			}
			history.Prices = append(history.Prices, PricePoint{Epoch: int64(epoch), Close: closeVal})
		}
		out = append(out, history)
	}
	return out, nil
}

// PivotHistory merges per-asset histories into rows keyed by UTC date.
// Two assets on the same date share a row; a repeated (date, asset) keeps the
// last value seen. Rows are sorted ascending by date.
func PivotHistory(series []AssetHistory) market.Comparison {
	byDate := make(map[string]*market.ComparisonRow)
	for _, asset := range series {
		for _, p := range asset.Prices {
			date := time.Unix(p.Epoch, 0).UTC().Format("2006-01-02")
			row, ok := byDate[date]
			if !ok {
				row = &market.ComparisonRow{Date: date, Prices: make(map[string]float64)}
				byDate[date] = row
			}
			row.Prices[asset.Symbol] = p.Close
		}
	}

	rows := make(market.Comparison, 0, len(byDate))
	for _, row := range byDate {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}

// IncomeStatement looks for the statement whose endDate matches exactly and
// returns that entry untouched apart from the added ticker. A miss is not an
// error: the not-found notice is returned instead.
func (c *Client) IncomeStatement(ctx context.Context, ticker, endDate string) (json.RawMessage, error) {
	path := tickerPath([]string{ticker})
	if path == "" {
		return nil, ErrNoTickers
	}

	query := url.Values{}
	query.Set("modules", "incomeStatementHistory")

	var jobj any
	if err := c.getJSON(ctx, "/api/quote/"+path, query, &jobj); err != nil {
		return nil, err
	}

	entries, err := statementEntries(jobj)
	if err != nil {
		log.Printf("[market] income statement payload for %s: %v", ticker, err)
		return statementNotFound()
	}

	for _, entry := range entries {
		row, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if date, _ := row["endDate"].(string); date != endDate {
			continue
		}
		row["ticker"] = ticker
		raw, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encode income statement: %w", err)
		}
		return raw, nil
	}

	return statementNotFound()
}

func statementNotFound() (json.RawMessage, error) {
	return json.Marshal(market.Notice{Message: market.IncomeStatementNotFound})
}

// statementEntries accepts both the flat list and the nested
// {"incomeStatementHistory": [...]} shapes the provider has used.
func statementEntries(jobj any) ([]any, error) {
	jval, err := jsonpath.Get("$.results[0].incomeStatementHistory", jobj)
	if err != nil {
		return nil, err
	}
	switch v := jval.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if nested, ok := v["incomeStatementHistory"].([]any); ok {
			return nested, nil
		}
	}
	return nil, fmt.Errorf("incomeStatementHistory has unexpected shape %T", jval)
}

// firstValue unwraps single-element lists, since jsonpath is inconsistent
// about returning a list of one or the value itself.
func firstValue(jval any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if list, ok := jval.([]any); ok && len(list) == 1 {
		if _, nested := list[0].([]any); !nested {
			return list[0], nil
		}
	}
	return jval, nil
}

// Inflation proxies the provider's Brazilian inflation series.
func (c *Client) Inflation(ctx context.Context, start, end string) (json.RawMessage, error) {
	return c.rates(ctx, "/api/v2/inflation", start, end)
}

// PrimeRate proxies the provider's SELIC series.
func (c *Client) PrimeRate(ctx context.Context, start, end string) (json.RawMessage, error) {
	return c.rates(ctx, "/api/v2/prime-rate", start, end)
}

func (c *Client) rates(ctx context.Context, path, start, end string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("country", "brazil")
	if start != "" {
		query.Set("start", start)
	}
	if end != "" {
		query.Set("end", end)
	}
	query.Set("sortBy", "date")
	query.Set("sortOrder", "asc")

	body, err := c.getRaw(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

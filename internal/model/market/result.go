package market

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownTool is returned when a payload is decoded for a name outside the registry.
var ErrUnknownTool = errors.New("unknown tool")

// IncomeStatementNotFound is the literal message returned when no statement matches the requested date.
const IncomeStatementNotFound = "Nenhum demonstrativo encontrado para a data informada."

// Result is the closed set of typed tool payloads. Render code switches over
// the concrete types below.
type Result interface {
	isResult()
}

// Quote mirrors the subset of a brapi quote consumed by the quote card.
type Quote struct {
	Symbol                     string   `json:"symbol"`
	ShortName                  string   `json:"shortName,omitempty"`
	LongName                   string   `json:"longName,omitempty"`
	Currency                   string   `json:"currency,omitempty"`
	LogoURL                    string   `json:"logourl,omitempty"`
	MarketCap                  *float64 `json:"marketCap,omitempty"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice,omitempty"`
	RegularMarketChange        *float64 `json:"regularMarketChange,omitempty"`
	RegularMarketChangePercent *float64 `json:"regularMarketChangePercent,omitempty"`
	RegularMarketTime          string   `json:"regularMarketTime,omitempty"`
	RegularMarketDayHigh       *float64 `json:"regularMarketDayHigh,omitempty"`
	RegularMarketDayLow        *float64 `json:"regularMarketDayLow,omitempty"`
	RegularMarketDayRange      string   `json:"regularMarketDayRange,omitempty"`
	RegularMarketVolume        *float64 `json:"regularMarketVolume,omitempty"`
	RegularMarketPreviousClose *float64 `json:"regularMarketPreviousClose,omitempty"`
	RegularMarketOpen          *float64 `json:"regularMarketOpen,omitempty"`
	FiftyTwoWeekRange          string   `json:"fiftyTwoWeekRange,omitempty"`
	FiftyTwoWeekLow            *float64 `json:"fiftyTwoWeekLow,omitempty"`
	FiftyTwoWeekHigh           *float64 `json:"fiftyTwoWeekHigh,omitempty"`
	PriceEarnings              *float64 `json:"priceEarnings,omitempty"`
	EarningsPerShare           *float64 `json:"earningsPerShare,omitempty"`
}

// QuoteResult is the getAssetQuote payload.
type QuoteResult struct {
	Results     []Quote `json:"results"`
	RequestedAt string  `json:"requestedAt,omitempty"`
}

// ComparisonRow is one date of a multi-asset comparison. It serializes flat:
// {"date": "2024-01-02", "PETR4": 38.1, "VALE3": 70.2}.
type ComparisonRow struct {
	Date   string
	Prices map[string]float64
}

// MarshalJSON flattens the row into a single object.
func (r ComparisonRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Prices)+1)
	for k, v := range r.Prices {
		out[k] = v
	}
	out["date"] = r.Date
	return json.Marshal(out)
}

// UnmarshalJSON reads a flat row; non-numeric values other than date are ignored.
func (r *ComparisonRow) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Prices = make(map[string]float64, len(raw))
	for k, v := range raw {
		if k == "date" {
			if err := json.Unmarshal(v, &r.Date); err != nil {
				return fmt.Errorf("comparison date: %w", err)
			}
			continue
		}
		var price float64
		if err := json.Unmarshal(v, &price); err != nil {
			continue
		}
		r.Prices[k] = price
	}
	return nil
}

// Tickers returns the row's asset keys sorted alphabetically.
func (r ComparisonRow) Tickers() []string {
	keys := make([]string, 0, len(r.Prices))
	for k := range r.Prices {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Comparison is the compareMultipleAssets payload, sorted ascending by date.
type Comparison []ComparisonRow

// Tickers returns the union of assets across every row.
func (c Comparison) Tickers() []string {
	seen := make(map[string]struct{})
	for _, row := range c {
		for k := range row.Prices {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IncomeStatement is one entry of incomeStatementHistory plus the requested ticker.
type IncomeStatement struct {
	Ticker                            string   `json:"ticker"`
	EndDate                           string   `json:"endDate"`
	TotalRevenue                      *float64 `json:"totalRevenue,omitempty"`
	CostOfRevenue                     *float64 `json:"costOfRevenue,omitempty"`
	GrossProfit                       *float64 `json:"grossProfit,omitempty"`
	ResearchDevelopment               *float64 `json:"researchDevelopment,omitempty"`
	SellingGeneralAdministrative      *float64 `json:"sellingGeneralAdministrative,omitempty"`
	NonRecurring                      *float64 `json:"nonRecurring,omitempty"`
	OtherOperatingExpenses            *float64 `json:"otherOperatingExpenses,omitempty"`
	TotalOperatingExpenses            *float64 `json:"totalOperatingExpenses,omitempty"`
	OperatingIncome                   *float64 `json:"operatingIncome,omitempty"`
	TotalOtherIncomeExpenseNet        *float64 `json:"totalOtherIncomeExpenseNet,omitempty"`
	Ebit                              *float64 `json:"ebit,omitempty"`
	InterestExpense                   *float64 `json:"interestExpense,omitempty"`
	IncomeBeforeTax                   *float64 `json:"incomeBeforeTax,omitempty"`
	IncomeTaxExpense                  *float64 `json:"incomeTaxExpense,omitempty"`
	MinorityInterest                  *float64 `json:"minorityInterest,omitempty"`
	NetIncomeFromContinuingOps        *float64 `json:"netIncomeFromContinuingOps,omitempty"`
	DiscontinuedOperations            *float64 `json:"discontinuedOperations,omitempty"`
	ExtraordinaryItems                *float64 `json:"extraordinaryItems,omitempty"`
	EffectOfAccountingCharges         *float64 `json:"effectOfAccountingCharges,omitempty"`
	OtherItems                        *float64 `json:"otherItems,omitempty"`
	NetIncome                         *float64 `json:"netIncome,omitempty"`
	NetIncomeApplicableToCommonShares *float64 `json:"netIncomeApplicableToCommonShares,omitempty"`
}

// UnmarshalJSON reads the statement lines it knows. Numeric strings are
// accepted and values of any other type are ignored, so a provider field
// changing shape never fails the whole entry.
func (s *IncomeStatement) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*s = IncomeStatement{}
	_ = json.Unmarshal(fields["ticker"], &s.Ticker)
	_ = json.Unmarshal(fields["endDate"], &s.EndDate)
	for key, dst := range s.lines() {
		if v, ok := numberField(fields[key]); ok {
			*dst = &v
		}
	}
	return nil
}

func (s *IncomeStatement) lines() map[string]**float64 {
	return map[string]**float64{
		"totalRevenue":                      &s.TotalRevenue,
		"costOfRevenue":                     &s.CostOfRevenue,
		"grossProfit":                       &s.GrossProfit,
		"researchDevelopment":               &s.ResearchDevelopment,
		"sellingGeneralAdministrative":      &s.SellingGeneralAdministrative,
		"nonRecurring":                      &s.NonRecurring,
		"otherOperatingExpenses":            &s.OtherOperatingExpenses,
		"totalOperatingExpenses":            &s.TotalOperatingExpenses,
		"operatingIncome":                   &s.OperatingIncome,
		"totalOtherIncomeExpenseNet":        &s.TotalOtherIncomeExpenseNet,
		"ebit":                              &s.Ebit,
		"interestExpense":                   &s.InterestExpense,
		"incomeBeforeTax":                   &s.IncomeBeforeTax,
		"incomeTaxExpense":                  &s.IncomeTaxExpense,
		"minorityInterest":                  &s.MinorityInterest,
		"netIncomeFromContinuingOps":        &s.NetIncomeFromContinuingOps,
		"discontinuedOperations":            &s.DiscontinuedOperations,
		"extraordinaryItems":                &s.ExtraordinaryItems,
		"effectOfAccountingCharges":         &s.EffectOfAccountingCharges,
		"otherItems":                        &s.OtherItems,
		"netIncome":                         &s.NetIncome,
		"netIncomeApplicableToCommonShares": &s.NetIncomeApplicableToCommonShares,
	}
}

func numberField(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, true
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	return v, err == nil
}

// RatePoint is one observation of the brapi inflation or prime-rate series.
type RatePoint struct {
	Date      string `json:"date"`
	Value     string `json:"value"`
	EpochDate int64  `json:"epochDate,omitempty"`
}

// RateSeries is the getInflation / getPrimeRate payload.
type RateSeries struct {
	Kind   ToolName    `json:"-"`
	Points []RatePoint `json:"-"`
}

// SeriesPoint is one month of a bundled index, Date formatted YYYY-MM.
type SeriesPoint struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// SeriesResult is the getIGPM / getIPCA payload.
type SeriesResult struct {
	Series      Series          `json:"series"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Items       []SeriesPoint   `json:"items"`
	Accumulated decimal.Decimal `json:"accumulated"`
}

// Notice is an informational payload, such as an empty window or a missing statement.
type Notice struct {
	Message string `json:"message"`
}

func (QuoteResult) isResult()     {}
func (Comparison) isResult()      {}
func (IncomeStatement) isResult() {}
func (RateSeries) isResult()      {}
func (SeriesResult) isResult()    {}
func (Notice) isResult()          {}

// RateKey is the top-level field brapi wraps each rate series in.
func RateKey(name ToolName) string {
	if name == ToolPrimeRate {
		return "prime-rate"
	}
	return "inflation"
}

// Decode interprets a tool result payload by tool name.
func Decode(name string, raw json.RawMessage) (Result, error) {
	if notice, ok := decodeNotice(raw); ok {
		return notice, nil
	}

	switch ToolName(name) {
	case ToolAssetQuote:
		var q QuoteResult
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return q, nil
	case ToolCompareAssets:
		var c Comparison
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return c, nil
	case ToolIncomeStatement:
		var s IncomeStatement
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return s, nil
	case ToolInflation, ToolPrimeRate:
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		series := RateSeries{Kind: ToolName(name)}
		if body, ok := wrapped[RateKey(ToolName(name))]; ok {
			if err := json.Unmarshal(body, &series.Points); err != nil {
				return nil, fmt.Errorf("decode %s: %w", name, err)
			}
		}
		return series, nil
	case ToolIGPM, ToolIPCA:
		var s SeriesResult
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

func decodeNotice(raw json.RawMessage) (Notice, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Notice{}, false
	}
	msg, ok := fields["message"]
	if !ok || len(fields) != 1 {
		return Notice{}, false
	}
	var n Notice
	if err := json.Unmarshal(msg, &n.Message); err != nil {
		return Notice{}, false
	}
	return n, true
}

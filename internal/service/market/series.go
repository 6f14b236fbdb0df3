package market

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dalio-ai/dalio/backend/internal/model/market"
)

//go:embed data/*.json
var bundled embed.FS

// ErrInvalidMonth carries the user-facing message for malformed month/year input.
var ErrInvalidMonth = errors.New("data inválida: use o formato mês/ano, por exemplo janeiro/2020")

var seriesFiles = map[market.Series]string{
	market.SeriesIGPM: "igpm.json",
	market.SeriesIPCA: "ipca.json",
}

// SeriesStore serves the bundled monthly IGP-M and IPCA datasets. A directory
// with refreshed files takes precedence over the embedded snapshot.
type SeriesStore struct {
	mu   sync.RWMutex
	data map[market.Series][]market.SeriesPoint
}

// NewSeriesStore loads every series, preferring files under dir when present.
func NewSeriesStore(dir string) (*SeriesStore, error) {
	store := &SeriesStore{data: make(map[market.Series][]market.SeriesPoint, len(seriesFiles))}
	for series, name := range seriesFiles {
		raw, err := readSeriesFile(dir, name)
		if err != nil {
			return nil, err
		}
		points, err := DecodeSGS(raw)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", series, err)
		}
		store.data[series] = points
	}
	return store, nil
}

func readSeriesFile(dir, name string) ([]byte, error) {
	if dir != "" {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return bundled.ReadFile("data/" + name)
}

// Replace swaps a series in place, used after a refresh.
func (s *SeriesStore) Replace(series market.Series, points []market.SeriesPoint) {
	s.mu.Lock()
	s.data[series] = points
	s.mu.Unlock()
}

// Points returns a copy of the full series.
func (s *SeriesStore) Points(series market.Series) []market.SeriesPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]market.SeriesPoint(nil), s.data[series]...)
}

// Window returns the months between start and end inclusive plus the
// compounded variation over them. An end past the dataset is clamped to the
// last month; an empty window yields a Notice rather than an error.
func (s *SeriesStore) Window(series market.Series, start, end string) (market.Result, error) {
	from, err := ParseMonth(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseMonth(end)
	if err != nil {
		return nil, err
	}

	requested := to
	points := s.Points(series)
	if len(points) > 0 {
		if last := points[len(points)-1].Date; to > last {
			to = last
		}
	}

	items := make([]market.SeriesPoint, 0, 12)
	for _, p := range points {
		if p.Date >= from && p.Date <= to {
			items = append(items, p)
		}
	}

	if len(items) == 0 {
		return market.Notice{
			Message: fmt.Sprintf("Nenhum dado de %s encontrado entre %s e %s.", series, from, requested),
		}, nil
	}

	return market.SeriesResult{
		Series:      series,
		From:        items[0].Date,
		To:          items[len(items)-1].Date,
		Items:       items,
		Accumulated: Accumulate(items),
	}, nil
}

// Accumulate compounds monthly percentage variations into the total
// percentage over the period, rounded to two places.
func Accumulate(items []market.SeriesPoint) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	factor := decimal.NewFromInt(1)
	for _, p := range items {
		factor = factor.Mul(decimal.NewFromInt(1).Add(p.Value.Div(hundred)))
	}
	return factor.Sub(decimal.NewFromInt(1)).Mul(hundred).Round(2)
}

var monthNames = map[string]int{
	"janeiro": 1, "jan": 1,
	"fevereiro": 2, "fev": 2,
	"março": 3, "marco": 3, "mar": 3,
	"abril": 4, "abr": 4,
	"maio": 5, "mai": 5,
	"junho": 6, "jun": 6,
	"julho": 7, "jul": 7,
	"agosto": 8, "ago": 8,
	"setembro": 9, "set": 9,
	"outubro": 10, "out": 10,
	"novembro": 11, "nov": 11,
	"dezembro": 12, "dez": 12,
}

var isoMonth = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)

// ParseMonth normalizes "janeiro/2010", "março de 2010", "03/2010" or
// "2010-03" into "YYYY-MM".
func ParseMonth(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrInvalidMonth
	}

	if m := isoMonth.FindStringSubmatch(s); m != nil {
		return formatMonth(m[1], m[2])
	}

	s = strings.ReplaceAll(s, " de ", "/")
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return "", ErrInvalidMonth
	}
	monthPart := strings.TrimSpace(parts[0])
	yearPart := strings.TrimSpace(parts[1])

	if n, ok := monthNames[monthPart]; ok {
		monthPart = strconv.Itoa(n)
	}
	return formatMonth(yearPart, monthPart)
}

func formatMonth(yearPart, monthPart string) (string, error) {
	if len(yearPart) != 4 {
		return "", ErrInvalidMonth
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return "", ErrInvalidMonth
	}
	month, err := strconv.Atoi(monthPart)
	if err != nil || month < 1 || month > 12 {
		return "", ErrInvalidMonth
	}
	return fmt.Sprintf("%04d-%02d", year, month), nil
}

type sgsEntry struct {
	Data  string `json:"data"`
	Valor string `json:"valor"`
}

// DecodeSGS parses the Banco Central SGS JSON format
// ([{"data":"01/01/2010","valor":"0.63"}]) into sorted monthly points.
func DecodeSGS(raw []byte) ([]market.SeriesPoint, error) {
	var entries []sgsEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}

	points := make([]market.SeriesPoint, 0, len(entries))
	for _, e := range entries {
		parts := strings.Split(e.Data, "/")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid SGS date %q", e.Data)
		}
		date, err := formatMonth(parts[2], parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid SGS date %q", e.Data)
		}
		value, err := decimal.NewFromString(strings.TrimSpace(e.Valor))
		if err != nil {
			return nil, fmt.Errorf("invalid SGS value %q: %w", e.Valor, err)
		}
		points = append(points, market.SeriesPoint{Date: date, Value: value})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}

package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dalio-ai/dalio/backend/internal/model/market"
)

func TestParseMonth(t *testing.T) {
	cases := map[string]string{
		"janeiro/2010":     "2010-01",
		"Março/2020":       "2020-03",
		"marco/2020":       "2020-03",
		"dezembro de 2023": "2023-12",
		"01/2015":          "2015-01",
		"7/2018":           "2018-07",
		"2024-05":          "2024-05",
	}
	for in, want := range cases {
		got, err := ParseMonth(in)
		if err != nil {
			t.Fatalf("ParseMonth(%q) err: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseMonth(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestParseMonthRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "janeiro", "13/2020", "foo/2020", "janeiro/20"} {
		if _, err := ParseMonth(in); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("ParseMonth(%q): expected ErrInvalidMonth, got %v", in, err)
		}
	}
}

func TestBundledSeriesCoverage(t *testing.T) {
	store, err := NewSeriesStore("")
	if err != nil {
		t.Fatalf("NewSeriesStore err: %v", err)
	}
	for _, series := range []market.Series{market.SeriesIGPM, market.SeriesIPCA} {
		points := store.Points(series)
		if len(points) == 0 {
			t.Fatalf("%s: no bundled data", series)
		}
		if points[0].Date != "2010-01" {
			t.Fatalf("%s: expected first month 2010-01, got %s", series, points[0].Date)
		}
	}
}

func TestBundledWindowSpansRequestedYears(t *testing.T) {
	store, err := NewSeriesStore("")
	if err != nil {
		t.Fatalf("NewSeriesStore err: %v", err)
	}

	result, err := store.Window(market.SeriesIGPM, "janeiro/2010", "dezembro/2024")
	if err != nil {
		t.Fatalf("Window err: %v", err)
	}
	window, ok := result.(market.SeriesResult)
	if !ok || len(window.Items) == 0 {
		t.Fatalf("expected a non-empty SeriesResult, got %#v", result)
	}
	if window.Items[0].Date != "2010-01" {
		t.Fatalf("expected first month 2010-01, got %s", window.Items[0].Date)
	}
	if last := window.Items[len(window.Items)-1].Date; last > "2024-12" {
		t.Fatalf("expected last month <= 2024-12, got %s", last)
	}
}

func TestBundledWindowClampsEnd(t *testing.T) {
	store, err := NewSeriesStore("")
	if err != nil {
		t.Fatalf("NewSeriesStore err: %v", err)
	}
	points := store.Points(market.SeriesIGPM)
	final := points[len(points)-1].Date

	result, err := store.Window(market.SeriesIGPM, "janeiro/2010", "dezembro/2099")
	if err != nil {
		t.Fatalf("Window err: %v", err)
	}
	window, ok := result.(market.SeriesResult)
	if !ok {
		t.Fatalf("expected SeriesResult, got %T", result)
	}
	if window.To != final || window.Items[len(window.Items)-1].Date != final {
		t.Fatalf("expected window clamped to %s, got %s", final, window.To)
	}
	if len(window.Items) != len(points) {
		t.Fatalf("expected the whole dataset, got %d of %d months", len(window.Items), len(points))
	}
}

func TestWindowFiltersAndAccumulates(t *testing.T) {
	store, err := NewSeriesStore("")
	if err != nil {
		t.Fatalf("NewSeriesStore err: %v", err)
	}
	store.Replace(market.SeriesIPCA, []market.SeriesPoint{
		{Date: "2020-01", Value: decimal.RequireFromString("0.50")},
		{Date: "2020-02", Value: decimal.RequireFromString("1.00")},
		{Date: "2020-03", Value: decimal.RequireFromString("2.00")},
	})

	result, err := store.Window(market.SeriesIPCA, "fevereiro/2020", "dezembro/2030")
	if err != nil {
		t.Fatalf("Window err: %v", err)
	}
	series, ok := result.(market.SeriesResult)
	if !ok {
		t.Fatalf("expected SeriesResult, got %T", result)
	}
	if len(series.Items) != 2 || series.From != "2020-02" || series.To != "2020-03" {
		t.Fatalf("unexpected window %+v", series)
	}
	if !series.Accumulated.Equal(decimal.RequireFromString("3.02")) {
		t.Fatalf("expected accumulated 3.02, got %s", series.Accumulated)
	}
}

func TestWindowEmptyIsNotice(t *testing.T) {
	store, err := NewSeriesStore("")
	if err != nil {
		t.Fatalf("NewSeriesStore err: %v", err)
	}
	result, err := store.Window(market.SeriesIGPM, "janeiro/1990", "dezembro/1995")
	if err != nil {
		t.Fatalf("Window err: %v", err)
	}
	if _, ok := result.(market.Notice); !ok {
		t.Fatalf("expected Notice, got %T", result)
	}
}

func TestWindowNoticeNamesRequestedEnd(t *testing.T) {
	store, err := NewSeriesStore("")
	if err != nil {
		t.Fatalf("NewSeriesStore err: %v", err)
	}
	result, err := store.Window(market.SeriesIPCA, "março/2090", "dezembro/2090")
	if err != nil {
		t.Fatalf("Window err: %v", err)
	}
	notice, ok := result.(market.Notice)
	if !ok {
		t.Fatalf("expected Notice, got %T", result)
	}
	if !strings.Contains(notice.Message, "entre 2090-03 e 2090-12") {
		t.Fatalf("expected the requested window in %q", notice.Message)
	}
}

func TestWindowMalformedDate(t *testing.T) {
	store, err := NewSeriesStore("")
	if err != nil {
		t.Fatalf("NewSeriesStore err: %v", err)
	}
	if _, err := store.Window(market.SeriesIGPM, "ontem", "hoje"); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestRefreshWritesAndSwapsSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"data":"01/01/2025","valor":"0.16"}]`)
	}))
	defer srv.Close()

	store, err := NewSeriesStore("")
	if err != nil {
		t.Fatalf("NewSeriesStore err: %v", err)
	}
	dir := t.TempDir()
	if err := NewSGSClient(srv.URL, srv.Client()).Refresh(context.Background(), dir, store); err != nil {
		t.Fatalf("Refresh err: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "ipca.json")); err != nil {
		t.Fatalf("expected ipca.json written: %v", err)
	}
	points := store.Points(market.SeriesIPCA)
	if len(points) != 1 || points[0].Date != "2025-01" {
		t.Fatalf("expected refreshed series, got %+v", points)
	}

	reloaded, err := NewSeriesStore(dir)
	if err != nil {
		t.Fatalf("NewSeriesStore(dir) err: %v", err)
	}
	if got := reloaded.Points(market.SeriesIGPM); len(got) != 1 {
		t.Fatalf("expected directory override, got %d points", len(got))
	}
}

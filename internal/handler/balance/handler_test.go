package balance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	balanceService "github.com/dalio-ai/dalio/backend/internal/service/balance"
	docService "github.com/dalio-ai/dalio/backend/internal/service/document"
	"github.com/dalio-ai/dalio/backend/internal/service/summary"
)

type stubLibrary struct {
	company string
	err     error
}

func (s *stubLibrary) Companies(context.Context) ([]balanceService.Company, error) {
	return []balanceService.Company{{Name: "CNPJ: 33000167000101"}}, s.err
}

func (s *stubLibrary) Years(_ context.Context, company string) ([]string, error) {
	s.company = company
	return []string{"2023", "2024"}, s.err
}

func (s *stubLibrary) Periods(_ context.Context, company, _ string) ([]string, error) {
	s.company = company
	return []string{"Anual"}, s.err
}

func (s *stubLibrary) URL(_ context.Context, company, year, period string) (string, error) {
	s.company = company
	return "https://signed/" + year + "/" + period, s.err
}

func (s *stubLibrary) Summarize(_ context.Context, company, year, period string) (balanceService.Summary, error) {
	s.company = company
	return balanceService.Summary{Company: company, Year: year, Period: period, Report: summary.Report{Outlook: "Estável"}}, s.err
}

func setupRouter(lib Library) *chi.Mux {
	r := chi.NewRouter()
	New(lib).RegisterRoutes(r)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestListRoutes(t *testing.T) {
	lib := &stubLibrary{}
	r := setupRouter(lib)

	resp := get(r, "/balances/companies")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var companies []balanceService.Company
	if err := json.Unmarshal(resp.Body.Bytes(), &companies); err != nil || len(companies) != 1 {
		t.Fatalf("unexpected companies %s", resp.Body.String())
	}

	resp = get(r, "/balances/CNPJ:%2033000167000101/years")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if lib.company != "CNPJ: 33000167000101" {
		t.Fatalf("expected decoded company, got %q", lib.company)
	}

	resp = get(r, "/balances/empresa%20XPTO/2024/periods")
	if resp.Code != http.StatusOK || lib.company != "empresa XPTO" {
		t.Fatalf("unexpected periods response %d for %q", resp.Code, lib.company)
	}
}

func TestURLAndSummary(t *testing.T) {
	r := setupRouter(&stubLibrary{})

	resp := get(r, "/balances/x/2024/Q1/url")
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil || body["url"] != "https://signed/2024/Q1" {
		t.Fatalf("unexpected url response %s", resp.Body.String())
	}

	resp = get(r, "/balances/x/2024/Anual/summary")
	var summaryBody balanceService.Summary
	if err := json.Unmarshal(resp.Body.Bytes(), &summaryBody); err != nil || summaryBody.Report.Outlook != "Estável" {
		t.Fatalf("unexpected summary response %s", resp.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{balanceService.ErrInvalidSegment, http.StatusBadRequest},
		{docService.ErrInvalidDocument, http.StatusUnprocessableEntity},
		{errors.New("s3 down"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		r := setupRouter(&stubLibrary{err: tc.err})
		if resp := get(r, "/balances/x/2024/Anual/summary"); resp.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, resp.Code)
		}
	}
}

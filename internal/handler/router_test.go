package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/dalio-ai/dalio/backend/internal/config"
	"github.com/dalio-ai/dalio/backend/internal/model/index"
	aiService "github.com/dalio-ai/dalio/backend/internal/service/ai"
	docService "github.com/dalio-ai/dalio/backend/internal/service/document"
)

type noTools struct{}

func (noTools) ToolInfos() []*schema.ToolInfo { return nil }

func (noTools) Invoke(context.Context, string, string) (json.RawMessage, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	indices := index.NewMemoryStore(index.Seed())
	ai, err := aiService.NewService(context.Background(), aiService.NewOfflineModel(), noTools{}, indices, config.AIConfig{StreamResponse: true, MaxSteps: 3})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return NewRouter(Services{
		AI:             ai,
		Documents:      docService.NewService(config.DocumentConfig{}, nil),
		Indices:        indices,
		AllowedOrigins: []string{"http://localhost:3000"},
	})
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestChatOfflineStream(t *testing.T) {
	body := `{"messages":[{"role":"user","content":"O que é um ETF?"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	resp := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	out := resp.Body.String()
	if !strings.Contains(out, `"type":"start"`) || !strings.Contains(out, `"finishReason":"stop"`) {
		t.Fatalf("unexpected stream %s", out)
	}
}

func TestOptionalServicesUnavailable(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/balances/companies"},
		{http.MethodPost, "/api/leads"},
		{http.MethodPost, "/api/upload-pdf"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}"))
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s %s: expected 503, got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestCORSHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(resp, req)

	if resp.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" || resp.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected CORS headers, got %v", resp.Header())
	}
}

package lead

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	leadService "github.com/dalio-ai/dalio/backend/internal/service/lead"
)

func setupRouter(t *testing.T) (*chi.Mux, *leadService.Store) {
	t.Helper()
	store, err := leadService.Open(filepath.Join(t.TempDir(), "leads.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	r := chi.NewRouter()
	New(store).RegisterRoutes(r)
	return r, store
}

func postLead(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewBufferString(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateLead(t *testing.T) {
	r, store := setupRouter(t)

	resp := postLead(r, `{"email":"ana@exemplo.com"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var lead leadService.Lead
	if err := json.Unmarshal(resp.Body.Bytes(), &lead); err != nil || lead.Email != "ana@exemplo.com" {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}

	leads, err := store.List(t.Context())
	if err != nil || len(leads) != 1 {
		t.Fatalf("expected 1 stored lead, got %d (%v)", len(leads), err)
	}
}

func TestCreateLeadInvalid(t *testing.T) {
	r, _ := setupRouter(t)

	for _, body := range []string{`{`, `{"email":"nao-e-email"}`, `{}`} {
		if resp := postLead(r, body); resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, resp.Code)
		}
	}
}

package document

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dalio-ai/dalio/backend/internal/config"
	"github.com/dalio-ai/dalio/backend/internal/model/chat"
	"github.com/dalio-ai/dalio/backend/internal/service/ai"
	docService "github.com/dalio-ai/dalio/backend/internal/service/document"
	"github.com/dalio-ai/dalio/backend/internal/service/document/pdftest"
)

type fakeAnswerer struct {
	prompts []ai.DocumentPrompt
}

func (f *fakeAnswerer) AnswerDocument(_ context.Context, p ai.DocumentPrompt, emit ai.Emitter) error {
	f.prompts = append(f.prompts, p)
	for _, ev := range []chat.Event{
		{Type: chat.EventStart, MessageID: "d1"},
		{Type: chat.EventTextDelta, MessageID: "d1", Delta: "A receita foi 42."},
		{Type: chat.EventFinish, MessageID: "d1", FinishReason: chat.FinishStop},
	} {
		if err := emit(ev); err != nil {
			return err
		}
	}
	return nil
}

type fakeUploader struct {
	keys   []string
	bodies [][]byte
}

func (f *fakeUploader) Put(_ context.Context, key string, body []byte, _ string, _ map[string]string) error {
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, body)
	return nil
}

func setup(t *testing.T, client *http.Client) (*chi.Mux, *fakeAnswerer, *fakeUploader) {
	t.Helper()
	answerer := &fakeAnswerer{}
	uploader := &fakeUploader{}
	docs := docService.NewService(config.DocumentConfig{ChatCharBudget: 15000, URLCharBudget: 150000}, client)

	h := New(docs, answerer, uploader, 1<<20)
	h.now = func() time.Time { return time.UnixMilli(1700000000000) }

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, answerer, uploader
}

func post(r http.Handler, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func inlinePDF(text string) string {
	raw, _ := json.Marshal(map[string]string{"content": base64.StdEncoding.EncodeToString(pdftest.OnePage(text))})
	return string(raw)
}

func userTurn(text string) []chat.Message {
	return []chat.Message{{ID: "u1", Role: chat.RoleUser, Content: text}}
}

func TestChatPDFStreamsAnswer(t *testing.T) {
	r, answerer, _ := setup(t, nil)

	resp := post(r, "/chat-pdf", map[string]any{
		"pdfContent": inlinePDF("Receita 42"),
		"messages":   userTurn("Qual a receita?"),
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"delta":"A receita foi 42."`) {
		t.Fatalf("expected streamed delta, got %s", resp.Body.String())
	}
	if len(answerer.prompts) != 1 || !strings.Contains(answerer.prompts[0].Messages[0].Content, "Receita") {
		t.Fatalf("expected grounded prompt, got %+v", answerer.prompts)
	}
}

func TestChatPDFValidation(t *testing.T) {
	r, answerer, _ := setup(t, nil)

	cases := []struct {
		name    string
		payload map[string]any
		status  int
	}{
		{"missing content", map[string]any{"messages": userTurn("oi")}, http.StatusBadRequest},
		{"empty messages", map[string]any{"pdfContent": inlinePDF("x"), "messages": []chat.Message{}}, http.StatusBadRequest},
		{"blank question", map[string]any{"pdfContent": inlinePDF("x"), "messages": userTurn(" ")}, http.StatusBadRequest},
		{"not json", map[string]any{"pdfContent": "%%%", "messages": userTurn("oi")}, http.StatusUnprocessableEntity},
		{"not a pdf", map[string]any{"pdfContent": `{"content":"aGVsbG8="}`, "messages": userTurn("oi")}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		if resp := post(r, "/chat-pdf", tc.payload); resp.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, resp.Code)
		}
	}
	if len(answerer.prompts) != 0 {
		t.Fatalf("expected no model calls, got %d", len(answerer.prompts))
	}
}

func TestAskPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/ok.pdf" {
			http.NotFound(w, req)
			return
		}
		w.Write(pdftest.OnePage("Ativo total 99"))
	}))
	defer server.Close()

	r, answerer, _ := setup(t, server.Client())

	resp := post(r, "/ask-pdf", map[string]any{"pdfUrl": server.URL + "/ok.pdf", "messages": userTurn("Ativo?")})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if len(answerer.prompts) != 1 || !strings.Contains(answerer.prompts[0].Context[0], "Ativo") {
		t.Fatalf("expected document context, got %+v", answerer.prompts)
	}

	if resp := post(r, "/ask-pdf", map[string]any{"pdfUrl": server.URL + "/gone.pdf", "messages": userTurn("Ativo?")}); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for fetch failure, got %d", resp.Code)
	}
	if resp := post(r, "/ask-pdf", map[string]any{"messages": userTurn("Ativo?")}); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without url, got %d", resp.Code)
	}
}

func TestUploadPDF(t *testing.T) {
	r, _, uploader := setup(t, nil)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, _ := form.CreateFormFile("file", "Balanço Anual 2024.pdf")
	part.Write([]byte("%PDF-1.4"))
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload-pdf", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out struct {
		Success bool   `json:"success"`
		Key     string `json:"key"`
		FileID  int64  `json:"fileId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !out.Success || out.Key != "uploads/1700000000000-balanço-anual-2024.pdf" || out.FileID != 1700000000000 {
		t.Fatalf("unexpected response %+v", out)
	}
	if len(uploader.keys) != 1 || string(uploader.bodies[0]) != "%PDF-1.4" {
		t.Fatalf("expected stored upload, got %v", uploader.keys)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	r, _, _ := setup(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/upload-pdf", strings.NewReader(""))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

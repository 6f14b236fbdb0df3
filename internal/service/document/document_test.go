package document

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalio-ai/dalio/backend/internal/config"
	"github.com/dalio-ai/dalio/backend/internal/model/chat"
	"github.com/dalio-ai/dalio/backend/internal/service/ai"
	"github.com/dalio-ai/dalio/backend/internal/service/document/pdftest"
)

func inline(data []byte) string {
	raw, _ := json.Marshal(map[string]string{"content": base64.StdEncoding.EncodeToString(data)})
	return string(raw)
}

func question(text string) []chat.Message {
	return []chat.Message{{ID: "u1", Role: chat.RoleUser, Content: text}}
}

func TestExtractText(t *testing.T) {
	text, err := ExtractText(pdftest.OnePage("Lucro liquido 10"))
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if !strings.Contains(text, "Lucro") {
		t.Fatalf("expected page text, got %q", text)
	}
}

func TestExtractTextRejectsGarbage(t *testing.T) {
	if _, err := ExtractText([]byte("definitely not a pdf")); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestDecodeInline(t *testing.T) {
	data, err := DecodeInline(inline([]byte("%PDF")))
	if err != nil {
		t.Fatalf("DecodeInline returned error: %v", err)
	}
	if string(data) != "%PDF" {
		t.Fatalf("unexpected bytes %q", data)
	}

	for _, bad := range []string{"not json", `{"content":"***"}`, `{"content":""}`} {
		if _, err := DecodeInline(bad); !errors.Is(err, ErrInvalidDocument) {
			t.Fatalf("expected ErrInvalidDocument for %q, got %v", bad, err)
		}
	}
}

func TestChatPromptFramesQuestion(t *testing.T) {
	svc := NewService(config.DocumentConfig{ChatCharBudget: 15000}, nil)

	prompt, err := svc.ChatPrompt(inline(pdftest.OnePage("Receita 42")), question("Qual a receita?"))
	if err != nil {
		t.Fatalf("ChatPrompt returned error: %v", err)
	}
	if prompt.System == "" || len(prompt.Context) != 0 {
		t.Fatalf("unexpected prompt %+v", prompt)
	}
	if len(prompt.Messages) != 1 {
		t.Fatalf("expected a single framed message, got %d", len(prompt.Messages))
	}
	body := prompt.Messages[0].Content
	if !strings.Contains(body, "Receita") || !strings.Contains(body, "PERGUNTA: Qual a receita?") {
		t.Fatalf("unexpected framed question %q", body)
	}
}

func TestChatPromptValidation(t *testing.T) {
	svc := NewService(config.DocumentConfig{}, nil)

	if _, err := svc.ChatPrompt(inline(pdftest.OnePage("x")), nil); !errors.Is(err, ai.ErrEmptyMessages) {
		t.Fatalf("expected ErrEmptyMessages, got %v", err)
	}
	if _, err := svc.ChatPrompt(inline(pdftest.OnePage("x")), question("  ")); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
	if _, err := svc.ChatPrompt("{bad", question("oi")); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestURLPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/report.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Write(pdftest.OnePage("Ativo total 99"))
	}))
	defer server.Close()

	svc := NewService(config.DocumentConfig{URLCharBudget: 5}, server.Client())
	history := []chat.Message{
		{Role: chat.RoleUser, Content: "Oi"},
		{Role: chat.RoleAssistant, Content: "Olá"},
		{Role: chat.RoleUser, Content: "Qual o ativo total?"},
	}

	prompt, err := svc.URLPrompt(context.Background(), server.URL+"/report.pdf", history)
	if err != nil {
		t.Fatalf("URLPrompt returned error: %v", err)
	}
	if len(prompt.Context) != 1 || len([]rune(prompt.Context[0])) > 5 {
		t.Fatalf("expected truncated context, got %q", prompt.Context)
	}
	if len(prompt.Messages) != 3 {
		t.Fatalf("expected full history, got %d", len(prompt.Messages))
	}

	if _, err := svc.URLPrompt(context.Background(), server.URL+"/missing.pdf", history); !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestTruncateCountsCharacters(t *testing.T) {
	if got := Truncate("balanço", 6); got != "balanç" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Truncate("abc", 0); got != "abc" {
		t.Fatalf("unexpected %q", got)
	}
}

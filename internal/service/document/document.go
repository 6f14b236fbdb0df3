package document

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/dalio-ai/dalio/backend/internal/config"
	"github.com/dalio-ai/dalio/backend/internal/model/chat"
	"github.com/dalio-ai/dalio/backend/internal/service/ai"
)

var (
	// ErrInvalidDocument covers undecodable payloads and unparsable PDFs.
	ErrInvalidDocument = errors.New("invalid pdf document")
	// ErrEmptyQuestion is returned when the last message has no text.
	ErrEmptyQuestion = errors.New("last message content is empty")
	// ErrFetch is returned when a remote PDF cannot be downloaded.
	ErrFetch = errors.New("failed to fetch pdf")
)

const analystPrompt = "Você é um assistente especializado em análise de documentos financeiros."

const groundedQuestion = `Abaixo está o conteúdo de um PDF de relatório financeiro. Use APENAS as informações presentes
neste documento para responder à pergunta.

CONTEÚDO DO PDF:
%s

PERGUNTA: %s`

// Service prepares grounded prompts from PDF documents.
type Service struct {
	client *http.Client
	cfg    config.DocumentConfig
}

// NewService creates the document service.
func NewService(cfg config.DocumentConfig, client *http.Client) *Service {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Service{client: client, cfg: cfg}
}

// ChatPrompt decodes an inline PDF and frames the last question over its
// text. Earlier turns are not forwarded.
func (s *Service) ChatPrompt(pdfContent string, messages []chat.Message) (ai.DocumentPrompt, error) {
	question, err := lastQuestion(messages)
	if err != nil {
		return ai.DocumentPrompt{}, err
	}

	data, err := DecodeInline(pdfContent)
	if err != nil {
		return ai.DocumentPrompt{}, err
	}
	text, err := ExtractText(data)
	if err != nil {
		return ai.DocumentPrompt{}, err
	}

	return ai.DocumentPrompt{
		System: analystPrompt,
		Messages: []chat.Message{{
			ID:      "context",
			Role:    chat.RoleUser,
			Content: fmt.Sprintf(groundedQuestion, Truncate(text, s.cfg.ChatCharBudget), question),
		}},
	}, nil
}

// URLPrompt downloads a PDF and puts its text ahead of the full conversation.
func (s *Service) URLPrompt(ctx context.Context, url string, messages []chat.Message) (ai.DocumentPrompt, error) {
	if _, err := lastQuestion(messages); err != nil {
		return ai.DocumentPrompt{}, err
	}

	data, err := s.Fetch(ctx, url)
	if err != nil {
		return ai.DocumentPrompt{}, err
	}
	text, err := ExtractText(data)
	if err != nil {
		return ai.DocumentPrompt{}, err
	}

	return ai.DocumentPrompt{
		System:   analystPrompt,
		Context:  []string{Truncate(text, s.cfg.URLCharBudget)},
		Messages: messages,
	}, nil
}

// Fetch downloads a PDF, capped at the configured upload size.
func (s *Service) Fetch(ctx context.Context, url string) ([]byte, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: empty url", ErrFetch)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if s.cfg.MaxUploadBytes > 0 {
		reader = io.LimitReader(resp.Body, s.cfg.MaxUploadBytes)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return data, nil
}

// DecodeInline unwraps the {"content": "<base64>"} JSON string sent by the
// browser uploader.
func DecodeInline(pdfContent string) ([]byte, error) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(pdfContent), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if payload.Content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidDocument)
	}

	data, err := base64.StdEncoding.DecodeString(payload.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return data, nil
}

// ExtractText returns the plain text of every page, one page per line block.
// Parser panics on malformed input are reported as ErrInvalidDocument.
func ExtractText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[document] pdf parser panic: %v", r)
			text, err = "", fmt.Errorf("%w: %v", ErrInvalidDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrInvalidDocument, i, err)
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n"), nil
}

// Truncate keeps at most limit characters. A non-positive limit keeps all.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func lastQuestion(messages []chat.Message) (string, error) {
	if len(messages) == 0 {
		return "", ai.ErrEmptyMessages
	}
	question := strings.TrimSpace(messages[len(messages)-1].TextContent())
	if question == "" {
		return "", ErrEmptyQuestion
	}
	return question, nil
}

package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dalio-ai/dalio/backend/internal/model/chat"
	"github.com/dalio-ai/dalio/backend/internal/service/ai"
	docService "github.com/dalio-ai/dalio/backend/internal/service/document"
	"github.com/dalio-ai/dalio/backend/pkg/utils"
)

// Preparer turns PDF input into a grounded prompt.
type Preparer interface {
	ChatPrompt(pdfContent string, messages []chat.Message) (ai.DocumentPrompt, error)
	URLPrompt(ctx context.Context, url string, messages []chat.Message) (ai.DocumentPrompt, error)
}

// Answerer streams an answer to a grounded prompt.
type Answerer interface {
	AnswerDocument(ctx context.Context, p ai.DocumentPrompt, emit ai.Emitter) error
}

// Uploader stores uploaded files.
type Uploader interface {
	Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error
}

// Handler serves the document chat endpoints.
type Handler struct {
	docs     Preparer
	answerer Answerer
	uploads  Uploader
	maxBytes int64
	now      func() time.Time
}

// New creates a document handler. uploads may be nil when no bucket is
// configured.
func New(docs Preparer, answerer Answerer, uploads Uploader, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	return &Handler{docs: docs, answerer: answerer, uploads: uploads, maxBytes: maxBytes, now: time.Now}
}

// RegisterRoutes mounts the document endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat-pdf", h.handleChatPDF)
	r.Post("/ask-pdf", h.handleAskPDF)
	r.Post("/upload-pdf", h.handleUpload)
}

func (h *Handler) handleChatPDF(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PDFContent string         `json:"pdfContent"`
		Messages   []chat.Message `json:"messages"`
	}
	// Base64 inflates the document by a third.
	if err := utils.DecodeJSON(w, r, h.maxBytes*2, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.PDFContent == "" || len(payload.Messages) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "pdfContent e messages são obrigatórios")
		return
	}

	prompt, err := h.docs.ChatPrompt(payload.PDFContent, payload.Messages)
	switch {
	case errors.Is(err, docService.ErrEmptyQuestion), errors.Is(err, ai.ErrEmptyMessages):
		utils.RespondError(w, http.StatusBadRequest, "Mensagem do usuário é inválida")
		return
	case err != nil:
		log.Printf("[document] chat-pdf rejected document: %v", err)
		utils.RespondError(w, http.StatusUnprocessableEntity, "Não foi possível processar o PDF.")
		return
	}

	h.stream(w, r, prompt)
}

func (h *Handler) handleAskPDF(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PDFURL   string         `json:"pdfUrl"`
		Messages []chat.Message `json:"messages"`
	}
	if err := utils.DecodeJSON(w, r, h.maxBytes, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.PDFURL) == "" || len(payload.Messages) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "pdfUrl e messages são obrigatórios")
		return
	}

	prompt, err := h.docs.URLPrompt(r.Context(), payload.PDFURL, payload.Messages)
	switch {
	case errors.Is(err, docService.ErrEmptyQuestion), errors.Is(err, ai.ErrEmptyMessages):
		utils.RespondError(w, http.StatusBadRequest, "Mensagem do usuário é inválida")
		return
	case err != nil:
		log.Printf("[document] ask-pdf failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Falha ao processar o PDF. Verifique a URL e tente novamente.")
		return
	}

	h.stream(w, r, prompt)
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, prompt ai.DocumentPrompt) {
	send, ok := utils.StartSSE(w)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	emit := func(ev chat.Event) error { return send(ev) }
	if err := h.answerer.AnswerDocument(r.Context(), prompt, emit); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[document] answer failed: %v", err)
	}
}

var whitespace = regexp.MustCompile(`\s+`)

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.uploads == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "armazenamento não configurado")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+(1<<20))
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Nenhum arquivo enviado")
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Falha ao ler o arquivo")
		return
	}

	fileID := h.now().UnixMilli()
	name := strings.ToLower(whitespace.ReplaceAllString(header.Filename, "-"))
	key := fmt.Sprintf("uploads/%d-%s", fileID, name)

	if err := h.uploads.Put(r.Context(), key, body, "application/pdf", nil); err != nil {
		log.Printf("[document] upload %s failed: %v", key, err)
		utils.RespondError(w, http.StatusInternalServerError, "Falha ao processar o upload")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"key":     key,
		"fileId":  fileID,
	})
}

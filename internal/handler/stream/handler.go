package stream

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dalio-ai/dalio/backend/internal/model/chat"
	"github.com/dalio-ai/dalio/backend/internal/service/ai"
	"github.com/dalio-ai/dalio/backend/pkg/utils"
)

const maxRequestBytes = 4 << 20

// ChatRunner runs one tool-augmented chat turn.
type ChatRunner interface {
	RunChat(ctx context.Context, messages []chat.Message, emit ai.Emitter) error
}

// Handler relays completion events over Server-Sent Events and WebSocket.
type Handler struct {
	runner ChatRunner
	ws     *wsRelay
}

// New creates a stream handler.
func New(runner ChatRunner) *Handler {
	return &Handler{
		runner: runner,
		ws:     newWSRelay(runner),
	}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/chat/ws", h.ws.handleWebSocket)
}

// handleChat streams one turn as SSE frames, each carrying a chat.Event.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := utils.DecodeJSON(w, r, maxRequestBytes, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "messages are required")
		return
	}

	send, ok := utils.StartSSE(w)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	emit := func(ev chat.Event) error { return send(ev) }

	if err := h.runner.RunChat(r.Context(), req.Messages, emit); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Printf("[stream] client went away")
			return
		}
		log.Printf("[stream] chat turn failed: %v", err)
	}
}

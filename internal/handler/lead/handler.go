package lead

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dalio-ai/dalio/backend/internal/middleware"
	leadService "github.com/dalio-ai/dalio/backend/internal/service/lead"
	"github.com/dalio-ai/dalio/backend/pkg/utils"
)

// Store records leads.
type Store interface {
	Add(ctx context.Context, email, userID string) (leadService.Lead, error)
}

// Handler captures e-mail leads from the landing page.
type Handler struct {
	store Store
}

// New creates a lead handler.
func New(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the lead endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/leads", h.handleCreateLead)
}

func (h *Handler) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := utils.DecodeJSON(w, r, 1<<10, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var userID string
	if user, ok := middleware.UserFrom(r.Context()); ok {
		userID = user.ID
	}

	lead, err := h.store.Add(r.Context(), payload.Email, userID)
	if err != nil {
		if errors.Is(err, leadService.ErrInvalidEmail) {
			utils.RespondError(w, http.StatusBadRequest, "e-mail inválido")
			return
		}
		log.Printf("[lead] failed to store lead: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to store lead")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, lead)
}

package catalog

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/dalio-ai/dalio/backend/internal/model/index"
	"github.com/dalio-ai/dalio/backend/pkg/utils"
)

// Handler serves the index glossary and starter prompts.
type Handler struct {
	indices     index.Store
	suggestions []string
}

// New creates a catalog handler.
func New(indices index.Store, suggestions []string) *Handler {
	return &Handler{indices: indices, suggestions: suggestions}
}

// RegisterRoutes mounts the catalog endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/indices", h.handleListIndices)
	r.Get("/indices/{symbol}", h.handleGetIndex)
	r.Get("/suggestions", h.handleSuggestions)
}

func (h *Handler) handleListIndices(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.indices.List())
}

func (h *Handler) handleGetIndex(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if decoded, err := url.PathUnescape(symbol); err == nil {
		symbol = decoded
	}
	item, ok := h.indices.FindBySymbol(symbol)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "index not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.suggestions)
}

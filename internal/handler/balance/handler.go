package balance

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	balanceService "github.com/dalio-ai/dalio/backend/internal/service/balance"
	docService "github.com/dalio-ai/dalio/backend/internal/service/document"
	"github.com/dalio-ai/dalio/backend/pkg/utils"
)

// Library is the report library the handler browses.
type Library interface {
	Companies(ctx context.Context) ([]balanceService.Company, error)
	Years(ctx context.Context, company string) ([]string, error)
	Periods(ctx context.Context, company, year string) ([]string, error)
	URL(ctx context.Context, company, year, period string) (string, error)
	Summarize(ctx context.Context, company, year, period string) (balanceService.Summary, error)
}

// Handler serves the report library.
type Handler struct {
	library Library
}

// New creates a balance handler.
func New(library Library) *Handler {
	return &Handler{library: library}
}

// RegisterRoutes mounts the library endpoints under /balances.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/balances", func(br chi.Router) {
		br.Get("/companies", h.handleCompanies)
		br.Get("/{company}/years", h.handleYears)
		br.Get("/{company}/{year}/periods", h.handlePeriods)
		br.Get("/{company}/{year}/{period}/url", h.handleURL)
		br.Get("/{company}/{year}/{period}/summary", h.handleSummary)
	})
}

func (h *Handler) handleCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.library.Companies(r.Context())
	if err != nil {
		respondLibraryError(w, "list companies", err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, companies)
}

func (h *Handler) handleYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.library.Years(r.Context(), param(r, "company"))
	if err != nil {
		respondLibraryError(w, "list years", err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, years)
}

func (h *Handler) handlePeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.library.Periods(r.Context(), param(r, "company"), param(r, "year"))
	if err != nil {
		respondLibraryError(w, "list periods", err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, periods)
}

func (h *Handler) handleURL(w http.ResponseWriter, r *http.Request) {
	signed, err := h.library.URL(r.Context(), param(r, "company"), param(r, "year"), param(r, "period"))
	if err != nil {
		respondLibraryError(w, "sign url", err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"url": signed})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.library.Summarize(r.Context(), param(r, "company"), param(r, "year"), param(r, "period"))
	if err != nil {
		respondLibraryError(w, "summarize", err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, summary)
}

// param returns a decoded path segment; company folders contain spaces and
// colons.
func param(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func respondLibraryError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, balanceService.ErrInvalidSegment):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, docService.ErrInvalidDocument):
		utils.RespondError(w, http.StatusUnprocessableEntity, "Não foi possível ler o balanço.")
	default:
		log.Printf("[balance] %s failed: %v", action, err)
		utils.RespondError(w, http.StatusBadGateway, "falha ao acessar a biblioteca de balanços")
	}
}

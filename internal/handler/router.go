package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dalio-ai/dalio/backend/internal/handler/balance"
	"github.com/dalio-ai/dalio/backend/internal/handler/catalog"
	"github.com/dalio-ai/dalio/backend/internal/handler/document"
	"github.com/dalio-ai/dalio/backend/internal/handler/lead"
	"github.com/dalio-ai/dalio/backend/internal/handler/stream"
	middlewarePkg "github.com/dalio-ai/dalio/backend/internal/middleware"
	"github.com/dalio-ai/dalio/backend/internal/model/index"
	aiService "github.com/dalio-ai/dalio/backend/internal/service/ai"
	balanceService "github.com/dalio-ai/dalio/backend/internal/service/balance"
	docService "github.com/dalio-ai/dalio/backend/internal/service/document"
	leadService "github.com/dalio-ai/dalio/backend/internal/service/lead"
	"github.com/dalio-ai/dalio/backend/internal/service/storage"
	"github.com/dalio-ai/dalio/backend/pkg/utils"
)

// Services are the dependencies the router wires to handlers. Library,
// Bucket and Leads are optional.
type Services struct {
	AI             *aiService.Service
	Documents      *docService.Service
	Library        *balanceService.Library
	Bucket         *storage.Bucket
	Leads          *leadService.Store
	Indices        index.Store
	Auth           *middlewarePkg.Authenticator
	MaxUploadBytes int64
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(s Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(s.AllowedOrigins))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		catalog.New(s.Indices, index.Suggestions()).RegisterRoutes(api)

		api.Group(func(public chi.Router) {
			if s.Auth != nil {
				public.Use(s.Auth.Identify)
			}
			if s.Leads != nil {
				lead.New(s.Leads).RegisterRoutes(public)
			} else {
				public.Post("/leads", unavailable("lead capture unavailable"))
			}
		})

		api.Group(func(protected chi.Router) {
			if s.Auth != nil {
				protected.Use(s.Auth.Middleware)
			}

			stream.New(s.AI).RegisterRoutes(protected)

			var uploads document.Uploader
			if s.Bucket != nil {
				uploads = s.Bucket
			}
			document.New(s.Documents, s.AI, uploads, s.MaxUploadBytes).RegisterRoutes(protected)

			if s.Library != nil {
				balance.New(s.Library).RegisterRoutes(protected)
			} else {
				protected.Get("/balances/*", unavailable("report library unavailable"))
			}
		})
	})

	return r
}

func unavailable(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusServiceUnavailable, message)
	}
}

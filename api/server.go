/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. requestLogger: zerolog access log with a uuid per request
  2. Recoverer:     panic recovery (500 instead of crash)
  3. CORS:          cross-origin requests for the frontend

ROUTE GROUPS:
  Everything hangs off /api/users/{userID}: the aggregate is per-user
  and each handler loads it, mutates, and saves. Reads of /summary and
  /log run reconciliation first, mirroring the display-refresh trigger.

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Get("/summary", h.GetSummary)
		r.Put("/settings", h.UpdateSettings)

		r.Route("/log", func(r chi.Router) {
			r.Get("/", h.GetLog)
			r.Post("/", h.AddLogEntry)
			r.Put("/{id}", h.EditLogEntry)
			r.Delete("/{id}", h.DeleteLogEntry)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.GetHistory)
			r.Post("/", h.AddHistoryEntry)
			r.Put("/{id}", h.EditHistoryEntry)
			r.Delete("/{id}", h.DeleteHistoryEntry)
		})

		r.Route("/spending", func(r chi.Router) {
			r.Get("/", h.GetSpending)
			r.Post("/", h.AddSpending)
			r.Put("/{id}", h.EditSpending)
			r.Delete("/{id}", h.DeleteSpending)
		})

		r.Route("/proposed", func(r chi.Router) {
			r.Get("/", h.GetProposed)
			r.Post("/", h.AddProposed)
			r.Put("/{id}", h.EditProposed)
			r.Delete("/{id}", h.DeleteProposed)
			r.Post("/{id}/wishlist", h.MoveProposedToWishlist)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", h.GetWishlist)
			r.Post("/", h.AddWishlistItem)
			r.Put("/{id}", h.EditWishlistItem)
			r.Delete("/{id}", h.DeleteWishlistItem)
			r.Put("/{id}/category", h.ChangeItemCategory)
			r.Post("/{id}/proposed", h.MoveWishlistToProposed)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", h.AddCategory)
			r.Put("/{id}", h.RenameCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		r.Route("/colors/{kind}", func(r chi.Router) {
			r.Post("/", h.AddColorRange)
			r.Put("/{index}", h.EditColorRange)
			r.Delete("/{index}", h.DeleteColorRange)
		})

		r.Put("/visibility/sections/{name}", h.SetSectionVisibility)
		r.Put("/visibility/categories/{id}", h.SetCategoryVisibility)
	})

	return r
}

// requestLogger tags every request with a uuid and logs method, path,
// status, and duration through zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := uuid.New().String()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

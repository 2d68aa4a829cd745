/*
server.go - Router setup and middleware

PURPOSE:
  Wires the HTTP handlers into a chi router with the standard
  middleware stack: request ids, structured request logging, panic
  recovery, and CORS for the browser frontend.

SEE ALSO:
  - handlers.go: The handlers mounted here
  - cmd/server/main.go: Process entry point and lifecycle
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/stockbook/inventory-engine/inventory"
)

// NewRouter builds the complete API router.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/inventory", h.GetInventory)
		r.Get("/reports", h.GetReport)

		r.Route("/movements", func(r chi.Router) {
			r.Get("/", h.ListMovements)
			r.Post("/", h.RecordMovements)
			r.Delete("/{id}", h.DeleteMovement)
		})

		mountReferences(r, h, "items", inventory.KindItem)
		mountReferences(r, h, "categories", inventory.KindCategory)
		mountReferences(r, h, "units", inventory.KindUnit)
	})

	return r
}

// mountReferences mounts the identical CRUD surface for one reference
// kind under its plural path segment.
func mountReferences(r chi.Router, h *Handler, path string, kind inventory.ReferenceKind) {
	r.Route("/"+path, func(r chi.Router) {
		r.Get("/", h.ListReferences(kind))
		r.Post("/", h.CreateReference(kind))
		r.Put("/{id}", h.RenameReference(kind))
		r.Delete("/{id}", h.DeleteReference(kind))
	})
}

// requestLogger logs one line per request with method, path, status and
// duration.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

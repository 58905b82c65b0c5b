package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/neuronote/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// Export requests may only write below exportRoot.
func NewRouter(svc *noteservice.Service, authEnabled bool, token, exportRoot string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, exportRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.CreateNote)
		r.Route("/{index}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Put("/", h.UpdateNote)
			r.Delete("/", h.TrashNote)
			r.Get("/text", h.NoteText)
			r.Post("/summarize", h.Summarize)
		})
	})

	r.Get("/groups", h.Groups)

	r.Get("/trash", h.ListTrash)
	r.Post("/trash/{index}/restore", h.RestoreNote)
	r.Delete("/trash/{index}", h.PurgeNote)

	r.Post("/export/{format}", h.Export)
	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// HealthRouter serves the unauthenticated liveness and readiness probes.
func HealthRouter(svc *noteservice.Service) chi.Router {
	r := chi.NewRouter()
	r.Get("/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

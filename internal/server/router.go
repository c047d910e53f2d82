package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Router assembles the HTTP surface. Everything under /v1/reports sits
// behind the session-token gate.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(propagateRequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/auth", s.handleAuth)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.auth.JWTSecret))
		r.Post("/v1/reports/extract", s.handleExtract)
		r.Post("/v1/reports/generate", s.handleGenerate)
		r.Get("/v1/reports", s.handleHistory)
	})

	return r
}

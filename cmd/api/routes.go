package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/PaulBabatuyi/bookhub/internal/envelope"
	"github.com/PaulBabatuyi/bookhub/internal/middleware"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(s.log))
	r.Use(middleware.Recover(s.log))
	r.Use(middleware.CORS(s.cfg.corsOrigin))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BodyLimit(s.cfg.maxBodyBytes))
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			envelope.Error(w, r, http.StatusNotFound, "route not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			envelope.Error(w, r, http.StatusMethodNotAllowed, "method not allowed")
		})

		r.Get("/health", s.handleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(s.limiter))
			r.Post("/signup", s.handleSignup)
			r.Post("/login", s.handleLogin)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Get("/{id}", s.handleGetBook)

			r.Group(func(r chi.Router) {
				r.Use(s.identify)
				r.Post("/", s.handleCreateBook)
				r.Delete("/{id}", s.handleDeleteBook)
				r.Post("/{id}/message", s.handleAppendMessage)
			})
		})
	})

	spa := newSPAHandler(s.cfg.staticDir)
	r.NotFound(spa.ServeHTTP)

	return r
}

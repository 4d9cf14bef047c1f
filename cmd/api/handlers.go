package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PaulBabatuyi/bookhub/internal/envelope"
	"github.com/PaulBabatuyi/bookhub/internal/service"
)

// handleSignup creates an account and returns a token for it.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.accounts.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	envelope.Write(w, r, http.StatusCreated, envelope.OK("Account created", res))
}

// handleLogin exchanges credentials for a token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.accounts.Authenticate(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	envelope.Write(w, r, http.StatusOK, envelope.OK("Logged in", res))
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.listings.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	envelope.Write(w, r, http.StatusOK, envelope.OK("", books))
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	envelope.Write(w, r, http.StatusOK, envelope.OK("", book))
}

// handleCreateBook stores a listing. The owner comes from the token when one
// was presented; body owner fields only matter for anonymous callers.
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var in service.CreateListingInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	book, err := s.listings.Create(r.Context(), service.IdentityFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	envelope.Write(w, r, http.StatusCreated, envelope.OK("Listing created", book))
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.listings.Delete(r.Context(), service.IdentityFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	envelope.Write(w, r, http.StatusOK, envelope.OK("Listing deleted", map[string]string{"id": id}))
}

// handleAppendMessage responds with the appended message only.
func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	var in service.MessageInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	msg, err := s.listings.AppendMessage(r.Context(), service.IdentityFrom(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	envelope.Write(w, r, http.StatusCreated, envelope.OK("Message sent", msg))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Check(r.Context()); err != nil {
		s.log.Warn(r.Context(), "health check failed", "err", err)
		envelope.Error(w, r, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	checkedAt, _ := s.health.Status()
	envelope.Write(w, r, http.StatusOK, envelope.OK("ok", map[string]any{
		"storage":   "up",
		"checkedAt": checkedAt,
	}))
}

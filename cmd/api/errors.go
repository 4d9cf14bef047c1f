package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/PaulBabatuyi/bookhub/internal/envelope"
	"github.com/PaulBabatuyi/bookhub/internal/service"
)

var errEmptyBody = &service.Error{Kind: service.KindInvalidInput, Message: "request body is required"}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindInvalidInput:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError converts err into an error envelope. Internal details are
// logged, never sent.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		envelope.Error(w, r, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var se *service.Error
	if errors.As(err, &se) && se.Kind != service.KindInternal {
		envelope.Error(w, r, statusFor(se.Kind), se.Message)
		return
	}

	s.log.Error(r.Context(), "request failed",
		"err", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimw.GetReqID(r.Context()),
	)
	envelope.Error(w, r, http.StatusInternalServerError, "internal server error")
}

// decodeJSON reads one JSON value from the body into dst.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var mbe *http.MaxBytesError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &mbe):
		return err
	case errors.Is(err, io.EOF):
		return errEmptyBody
	case errors.As(err, &typeErr):
		return &service.Error{Kind: service.KindInvalidInput, Message: "field " + typeErr.Field + " has the wrong type", Err: err}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return &service.Error{Kind: service.KindInvalidInput, Message: "malformed JSON body", Err: err}
	default:
		return &service.Error{Kind: service.KindInvalidInput, Message: "invalid request body", Err: err}
	}
}

// Package envelope defines the JSON wrapper every API response uses.
package envelope

import (
	"encoding/json"
	"net/http"
)

// Envelope is {success, message, data}. Data is omitted when nil.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

func Fail(message string) Envelope {
	return Envelope{Success: false, Message: message}
}

// Write encodes env with status. HEAD requests get headers only.
func Write(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if r != nil && r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(env)
}

// Error writes a failure envelope with the given status.
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	Write(w, r, status, Fail(message))
}

package errors

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response shape every endpoint returns: a success flag,
// a human-readable message, and optional data.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type RateLimitData struct {
	RetryAfterSec int64 `json:"retry_after_sec"`
}

type RedirectData struct {
	Redirect string `json:"redirect"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteSuccess(w http.ResponseWriter, message string, data any) {
	Write(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func WriteError(w http.ResponseWriter, status int, message string) {
	Write(w, status, Envelope{Success: false, Message: message})
}
